package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/faciam-dev/gcrb/pkg/schema"
)

// Collection is a named group of field records inside a snapshot document.
type Collection struct {
	Name   string               `json:"name" yaml:"name"`
	Fields []schema.FieldRecord `json:"fields" yaml:"fields"`
}

// document is the YAML shape of a snapshot file.
type document struct {
	Collections []Collection            `yaml:"collections"`
	Relations   []schema.RelationRecord `yaml:"relations,omitempty"`
}

// Snapshot is an immutable-after-build, in-memory Catalog implementation.
type Snapshot struct {
	collections map[string][]schema.FieldRecord
	relations   []schema.RelationRecord
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{collections: map[string][]schema.FieldRecord{}}
}

// AddCollection registers a collection and its fields. Field records keep
// their own Collection value in sync with name.
func (s *Snapshot) AddCollection(name string, fields ...schema.FieldRecord) {
	for i := range fields {
		fields[i].Collection = name
	}
	s.collections[name] = append(s.collections[name], fields...)
}

// AddField appends a single field to a collection, creating it when absent.
func (s *Snapshot) AddField(f schema.FieldRecord) {
	s.collections[f.Collection] = append(s.collections[f.Collection], f)
}

// AddRelation registers a relation record.
func (s *Snapshot) AddRelation(r schema.RelationRecord) {
	s.relations = append(s.relations, r)
}

// CollectionExists implements Catalog.
func (s *Snapshot) CollectionExists(name string) bool {
	_, ok := s.collections[name]
	return ok
}

// FieldExists implements Catalog.
func (s *Snapshot) FieldExists(collection, field string) bool {
	_, ok := s.Field(collection, field)
	return ok
}

// Field implements Catalog.
func (s *Snapshot) Field(collection, field string) (schema.FieldRecord, bool) {
	for _, f := range s.collections[collection] {
		if f.Field == field {
			return f, true
		}
	}
	return schema.FieldRecord{}, false
}

// PrimaryKey implements Catalog.
func (s *Snapshot) PrimaryKey(collection string) (PrimaryKey, bool) {
	for _, f := range s.collections[collection] {
		if f.Schema != nil && f.Schema.IsPrimaryKey && f.Type != nil {
			return PrimaryKey{Field: f.Field, Type: *f.Type}, true
		}
	}
	return PrimaryKey{}, false
}

// RelationsForField implements Catalog. A relation involves a field either
// as the foreign key column itself, as the reverse-side alias (one_field),
// or as the sibling of a matched junction relation (junction_field).
func (s *Snapshot) RelationsForField(collection, field string) []schema.RelationRecord {
	var out []schema.RelationRecord
	for _, r := range s.relations {
		if r.Collection == collection && r.Field == field {
			out = append(out, r)
			continue
		}
		if r.RelatedCollection == collection && r.Meta.OneField == field {
			out = append(out, r)
		}
	}
	for _, m := range out {
		if m.Meta.JunctionField == "" {
			continue
		}
		for _, r := range s.relations {
			if r.Collection == m.Collection && r.Field == m.Meta.JunctionField && !containsRelation(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

func containsRelation(rels []schema.RelationRecord, r schema.RelationRecord) bool {
	for _, x := range rels {
		if x.Collection == r.Collection && x.Field == r.Field {
			return true
		}
	}
	return false
}

// Relations returns a copy of every relation record in the snapshot.
func (s *Snapshot) Relations() []schema.RelationRecord {
	out := make([]schema.RelationRecord, len(s.relations))
	copy(out, s.relations)
	return out
}

// Collections returns the collection names in sorted order.
func (s *Snapshot) Collections() []string {
	names := make([]string, 0, len(s.collections))
	for n := range s.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Parse decodes a YAML snapshot document.
func Parse(b []byte) (*Snapshot, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	s := NewSnapshot()
	for _, c := range doc.Collections {
		if c.Name == "" {
			return nil, fmt.Errorf("parse snapshot: collection without name")
		}
		s.AddCollection(c.Name, c.Fields...)
	}
	for _, r := range doc.Relations {
		s.AddRelation(r)
	}
	return s, nil
}

// Load reads and parses a YAML snapshot file.
func Load(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Encode serializes the snapshot back to its YAML document form with
// collections in sorted order.
func (s *Snapshot) Encode() ([]byte, error) {
	doc := document{Relations: s.relations}
	for _, name := range s.Collections() {
		doc.Collections = append(doc.Collections, Collection{Name: name, Fields: s.collections[name]})
	}
	return yaml.Marshal(&doc)
}
