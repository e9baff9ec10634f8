package relation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faciam-dev/gcrb/internal/logger"
	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/metrics"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

// Session is the handle for one field-editing session. All state lives on
// the handle; closing it cancels pending debounced work and invalidates
// further mutation. A Session is safe for concurrent use, though the design
// assumes a single editor driving it.
type Session struct {
	mu   sync.Mutex
	cat  catalog.Catalog
	opts Options
	log  *slog.Logger

	category   Category
	collection string
	editing    string
	isExisting bool

	field          FieldDraft
	relations      []schema.RelationRecord
	newCollections []CollectionProposal
	newFields      []FieldProposal
	seeds          map[string][]SeedRow
	autoFill       bool

	rules        []rule
	dirty        map[path]struct{}
	timers       map[string]*time.Timer
	pendingRules map[string]struct{}
	closed       bool
}

// Open creates a session for editing field on collection under the given
// category. field == NewField starts a creation session with
// category-dependent defaults; any other value loads the existing field and
// its relations from the catalog, or fails with ErrFieldNotFound.
func Open(cat catalog.Catalog, collection, field string, category Category, opts Options) (*Session, error) {
	strat, ok := strategies[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s := &Session{
		cat:          cat,
		opts:         opts.withDefaults(),
		log:          logger.L.With("collection", collection, "category", string(category)),
		category:     category,
		collection:   collection,
		editing:      field,
		isExisting:   field != NewField,
		seeds:        map[string][]SeedRow{},
		dirty:        map[path]struct{}{},
		timers:       map[string]*time.Timer{},
		pendingRules: map[string]struct{}{},
	}
	if s.isExisting {
		if err := s.loadExisting(); err != nil {
			return nil, err
		}
	} else {
		s.field = FieldDraft{Collection: collection}
	}
	strat.init(s)
	for _, r := range strat.rules() {
		if s.isExisting && r.creationOnly {
			continue
		}
		s.rules = append(s.rules, r)
	}
	if !s.isExisting {
		// Initial derivation: treat every declared dependency as changed and
		// settle synchronously so callers observe a complete state.
		for i := range s.rules {
			for _, d := range s.rules[i].deps {
				s.touch(d)
			}
		}
		s.recompute()
		s.flushLocked()
	}
	metrics.SessionsActive.Inc()
	return s, nil
}

// loadExisting seeds drafts from the catalog's stored definitions.
func (s *Session) loadExisting() error {
	rec, ok := s.cat.Field(s.collection, s.editing)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrFieldNotFound, s.collection, s.editing)
	}
	s.field = FieldDraft{Collection: s.collection, Field: rec.Field, Type: rec.Type, Schema: rec.Schema}
	if rec.Meta != nil {
		s.field.Meta = copyFieldMeta(*rec.Meta)
	}
	rels := s.cat.RelationsForField(s.collection, s.editing)
	if want := relationCount(s.category); len(rels) != want {
		return fmt.Errorf("%w: %s.%s has %d relation(s), %s needs %d",
			ErrCategoryMismatch, s.collection, s.editing, len(rels), s.category, want)
	}
	// Current side first: the record whose reverse alias is this field.
	for i, r := range rels {
		if i > 0 && r.RelatedCollection == s.collection && r.Meta.OneField == s.editing {
			rels[0], rels[i] = rels[i], rels[0]
			break
		}
	}
	s.relations = copyRelations(rels)
	return nil
}

// relationCount is the relation record multiplicity each category assumes.
// Setters and Validate index into s.relations on that assumption, so a
// session never opens when the stored records do not match.
func relationCount(c Category) int {
	switch c {
	case CategoryFile, CategoryM2O, CategoryO2M:
		return 1
	case CategoryM2M, CategoryFiles, CategoryTranslations, CategoryM2A:
		return 2
	default:
		return 0
	}
}

// Close tears the session down: pending debounced rules are canceled before
// the state becomes inert, so no stale timer can mutate a dead session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopTimers()
	s.closed = true
	metrics.SessionsActive.Dec()
}

// Category returns the session's relationship category.
func (s *Session) Category() Category { return s.category }

// Collection returns the collection the field is being defined on.
func (s *Session) Collection() string { return s.collection }

// IsExisting reports whether the session edits an already-stored field.
func (s *Session) IsExisting() bool { return s.isExisting }

// Field returns a copy of the field draft.
func (s *Session) Field() FieldDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyFieldDraft(s.field)
}

// Relations returns a copy of the relation drafts. Junction categories hold
// two entries with the current side at index 0.
func (s *Session) Relations() []schema.RelationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRelations(s.relations)
}

// NewCollections returns the collections currently proposed for creation.
func (s *Session) NewCollections() []CollectionProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CollectionProposal, len(s.newCollections))
	for i, p := range s.newCollections {
		out[i] = p
		out[i].Fields = append([]schema.FieldRecord(nil), p.Fields...)
	}
	return out
}

// NewFields returns the fields currently proposed for creation.
func (s *Session) NewFields() []FieldProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FieldProposal(nil), s.newFields...)
}

// Seeds returns the seed rows keyed by collection name.
func (s *Session) Seeds() map[string][]SeedRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]SeedRow, len(s.seeds))
	for k, rows := range s.seeds {
		out[k] = append([]SeedRow(nil), rows...)
	}
	return out
}

// AutoFill reports whether automatic junction naming is active.
func (s *Session) AutoFill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoFill
}

func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := fn(); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// SetFieldName renames the field under construction. The new name
// propagates one way into the relation records that mirror it.
func (s *Session) SetFieldName(name string) error {
	return s.mutate(func() error {
		s.field.Field = name
		s.touch(pathFieldName)
		return nil
	})
}

// SetFieldType changes the storage type. Only valid for categories whose
// field carries a column (standard, m2o).
func (s *Session) SetFieldType(t schema.Type) error {
	return s.mutate(func() error {
		if s.field.Schema == nil {
			return fmt.Errorf("relation: category %s has no storage type", s.category)
		}
		s.field.Type = schema.TypePtr(t)
		s.touch(pathFieldType)
		return nil
	})
}

// SetNote updates the field's note.
func (s *Session) SetNote(note string) error {
	return s.mutate(func() error {
		s.field.Meta.Note = note
		return nil
	})
}

// SetRelatedCollection picks the collection the relationship points at:
// the foreign key target for m2o/file, the far side of the junction for
// m2m/files/translations.
func (s *Session) SetRelatedCollection(name string) error {
	return s.mutate(func() error {
		switch s.category {
		case CategoryM2O, CategoryFile:
			s.relations[0].RelatedCollection = name
			s.touch(relPath(0, "related_collection"))
		case CategoryM2M, CategoryFiles, CategoryTranslations:
			s.relations[1].RelatedCollection = name
			s.touch(relPath(1, "related_collection"))
		default:
			return fmt.Errorf("relation: related collection not settable for category %s", s.category)
		}
		return nil
	})
}

// SetManyCollection sets the collection holding the foreign key of a
// one-to-many relationship. An empty many-field gets a singularized default
// suggestion derived from the current collection.
func (s *Session) SetManyCollection(name string) error {
	return s.mutate(func() error {
		if s.category != CategoryO2M {
			return fmt.Errorf("relation: many collection not settable for category %s", s.category)
		}
		s.relations[0].Collection = name
		s.touch(relPath(0, "collection"))
		if s.relations[0].Field == "" && name != "" {
			s.relations[0].Field = DefaultForeignKeyField(s.collection)
			s.touch(relPath(0, "field"))
		}
		return nil
	})
}

// SetManyField sets the foreign key column of a one-to-many relationship.
func (s *Session) SetManyField(name string) error {
	return s.mutate(func() error {
		if s.category != CategoryO2M {
			return fmt.Errorf("relation: many field not settable for category %s", s.category)
		}
		s.relations[0].Field = name
		s.touch(relPath(0, "field"))
		return nil
	})
}

// SetSortField names the sort column kept on the many/junction side, empty
// to disable manual ordering.
func (s *Session) SetSortField(name string) error {
	return s.mutate(func() error {
		switch s.category {
		case CategoryO2M, CategoryM2M, CategoryFiles, CategoryTranslations, CategoryM2A:
			s.relations[0].Meta.SortField = name
			s.touch(relPath(0, "sort_field"))
			return nil
		default:
			return fmt.Errorf("relation: sort field not settable for category %s", s.category)
		}
	})
}

// SetJunctionCollection overrides the junction collection name.
func (s *Session) SetJunctionCollection(name string) error {
	return s.mutate(func() error {
		if err := s.requireJunction(); err != nil {
			return err
		}
		s.relations[0].Collection = name
		s.relations[1].Collection = name
		s.touch(relPath(0, "collection"))
		s.touch(relPath(1, "collection"))
		return nil
	})
}

// SetJunctionCurrentField overrides the junction column pointing back at the
// current collection.
func (s *Session) SetJunctionCurrentField(name string) error {
	return s.mutate(func() error {
		if err := s.requireJunction(); err != nil {
			return err
		}
		s.relations[0].Field = name
		s.relations[1].Meta.JunctionField = name
		s.touch(relPath(0, "field"))
		return nil
	})
}

// SetJunctionRelatedField overrides the junction column pointing at the
// related side.
func (s *Session) SetJunctionRelatedField(name string) error {
	return s.mutate(func() error {
		if err := s.requireJunction(); err != nil {
			return err
		}
		s.relations[1].Field = name
		s.relations[0].Meta.JunctionField = name
		s.touch(relPath(1, "field"))
		return nil
	})
}

// SetAllowedCollections sets the collections a many-to-any field may point
// at.
func (s *Session) SetAllowedCollections(names []string) error {
	return s.mutate(func() error {
		if s.category != CategoryM2A {
			return fmt.Errorf("relation: allowed collections not settable for category %s", s.category)
		}
		s.relations[1].Meta.OneAllowedCollections = append([]string(nil), names...)
		s.touch(relPath(1, "one_allowed_collections"))
		return nil
	})
}

// SetCollectionField renames the many-to-any discriminator column.
func (s *Session) SetCollectionField(name string) error {
	return s.mutate(func() error {
		if s.category != CategoryM2A {
			return fmt.Errorf("relation: collection field not settable for category %s", s.category)
		}
		s.relations[1].Meta.OneCollectionField = name
		s.touch(relPath(1, "one_collection_field"))
		return nil
	})
}

// SetAutoFill toggles automatic junction naming. Once off, the naming rules
// stop firing and manual edits win.
func (s *Session) SetAutoFill(on bool) error {
	return s.mutate(func() error {
		if err := s.requireJunction(); err != nil {
			return err
		}
		s.autoFill = on
		s.touch(pathAutoFill)
		return nil
	})
}

func (s *Session) requireJunction() error {
	switch s.category {
	case CategoryM2M, CategoryFiles, CategoryTranslations, CategoryM2A:
		return nil
	}
	return fmt.Errorf("relation: category %s has no junction", s.category)
}

// Validate reports whether the derived state is complete enough to commit.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.field.Field == "" {
		return fmt.Errorf("relation: field name is required")
	}
	switch s.category {
	case CategoryStandard, CategoryPresentation:
		return nil
	case CategoryFile, CategoryM2O:
		if s.relations[0].RelatedCollection == "" {
			return fmt.Errorf("relation: related collection is required")
		}
	case CategoryO2M:
		if s.relations[0].Collection == "" || s.relations[0].Field == "" {
			return fmt.Errorf("relation: related collection and field are required")
		}
	case CategoryM2M, CategoryFiles, CategoryTranslations:
		if s.relations[1].RelatedCollection == "" {
			return fmt.Errorf("relation: related collection is required")
		}
		if err := s.validateJunctionLocked(); err != nil {
			return err
		}
	case CategoryM2A:
		if len(s.relations[1].Meta.OneAllowedCollections) == 0 {
			return fmt.Errorf("relation: at least one allowed collection is required")
		}
		if s.relations[1].Meta.OneCollectionField == "" {
			return fmt.Errorf("relation: collection field is required")
		}
		if err := s.validateJunctionLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) validateJunctionLocked() error {
	if s.relations[0].Collection == "" {
		return fmt.Errorf("relation: junction collection is required")
	}
	if s.relations[0].Field == "" || s.relations[1].Field == "" {
		return fmt.Errorf("relation: junction fields are required")
	}
	if s.relations[0].Field == s.relations[1].Field {
		return fmt.Errorf("relation: junction fields must differ")
	}
	return nil
}

// Summary lists every object slated for creation, collections first.
func (s *Session) Summary() []CreationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []CreationItem
	for _, c := range s.newCollections {
		out = append(out, CreationItem{Name: c.Collection, Kind: "collection"})
	}
	for _, f := range s.newFields {
		out = append(out, CreationItem{Name: f.Field.Collection + "." + f.Field.Field, Kind: "field"})
	}
	return out
}

// Catalog probe helpers; all counted.

func (s *Session) collectionExists(name string) bool {
	metrics.CatalogProbes.WithLabelValues("collection_exists").Inc()
	return s.cat.CollectionExists(name)
}

func (s *Session) fieldExists(collection, field string) bool {
	metrics.CatalogProbes.WithLabelValues("field_exists").Inc()
	return s.cat.FieldExists(collection, field)
}

// pkType returns the primary key type of collection, or fallback when the
// collection (or its key) is not in the catalog yet.
func (s *Session) pkType(collection string, fallback schema.Type) schema.Type {
	metrics.CatalogProbes.WithLabelValues("primary_key").Inc()
	if pk, ok := s.cat.PrimaryKey(collection); ok {
		return pk.Type
	}
	return fallback
}

// pkField returns the primary key column name of collection, or fallback
// when the collection is not in the catalog yet.
func (s *Session) pkField(collection, fallback string) string {
	metrics.CatalogProbes.WithLabelValues("primary_key").Inc()
	if pk, ok := s.cat.PrimaryKey(collection); ok {
		return pk.Field
	}
	return fallback
}

// Proposal bookkeeping. Every rule retracts the origins it owns before
// re-adding, keeping derivation idempotent within a pass.

func (s *Session) dropCollectionProposals(origins ...CollectionOrigin) {
	kept := s.newCollections[:0]
	for _, p := range s.newCollections {
		owned := false
		for _, o := range origins {
			if p.Origin == o {
				owned = true
				break
			}
		}
		if !owned {
			kept = append(kept, p)
		}
	}
	s.newCollections = kept
}

func (s *Session) proposeCollection(p CollectionProposal) {
	s.newCollections = append(s.newCollections, p)
}

func (s *Session) proposeField(p FieldProposal) {
	s.newFields = append(s.newFields, p)
}

// generateJunctionName wraps GenerateJunctionName with probe counting.
func (s *Session) generateJunctionName(a, b string) (string, error) {
	return GenerateJunctionName(countingCatalog{s.cat}, a, b)
}

// countingCatalog forwards to the real catalog while counting probes.
type countingCatalog struct {
	inner catalog.Catalog
}

func (c countingCatalog) CollectionExists(name string) bool {
	metrics.CatalogProbes.WithLabelValues("collection_exists").Inc()
	return c.inner.CollectionExists(name)
}

func (c countingCatalog) FieldExists(collection, field string) bool {
	metrics.CatalogProbes.WithLabelValues("field_exists").Inc()
	return c.inner.FieldExists(collection, field)
}

func (c countingCatalog) PrimaryKey(collection string) (catalog.PrimaryKey, bool) {
	metrics.CatalogProbes.WithLabelValues("primary_key").Inc()
	return c.inner.PrimaryKey(collection)
}

func (c countingCatalog) Field(collection, field string) (schema.FieldRecord, bool) {
	return c.inner.Field(collection, field)
}

func (c countingCatalog) RelationsForField(collection, field string) []schema.RelationRecord {
	return c.inner.RelationsForField(collection, field)
}

func (s *Session) dropFieldProposals(origins ...FieldOrigin) {
	kept := s.newFields[:0]
	for _, p := range s.newFields {
		owned := false
		for _, o := range origins {
			if p.Origin == o {
				owned = true
				break
			}
		}
		if !owned {
			kept = append(kept, p)
		}
	}
	s.newFields = kept
}
