package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// FieldDraft is the field under construction. Type and Schema are nil for
// relational alias categories (o2m, m2m, m2a, translations, presentation).
type FieldDraft struct {
	Collection string              `json:"collection"`
	Field      string              `json:"field"`
	Type       *schema.Type        `json:"type,omitempty"`
	Schema     *schema.FieldSchema `json:"schema,omitempty"`
	Meta       schema.FieldMeta    `json:"meta"`
}

// CollectionOrigin tags a proposed collection with the rule family that owns
// it, so a recompute pass can retract exactly its own proposals.
type CollectionOrigin string

const (
	// CollectionJunction marks an auto-created junction collection.
	CollectionJunction CollectionOrigin = "junction"
	// CollectionRelated marks an auto-created related collection.
	CollectionRelated CollectionOrigin = "related"
)

// FieldOrigin tags a proposed field by its role in the relationship.
type FieldOrigin string

const (
	// FieldManyCurrent is the junction foreign key pointing at the current
	// collection.
	FieldManyCurrent FieldOrigin = "manyCurrent"
	// FieldManyRelated is the foreign key pointing at the related collection
	// (or holding the polymorphic item key for m2a).
	FieldManyRelated FieldOrigin = "manyRelated"
	// FieldSort is an auto-created sort column.
	FieldSort FieldOrigin = "sort"
	// FieldCollectionKey is the m2a discriminator column naming the
	// collection each junction row points at.
	FieldCollectionKey FieldOrigin = "collectionField"
)

// CollectionProposal is a collection the engine determined must be created,
// with its initial fields (typically just the primary key).
type CollectionProposal struct {
	Origin     CollectionOrigin     `json:"origin"`
	Collection string               `json:"collection"`
	Fields     []schema.FieldRecord `json:"fields"`
}

// FieldProposal is a field the engine determined must be created on a
// (possibly also proposed) collection.
type FieldProposal struct {
	Origin FieldOrigin        `json:"origin"`
	Field  schema.FieldRecord `json:"field"`
}

// SeedRow is one literal row to insert once its collection exists.
type SeedRow map[string]any

// autoIncrementPK returns the canonical integer auto-increment primary key
// record used for generated collections.
func autoIncrementPK(collection string) schema.FieldRecord {
	return schema.FieldRecord{
		Collection: collection,
		Field:      "id",
		Type:       schema.TypePtr(schema.TypeInteger),
		Schema:     &schema.FieldSchema{IsPrimaryKey: true, HasAutoIncrement: true},
	}
}

// foreignKeyField returns a plain foreign key column record.
func foreignKeyField(collection, field string, typ schema.Type) schema.FieldRecord {
	return schema.FieldRecord{
		Collection: collection,
		Field:      field,
		Type:       schema.TypePtr(typ),
		Schema:     &schema.FieldSchema{Nullable: true},
		Meta:       &schema.FieldMeta{Hidden: true},
	}
}

func copyFieldDraft(d FieldDraft) FieldDraft {
	out := d
	if d.Type != nil {
		t := *d.Type
		out.Type = &t
	}
	if d.Schema != nil {
		sc := *d.Schema
		out.Schema = &sc
	}
	out.Meta = copyFieldMeta(d.Meta)
	return out
}

func copyFieldMeta(m schema.FieldMeta) schema.FieldMeta {
	out := m
	if m.Special != nil {
		out.Special = append([]string(nil), m.Special...)
	}
	if m.Options != nil {
		out.Options = make(map[string]any, len(m.Options))
		for k, v := range m.Options {
			out.Options[k] = v
		}
	}
	if m.DisplayOptions != nil {
		out.DisplayOptions = make(map[string]any, len(m.DisplayOptions))
		for k, v := range m.DisplayOptions {
			out.DisplayOptions[k] = v
		}
	}
	return out
}

func copyRelations(rels []schema.RelationRecord) []schema.RelationRecord {
	out := make([]schema.RelationRecord, len(rels))
	for i, r := range rels {
		out[i] = r
		if r.Meta.OneAllowedCollections != nil {
			out[i].Meta.OneAllowedCollections = append([]string(nil), r.Meta.OneAllowedCollections...)
		}
	}
	return out
}
