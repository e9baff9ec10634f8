// Package catalog provides read access to the live schema: which collections
// and fields exist, their primary keys, and the relations between them. The
// derivation engine treats it as a cheap in-memory snapshot; loaders in
// internal/driver build snapshots from a real database.
package catalog

import "github.com/faciam-dev/gcrb/pkg/schema"

// PrimaryKey identifies the primary key column of a collection.
type PrimaryKey struct {
	Field string      `json:"field" yaml:"field"`
	Type  schema.Type `json:"type" yaml:"type"`
}

// Catalog is the read interface consumed by the derivation engine. All
// methods are total functions over an in-memory snapshot.
type Catalog interface {
	CollectionExists(name string) bool
	FieldExists(collection, field string) bool
	// PrimaryKey returns the primary key of the collection, or ok=false when
	// the collection is unknown or has no primary key.
	PrimaryKey(collection string) (PrimaryKey, bool)
	// Field returns the stored definition of an existing field.
	Field(collection, field string) (schema.FieldRecord, bool)
	// RelationsForField returns every relation record that involves the given
	// field, on either side of the relationship.
	RelationsForField(collection, field string) []schema.RelationRecord
}
