package sdk

import (
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

// DeriveInput describes one field derivation request.
type DeriveInput struct {
	Collection string
	// Field is the existing field to load, or empty for a new field.
	Field    string
	Category relation.Category

	// Optional inputs applied after the session opens, in this order.
	FieldName          string
	FieldType          schema.Type
	Note               string
	RelatedCollection  string
	ManyCollection     string
	ManyField          string
	SortField          string
	JunctionCollection string
	AllowedCollections []string
	CollectionField    string
}

// DeriveResult is the settled output of a derivation.
type DeriveResult struct {
	Field          relation.FieldDraft           `json:"field"`
	Relations      []schema.RelationRecord       `json:"relations"`
	NewCollections []relation.CollectionProposal `json:"newCollections,omitempty"`
	NewFields      []relation.FieldProposal      `json:"newFields,omitempty"`
	Seeds          map[string][]relation.SeedRow `json:"seeds,omitempty"`
	Items          []relation.CreationItem       `json:"items,omitempty"`
	// Err is the validation error message, empty when the state is complete.
	Err string `json:"error,omitempty"`
}
