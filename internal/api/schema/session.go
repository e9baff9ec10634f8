package schema

import (
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

// OpenSession is the request body for creating a derivation session.
type OpenSession struct {
	Category   string `json:"category" example:"m2m" doc:"Relationship category"`
	Collection string `json:"collection" example:"articles" doc:"Collection the field is defined on"`
	Field      string `json:"field,omitempty" example:"+" doc:"Existing field name, or + for a new field"`
}

// SessionPatch carries the editable inputs of a session. Only non-nil
// members are applied, in declaration order.
type SessionPatch struct {
	FieldName            *string  `json:"fieldName,omitempty"`
	FieldType            *string  `json:"fieldType,omitempty"`
	Note                 *string  `json:"note,omitempty"`
	RelatedCollection    *string  `json:"relatedCollection,omitempty"`
	ManyCollection       *string  `json:"manyCollection,omitempty"`
	ManyField            *string  `json:"manyField,omitempty"`
	SortField            *string  `json:"sortField,omitempty"`
	JunctionCollection   *string  `json:"junctionCollection,omitempty"`
	JunctionCurrentField *string  `json:"junctionCurrentField,omitempty"`
	JunctionRelatedField *string  `json:"junctionRelatedField,omitempty"`
	AllowedCollections   []string `json:"allowedCollections,omitempty"`
	CollectionField      *string  `json:"collectionField,omitempty"`
	AutoFill             *bool    `json:"autoFill,omitempty"`
}

// SessionState is the full derived state of a session as seen by clients.
type SessionState struct {
	ID             string                        `json:"id"`
	Category       string                        `json:"category"`
	Collection     string                        `json:"collection"`
	Existing       bool                          `json:"existing"`
	AutoFill       bool                          `json:"autoFill"`
	Field          relation.FieldDraft           `json:"field"`
	Relations      []schema.RelationRecord       `json:"relations"`
	NewCollections []relation.CollectionProposal `json:"newCollections,omitempty"`
	NewFields      []relation.FieldProposal      `json:"newFields,omitempty"`
	Seeds          map[string][]relation.SeedRow `json:"seeds,omitempty"`
}

// Summary lists what committing the session would create.
type Summary struct {
	Items []relation.CreationItem `json:"items"`
	Valid bool                    `json:"valid"`
	Error string                  `json:"error,omitempty"`
}
