package schema

// Type is the logical scalar type vocabulary shared by the catalog, the
// derivation engine and the drivers. Physical database types are mapped to
// these via GuessType.
type Type string

const (
	TypeString     Type = "string"
	TypeText       Type = "text"
	TypeInteger    Type = "integer"
	TypeBigInteger Type = "bigInteger"
	TypeFloat      Type = "float"
	TypeDecimal    Type = "decimal"
	TypeBoolean    Type = "boolean"
	TypeUUID       Type = "uuid"
	TypeHash       Type = "hash"
	TypeJSON       Type = "json"
	TypeCSV        Type = "csv"
	TypeDate       Type = "date"
	TypeTime       Type = "time"
	TypeDateTime   Type = "dateTime"
	TypeTimestamp  Type = "timestamp"
	TypeBinary     Type = "binary"
)

// FieldSchema describes the column backing a field. Relational alias fields
// carry no FieldSchema at all.
type FieldSchema struct {
	Nullable         bool    `json:"nullable" yaml:"nullable"`
	Unique           bool    `json:"unique,omitempty" yaml:"unique,omitempty"`
	HasDefault       bool    `json:"has_default,omitempty" yaml:"has_default,omitempty"`
	Default          *string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	MaxLength        *int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Precision        *int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale            *int    `json:"scale,omitempty" yaml:"scale,omitempty"`
	IsPrimaryKey     bool    `json:"is_primary_key,omitempty" yaml:"is_primary_key,omitempty"`
	HasAutoIncrement bool    `json:"has_auto_increment,omitempty" yaml:"has_auto_increment,omitempty"`
}

// FieldMeta holds presentation metadata for a field.
type FieldMeta struct {
	Interface      string         `json:"interface,omitempty" yaml:"interface,omitempty"`
	Options        map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	Display        string         `json:"display,omitempty" yaml:"display,omitempty"`
	DisplayOptions map[string]any `json:"display_options,omitempty" yaml:"display_options,omitempty"`
	Special        []string       `json:"special,omitempty" yaml:"special,omitempty"`
	Readonly       bool           `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Hidden         bool           `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Note           string         `json:"note,omitempty" yaml:"note,omitempty"`
}

// FieldRecord is a field as stored in the catalog. Type is nil for alias
// fields that have no backing column.
type FieldRecord struct {
	Collection string       `json:"collection" yaml:"collection"`
	Field      string       `json:"field" yaml:"field"`
	Type       *Type        `json:"type,omitempty" yaml:"type,omitempty"`
	Schema     *FieldSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
	Meta       *FieldMeta   `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// RelationMeta carries the optional endpoint metadata of a relation.
type RelationMeta struct {
	OneField              string   `json:"one_field,omitempty" yaml:"one_field,omitempty"`
	SortField             string   `json:"sort_field,omitempty" yaml:"sort_field,omitempty"`
	JunctionField         string   `json:"junction_field,omitempty" yaml:"junction_field,omitempty"`
	OneAllowedCollections []string `json:"one_allowed_collections,omitempty" yaml:"one_allowed_collections,omitempty"`
	OneCollectionField    string   `json:"one_collection_field,omitempty" yaml:"one_collection_field,omitempty"`
}

// RelationRecord is one endpoint of a relationship: Collection.Field holds
// keys of RelatedCollection. Polymorphic relations leave RelatedCollection
// empty and list the candidates in Meta.OneAllowedCollections.
type RelationRecord struct {
	Collection        string       `json:"collection" yaml:"collection"`
	Field             string       `json:"field" yaml:"field"`
	RelatedCollection string       `json:"related_collection,omitempty" yaml:"related_collection,omitempty"`
	Meta              RelationMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// TypePtr returns a pointer to t. Convenience for literal FieldRecords.
func TypePtr(t Type) *Type { return &t }
