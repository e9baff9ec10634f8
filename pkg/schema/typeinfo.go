package schema

import "strings"

// GuessType maps a physical SQL data_type to the logical Type vocabulary.
func GuessType(dataType string) Type {
	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case "varchar", "character varying", "char", "character", "bpchar":
		return TypeString
	case "text", "tinytext", "mediumtext", "longtext":
		return TypeText
	case "uuid":
		return TypeUUID
	case "int", "integer", "int4", "int2", "smallint", "mediumint", "tinyint":
		return TypeInteger
	case "bigint", "int8":
		return TypeBigInteger
	case "decimal", "numeric", "number":
		return TypeDecimal
	case "double", "double precision", "float", "float4", "float8", "real":
		return TypeFloat
	case "boolean", "bool":
		return TypeBoolean
	case "date":
		return TypeDate
	case "time", "time without time zone", "time with time zone":
		return TypeTime
	case "datetime", "timestamp without time zone":
		return TypeDateTime
	case "timestamp", "timestamp with time zone", "timestamptz":
		return TypeTimestamp
	case "json", "jsonb":
		return TypeJSON
	case "bytea", "blob", "binary", "varbinary":
		return TypeBinary
	default:
		return TypeString
	}
}

// HasColumn reports whether fields of type t are backed by a real column.
// Alias types (relational o2m/m2m/m2a/presentation fields) are represented
// by a nil *Type instead.
func HasColumn(t *Type) bool { return t != nil }
