package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// languageCollectionFields returns the initial fields of a generated
// language collection: a string code as primary key plus a display name.
func languageCollectionFields(collection string) []schema.FieldRecord {
	return []schema.FieldRecord{
		{
			Collection: collection,
			Field:      "code",
			Type:       schema.TypePtr(schema.TypeString),
			Schema:     &schema.FieldSchema{IsPrimaryKey: true},
		},
		{
			Collection: collection,
			Field:      "name",
			Type:       schema.TypePtr(schema.TypeString),
			Schema:     &schema.FieldSchema{Nullable: true},
		},
	}
}

// starterLocales returns the rows seeded into a freshly generated language
// collection.
func starterLocales() []SeedRow {
	return []SeedRow{
		{"code": "en-US", "name": "English"},
		{"code": "de-DE", "name": "German"},
		{"code": "fr-FR", "name": "French"},
		{"code": "ru-RU", "name": "Russian"},
		{"code": "es-ES", "name": "Spanish"},
		{"code": "it-IT", "name": "Italian"},
		{"code": "pt-BR", "name": "Portuguese"},
	}
}
