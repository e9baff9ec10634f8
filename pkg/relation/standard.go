package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// standardStrategy covers plain scalar fields. No relations are involved;
// the one rule resets presentation metadata and column defaults whenever the
// storage type changes.
type standardStrategy struct{}

func (standardStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = schema.TypePtr(schema.TypeString)
	s.field.Schema = &schema.FieldSchema{Nullable: true}
}

func (standardStrategy) rules() []rule {
	return []rule{
		{
			name: "standard-type-reset",
			deps: []path{pathFieldType},
			run: func(s *Session) {
				if s.field.Type == nil {
					return
				}
				m := &s.field.Meta
				m.Interface = ""
				m.Options = nil
				m.Display = ""
				m.DisplayOptions = nil
				m.Special = nil
				sc := s.field.Schema
				if sc == nil {
					return
				}
				sc.HasDefault = false
				sc.Default = nil
				sc.MaxLength = nil
				sc.Precision = nil
				sc.Scale = nil
				sc.Nullable = true
				switch *s.field.Type {
				case schema.TypeBoolean:
					f := "false"
					sc.HasDefault = true
					sc.Default = &f
					sc.Nullable = false
				case schema.TypeUUID:
					m.Special = []string{"uuid"}
				case schema.TypeHash:
					m.Special = []string{"hash"}
				case schema.TypeJSON:
					m.Special = []string{"json"}
				case schema.TypeCSV:
					m.Special = []string{"csv"}
				}
			},
		},
	}
}

// presentationStrategy covers purely decorative fields: no storage, no
// relations, nothing derived.
type presentationStrategy struct{}

func (presentationStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = nil
	s.field.Schema = nil
	s.field.Meta.Special = []string{"alias", "no-data"}
}

func (presentationStrategy) rules() []rule { return nil }
