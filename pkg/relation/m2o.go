package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// fileStrategy is a many-to-one against the files collection with the key
// type pinned to uuid.
type fileStrategy struct{}

func (fileStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = schema.TypePtr(schema.TypeUUID)
	s.field.Schema = &schema.FieldSchema{Nullable: true}
	s.field.Meta.Special = []string{"file"}
	s.relations = []schema.RelationRecord{{
		Collection:        s.collection,
		RelatedCollection: s.opts.FilesCollection,
	}}
}

func (fileStrategy) rules() []rule {
	return []rule{mirrorFieldIntoRelation("file-mirror-field")}
}

// m2oStrategy: the field itself is the foreign key column, so its type must
// track the primary key of whatever collection it points at.
type m2oStrategy struct{}

func (m2oStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = schema.TypePtr(schema.TypeInteger)
	s.field.Schema = &schema.FieldSchema{Nullable: true}
	s.field.Meta.Special = []string{"m2o"}
	s.relations = []schema.RelationRecord{{Collection: s.collection}}
}

func (m2oStrategy) rules() []rule {
	return []rule{
		mirrorFieldIntoRelation("m2o-mirror-field"),
		{
			name:         "m2o-target-sync",
			deps:         []path{relPath(0, "related_collection")},
			debounced:    true,
			creationOnly: true,
			run: func(s *Session) {
				s.dropCollectionProposals(CollectionRelated)
				rc := s.relations[0].RelatedCollection
				if rc == "" {
					s.field.Type = schema.TypePtr(schema.TypeInteger)
					return
				}
				if s.collectionExists(rc) {
					s.field.Type = schema.TypePtr(s.pkType(rc, schema.TypeInteger))
					return
				}
				// Target does not exist yet: default the key type and propose
				// the collection. The rule re-fires and corrects the type once
				// the target is created or a different one is chosen.
				s.field.Type = schema.TypePtr(schema.TypeInteger)
				s.proposeCollection(CollectionProposal{
					Origin:     CollectionRelated,
					Collection: rc,
					Fields:     []schema.FieldRecord{autoIncrementPK(rc)},
				})
			},
		},
	}
}

// mirrorFieldIntoRelation propagates the field name into the relation's
// foreign key column. One-way on purpose: the reverse direction would fight
// user edits.
func mirrorFieldIntoRelation(name string) rule {
	return rule{
		name: name,
		deps: []path{pathFieldName},
		run: func(s *Session) {
			if len(s.relations) == 0 {
				return
			}
			s.relations[0].Field = s.field.Field
			s.touch(relPath(0, "field"))
		},
	}
}
