package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// o2mStrategy: the field is a reverse alias; the foreign key lives on the
// related ("many") collection and points back at the current one.
type o2mStrategy struct{}

func (o2mStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = nil
	s.field.Schema = nil
	s.field.Meta.Special = []string{"o2m"}
	s.relations = []schema.RelationRecord{{RelatedCollection: s.collection}}
}

func (o2mStrategy) rules() []rule {
	return []rule{
		{
			name: "o2m-mirror-one-field",
			deps: []path{pathFieldName},
			run: func(s *Session) {
				if len(s.relations) == 0 {
					return
				}
				s.relations[0].Meta.OneField = s.field.Field
			},
		},
		{
			name: "o2m-related-sync",
			deps: []path{
				relPath(0, "collection"),
				relPath(0, "field"),
				relPath(0, "sort_field"),
			},
			debounced:    true,
			creationOnly: true,
			run: func(s *Session) {
				s.dropCollectionProposals(CollectionRelated)
				s.dropFieldProposals(FieldManyRelated, FieldSort)
				rel := &s.relations[0]
				if rel.Collection == "" {
					return
				}
				collectionNew := !s.collectionExists(rel.Collection)
				if collectionNew {
					s.proposeCollection(CollectionProposal{
						Origin:     CollectionRelated,
						Collection: rel.Collection,
						Fields:     []schema.FieldRecord{autoIncrementPK(rel.Collection)},
					})
				}
				if rel.Field != "" && (collectionNew || !s.fieldExists(rel.Collection, rel.Field)) {
					// The foreign key holds this collection's primary keys.
					fkType := s.pkType(s.collection, schema.TypeInteger)
					s.proposeField(FieldProposal{
						Origin: FieldManyRelated,
						Field:  foreignKeyField(rel.Collection, rel.Field, fkType),
					})
				}
				if sf := rel.Meta.SortField; sf != "" && (collectionNew || !s.fieldExists(rel.Collection, sf)) {
					s.proposeField(FieldProposal{
						Origin: FieldSort,
						Field:  foreignKeyField(rel.Collection, sf, schema.TypeInteger),
					})
				}
			},
		},
	}
}
