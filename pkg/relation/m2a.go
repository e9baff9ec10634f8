package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// m2aStrategy covers polymorphic many-to-any fields. The junction keeps a
// string item key (it must hold primary keys of heterogeneous collections)
// plus a discriminator column recording which collection each row points at.
type m2aStrategy struct{}

func (m2aStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = nil
	s.field.Schema = nil
	s.field.Meta.Special = []string{"m2a"}
	s.relations = []schema.RelationRecord{
		{RelatedCollection: s.collection},
		{Field: "item", Meta: schema.RelationMeta{OneCollectionField: "collection"}},
	}
	s.autoFill = true
}

func (m2aStrategy) rules() []rule {
	return []rule{
		mirrorOneField("m2a-mirror-one-field"),
		{
			name: "m2a-autofill",
			deps: []path{
				pathFieldName,
				pathAutoFill,
			},
			debounced:    true,
			creationOnly: true,
			run: func(s *Session) {
				if !s.autoFill || s.field.Field == "" {
					return
				}
				// No single related side exists, so the junction takes its
				// name from the field itself.
				jc, err := s.generateJunctionName(s.collection, s.field.Field)
				if err != nil {
					s.log.Error("junction name", "err", err)
					return
				}
				s.relations[0].Collection = jc
				s.relations[1].Collection = jc
				s.touch(relPath(0, "collection"))
				s.touch(relPath(1, "collection"))
				s.relations[0].Field = SanitizeName(s.collection) + "_id"
				s.touch(relPath(0, "field"))
			},
		},
		junctionLinks(),
		{
			name: "m2a-sync",
			deps: []path{
				relPath(0, "collection"),
				relPath(0, "field"),
				relPath(1, "field"),
				relPath(1, "one_collection_field"),
				relPath(0, "sort_field"),
			},
			debounced:    true,
			creationOnly: true,
			run: func(s *Session) {
				s.dropCollectionProposals(CollectionJunction)
				s.dropFieldProposals(FieldManyCurrent, FieldManyRelated, FieldCollectionKey, FieldSort)
				jc := s.relations[0].Collection
				if jc == "" {
					return
				}
				junctionNew := !s.collectionExists(jc)
				if junctionNew {
					s.proposeCollection(CollectionProposal{
						Origin:     CollectionJunction,
						Collection: jc,
						Fields:     []schema.FieldRecord{autoIncrementPK(jc)},
					})
				}
				if cur := s.relations[0].Field; cur != "" && (junctionNew || !s.fieldExists(jc, cur)) {
					s.proposeField(FieldProposal{
						Origin: FieldManyCurrent,
						Field:  foreignKeyField(jc, cur, s.pkType(s.collection, schema.TypeInteger)),
					})
				}
				// Item keys reference heterogeneous collections; only string
				// can hold them all.
				if item := s.relations[1].Field; item != "" && (junctionNew || !s.fieldExists(jc, item)) {
					s.proposeField(FieldProposal{
						Origin: FieldManyRelated,
						Field:  foreignKeyField(jc, item, schema.TypeString),
					})
				}
				if ckf := s.relations[1].Meta.OneCollectionField; ckf != "" && (junctionNew || !s.fieldExists(jc, ckf)) {
					s.proposeField(FieldProposal{
						Origin: FieldCollectionKey,
						Field:  foreignKeyField(jc, ckf, schema.TypeString),
					})
				}
				if sf := s.relations[0].Meta.SortField; sf != "" && (junctionNew || !s.fieldExists(jc, sf)) {
					s.proposeField(FieldProposal{
						Origin: FieldSort,
						Field:  foreignKeyField(jc, sf, schema.TypeInteger),
					})
				}
			},
		},
	}
}
