package relation

import "github.com/faciam-dev/gcrb/pkg/schema"

// junctionStrategy covers the three categories realized through a junction
// collection holding two foreign keys: generic many-to-many, file galleries
// and translation sets. Relations: index 0 is the junction column pointing
// back at the current collection, index 1 the column pointing at the related
// side.
type junctionStrategy struct {
	category Category
}

func (j junctionStrategy) init(s *Session) {
	if s.isExisting {
		return
	}
	s.field.Type = nil
	s.field.Schema = nil
	s.field.Meta.Special = []string{string(j.category)}
	related := ""
	switch j.category {
	case CategoryFiles:
		related = s.opts.FilesCollection
	case CategoryTranslations:
		related = s.opts.LanguagesCollection
	}
	s.relations = []schema.RelationRecord{
		{RelatedCollection: s.collection},
		{RelatedCollection: related},
	}
	s.autoFill = true
}

func (j junctionStrategy) rules() []rule {
	return []rule{
		mirrorOneField(string(j.category) + "-mirror-one-field"),
		{
			name: "junction-autofill",
			deps: []path{
				pathFieldName,
				relPath(1, "related_collection"),
				pathAutoFill,
			},
			debounced:    true,
			creationOnly: true,
			run:          func(s *Session) { j.autofill(s) },
		},
		junctionLinks(),
		{
			name: "junction-sync",
			deps: []path{
				relPath(0, "collection"),
				relPath(0, "field"),
				relPath(1, "field"),
				relPath(1, "related_collection"),
				relPath(0, "sort_field"),
			},
			debounced:    true,
			creationOnly: true,
			run:          func(s *Session) { j.sync(s) },
		},
	}
}

// autofill names the junction collection and its two columns. Generic m2m
// and files junctions are named after the two collections they join;
// translation junctions after the field, since their related side is always
// the language collection.
func (j junctionStrategy) autofill(s *Session) {
	if !s.autoFill {
		return
	}
	rc := s.relations[1].RelatedCollection
	base := rc
	if j.category == CategoryTranslations {
		base = s.field.Field
	}
	if rc == "" || base == "" {
		return
	}
	jc, err := s.generateJunctionName(s.collection, base)
	if err != nil {
		s.log.Error("junction name", "err", err)
		return
	}
	s.relations[0].Collection = jc
	s.relations[1].Collection = jc
	s.touch(relPath(0, "collection"))
	s.touch(relPath(1, "collection"))
	cur := SanitizeName(s.collection) + "_id"
	var rel string
	if j.category == CategoryTranslations {
		rel = SanitizeName(rc) + "_" + s.pkField(rc, "code")
	} else {
		rel = SanitizeName(rc) + "_id"
	}
	if rel == cur {
		rel = SanitizeName(rc) + "_related_id"
	}
	s.relations[0].Field = cur
	s.relations[1].Field = rel
	s.touch(relPath(0, "field"))
	s.touch(relPath(1, "field"))
}

// sync recomputes every proposal the junction family owns. Clearing precedes
// re-adding so observers never see a transient duplicate.
func (j junctionStrategy) sync(s *Session) {
	s.dropCollectionProposals(CollectionJunction, CollectionRelated)
	s.dropFieldProposals(FieldManyCurrent, FieldManyRelated, FieldSort)
	s.seeds = map[string][]SeedRow{}

	rc := s.relations[1].RelatedCollection
	relatedNew := false
	if rc != "" && j.category != CategoryFiles && !s.collectionExists(rc) {
		relatedNew = true
		if j.category == CategoryTranslations {
			s.proposeCollection(CollectionProposal{
				Origin:     CollectionRelated,
				Collection: rc,
				Fields:     languageCollectionFields(rc),
			})
			s.seeds[rc] = starterLocales()
		} else {
			s.proposeCollection(CollectionProposal{
				Origin:     CollectionRelated,
				Collection: rc,
				Fields:     []schema.FieldRecord{autoIncrementPK(rc)},
			})
		}
	}

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
	if rel := s.relations[1].Field; rel != "" && (junctionNew || !s.fieldExists(jc, rel)) {
		s.proposeField(FieldProposal{
			Origin: FieldManyRelated,
			Field:  foreignKeyField(jc, rel, j.relatedKeyType(s, rc, relatedNew)),
		})
	}
	if sf := s.relations[0].Meta.SortField; sf != "" && (junctionNew || !s.fieldExists(jc, sf)) {
		s.proposeField(FieldProposal{
			Origin: FieldSort,
			Field:  foreignKeyField(jc, sf, schema.TypeInteger),
		})
	}
}

// relatedKeyType picks the type of the junction column pointing at the
// related side. Translations always key by locale code; a not-yet-existing
// related collection gets the integer key its generated primary key will
// have.
func (j junctionStrategy) relatedKeyType(s *Session, rc string, relatedNew bool) schema.Type {
	switch j.category {
	case CategoryTranslations:
		return schema.TypeString
	case CategoryFiles:
		return s.pkType(rc, schema.TypeUUID)
	default:
		if rc == "" || relatedNew {
			return schema.TypeInteger
		}
		return s.pkType(rc, schema.TypeInteger)
	}
}

// mirrorOneField propagates the field name into the reverse alias of the
// current-side relation.
func mirrorOneField(name string) rule {
	return rule{
		name: name,
		deps: []path{pathFieldName},
		run: func(s *Session) {
			if len(s.relations) == 0 {
				return
			}
			s.relations[0].Meta.OneField = s.field.Field
		},
	}
}

// junctionLinks keeps the two junction columns distinct and their
// junction_field cross references consistent.
func junctionLinks() rule {
	return rule{
		name: "junction-links",
		deps: []path{relPath(0, "field"), relPath(1, "field")},
		run: func(s *Session) {
			if len(s.relations) < 2 {
				return
			}
			cur, rel := s.relations[0].Field, s.relations[1].Field
			if cur != "" && cur == rel {
				base := s.relations[1].RelatedCollection
				if base == "" {
					base = s.collection
				}
				rel = SanitizeName(base) + "_related_id"
				s.relations[1].Field = rel
				s.touch(relPath(1, "field"))
			}
			s.relations[0].Meta.JunctionField = rel
			s.relations[1].Meta.JunctionField = cur
		},
	}
}
