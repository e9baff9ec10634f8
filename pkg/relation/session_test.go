package relation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

func testSnapshot() *catalog.Snapshot {
	snap := catalog.NewSnapshot()
	snap.AddCollection("articles",
		schema.FieldRecord{Field: "id", Type: schema.TypePtr(schema.TypeInteger), Schema: &schema.FieldSchema{IsPrimaryKey: true, HasAutoIncrement: true}},
		schema.FieldRecord{Field: "title", Type: schema.TypePtr(schema.TypeString), Schema: &schema.FieldSchema{Nullable: true}},
	)
	snap.AddCollection("authors",
		schema.FieldRecord{Field: "id", Type: schema.TypePtr(schema.TypeUUID), Schema: &schema.FieldSchema{IsPrimaryKey: true}},
		schema.FieldRecord{Field: "name", Type: schema.TypePtr(schema.TypeString), Schema: &schema.FieldSchema{Nullable: true}},
	)
	snap.AddCollection("tags",
		schema.FieldRecord{Field: "id", Type: schema.TypePtr(schema.TypeInteger), Schema: &schema.FieldSchema{IsPrimaryKey: true, HasAutoIncrement: true}},
	)
	snap.AddCollection("files",
		schema.FieldRecord{Field: "id", Type: schema.TypePtr(schema.TypeUUID), Schema: &schema.FieldSchema{IsPrimaryKey: true}},
	)
	return snap
}

func open(t *testing.T, snap *catalog.Snapshot, collection, field string, cat Category) *Session {
	t.Helper()
	s, err := Open(snap, collection, field, cat, Options{Debounce: DebounceDisabled})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStandardTypeReset(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryStandard)
	if err := s.SetFieldName("published"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetFieldType(schema.TypeBoolean); err != nil {
		t.Fatalf("type: %v", err)
	}
	f := s.Field()
	if f.Schema == nil || !f.Schema.HasDefault || f.Schema.Default == nil || *f.Schema.Default != "false" {
		t.Fatalf("boolean default not applied: %+v", f.Schema)
	}
	if f.Schema.Nullable {
		t.Fatalf("boolean must not be nullable")
	}

	if err := s.SetFieldType(schema.TypeUUID); err != nil {
		t.Fatalf("type: %v", err)
	}
	f = s.Field()
	if diff := cmp.Diff([]string{"uuid"}, f.Meta.Special); diff != "" {
		t.Fatalf("special (-want +got)\n%s", diff)
	}
	if f.Schema.HasDefault || f.Schema.Default != nil {
		t.Fatalf("default not reset on type change: %+v", f.Schema)
	}
}

func TestPresentationShape(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryPresentation)
	if err := s.SetFieldName("divider"); err != nil {
		t.Fatalf("name: %v", err)
	}
	f := s.Field()
	if f.Type != nil || f.Schema != nil {
		t.Fatalf("presentation field carries storage: %+v", f)
	}
	if diff := cmp.Diff([]string{"alias", "no-data"}, f.Meta.Special); diff != "" {
		t.Fatalf("special (-want +got)\n%s", diff)
	}
	if len(s.NewCollections()) != 0 || len(s.NewFields()) != 0 {
		t.Fatalf("presentation must not propose schema objects")
	}
}

func TestFileCategory(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryFile)
	if err := s.SetFieldName("cover"); err != nil {
		t.Fatalf("name: %v", err)
	}
	f := s.Field()
	if f.Type == nil || *f.Type != schema.TypeUUID {
		t.Fatalf("file field type = %v", f.Type)
	}
	rels := s.Relations()
	if len(rels) != 1 {
		t.Fatalf("relations = %d", len(rels))
	}
	if rels[0].Field != "cover" || rels[0].RelatedCollection != "files" {
		t.Fatalf("relation = %+v", rels[0])
	}
}

func TestM2OTypePropagation(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2O)
	if err := s.SetFieldName("author"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("authors"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if f := s.Field(); f.Type == nil || *f.Type != schema.TypeUUID {
		t.Fatalf("type = %v, want uuid", f.Type)
	}
	if n := len(s.NewCollections()); n != 0 {
		t.Fatalf("unexpected proposals: %d", n)
	}

	// A target that does not exist falls back to integer and gets proposed.
	if err := s.SetRelatedCollection("reviews"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if f := s.Field(); f.Type == nil || *f.Type != schema.TypeInteger {
		t.Fatalf("type = %v, want integer", f.Type)
	}
	cols := s.NewCollections()
	if len(cols) != 1 || cols[0].Origin != CollectionRelated || cols[0].Collection != "reviews" {
		t.Fatalf("proposals = %+v", cols)
	}

	// Switching back retracts the stale proposal.
	if err := s.SetRelatedCollection("authors"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if n := len(s.NewCollections()); n != 0 {
		t.Fatalf("stale proposal kept: %d", n)
	}
}

func TestO2MDerivation(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryO2M)
	if err := s.SetFieldName("comments"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetManyCollection("comments"); err != nil {
		t.Fatalf("many collection: %v", err)
	}
	rels := s.Relations()
	if rels[0].Meta.OneField != "comments" {
		t.Fatalf("one_field = %q", rels[0].Meta.OneField)
	}
	if rels[0].Field != "article_id" {
		t.Fatalf("suggested fk = %q", rels[0].Field)
	}
	if rels[0].RelatedCollection != "articles" {
		t.Fatalf("related = %q", rels[0].RelatedCollection)
	}
	cols := s.NewCollections()
	if len(cols) != 1 || cols[0].Collection != "comments" || cols[0].Origin != CollectionRelated {
		t.Fatalf("collections = %+v", cols)
	}
	flds := s.NewFields()
	if len(flds) != 1 || flds[0].Origin != FieldManyRelated {
		t.Fatalf("fields = %+v", flds)
	}
	if got := *flds[0].Field.Type; got != schema.TypeInteger {
		t.Fatalf("fk type = %v", got)
	}

	if err := s.SetSortField("sort"); err != nil {
		t.Fatalf("sort: %v", err)
	}
	flds = s.NewFields()
	if len(flds) != 2 || flds[1].Origin != FieldSort || flds[1].Field.Field != "sort" {
		t.Fatalf("fields = %+v", flds)
	}
}

func TestM2MDerivation(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2M)
	if err := s.SetFieldName("tags"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	rels := s.Relations()
	if rels[0].Collection != "articles_tags" || rels[1].Collection != "articles_tags" {
		t.Fatalf("junction = %q / %q", rels[0].Collection, rels[1].Collection)
	}
	if rels[0].Field != "articles_id" || rels[1].Field != "tags_id" {
		t.Fatalf("junction fields = %q / %q", rels[0].Field, rels[1].Field)
	}
	if rels[0].Meta.JunctionField != "tags_id" || rels[1].Meta.JunctionField != "articles_id" {
		t.Fatalf("junction links = %+v", rels)
	}
	cols := s.NewCollections()
	if len(cols) != 1 || cols[0].Origin != CollectionJunction {
		t.Fatalf("collections = %+v", cols)
	}
	byOrigin := map[FieldOrigin]schema.FieldRecord{}
	for _, f := range s.NewFields() {
		byOrigin[f.Origin] = f.Field
	}
	if got := *byOrigin[FieldManyCurrent].Type; got != schema.TypeInteger {
		t.Fatalf("current fk type = %v", got)
	}
	if got := *byOrigin[FieldManyRelated].Type; got != schema.TypeInteger {
		t.Fatalf("related fk type = %v", got)
	}
}

func TestM2MSelfCollision(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2M)
	if err := s.SetFieldName("related_articles"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("articles"); err != nil {
		t.Fatalf("related: %v", err)
	}
	rels := s.Relations()
	if rels[0].Field != "articles_id" {
		t.Fatalf("current fk = %q", rels[0].Field)
	}
	if rels[1].Field != "articles_related_id" {
		t.Fatalf("related fk = %q", rels[1].Field)
	}
	if rels[0].Field == rels[1].Field {
		t.Fatalf("junction fields coincide")
	}
}

func TestM2MJunctionNameCollision(t *testing.T) {
	snap := testSnapshot()
	snap.AddCollection("articles_tags")
	s := open(t, snap, "articles", NewField, CategoryM2M)
	if err := s.SetFieldName("tags"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if got := s.Relations()[0].Collection; got != "articles_tags_1" {
		t.Fatalf("junction = %q", got)
	}
}

func TestTranslationsScaffold(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryTranslations)
	if err := s.SetFieldName("translations"); err != nil {
		t.Fatalf("name: %v", err)
	}
	rels := s.Relations()
	if rels[0].Collection != "articles_translations" {
		t.Fatalf("junction = %q", rels[0].Collection)
	}
	if rels[1].RelatedCollection != "languages" {
		t.Fatalf("related = %q", rels[1].RelatedCollection)
	}
	if rels[1].Field != "languages_code" {
		t.Fatalf("related fk = %q", rels[1].Field)
	}

	byName := map[string]CollectionProposal{}
	for _, c := range s.NewCollections() {
		byName[c.Collection] = c
	}
	junction, ok := byName["articles_translations"]
	if !ok || junction.Origin != CollectionJunction {
		t.Fatalf("junction proposal missing: %+v", byName)
	}
	if pk := junction.Fields[0]; !pk.Schema.HasAutoIncrement || *pk.Type != schema.TypeInteger {
		t.Fatalf("junction pk = %+v", pk)
	}
	langs, ok := byName["languages"]
	if !ok || langs.Origin != CollectionRelated {
		t.Fatalf("languages proposal missing: %+v", byName)
	}
	if code := langs.Fields[0]; !code.Schema.IsPrimaryKey || *code.Type != schema.TypeString {
		t.Fatalf("languages pk = %+v", code)
	}
	if name := langs.Fields[1]; name.Field != "name" || *name.Type != schema.TypeString {
		t.Fatalf("languages name field = %+v", name)
	}

	byOrigin := map[FieldOrigin]schema.FieldRecord{}
	for _, f := range s.NewFields() {
		byOrigin[f.Origin] = f.Field
	}
	if got := *byOrigin[FieldManyCurrent].Type; got != schema.TypeInteger {
		t.Fatalf("current fk type = %v", got)
	}
	if got := *byOrigin[FieldManyRelated].Type; got != schema.TypeString {
		t.Fatalf("related fk type = %v", got)
	}

	want := []SeedRow{
		{"code": "en-US", "name": "English"},
		{"code": "de-DE", "name": "German"},
		{"code": "fr-FR", "name": "French"},
		{"code": "ru-RU", "name": "Russian"},
		{"code": "es-ES", "name": "Spanish"},
		{"code": "it-IT", "name": "Italian"},
		{"code": "pt-BR", "name": "Portuguese"},
	}
	if diff := cmp.Diff(want, s.Seeds()["languages"]); diff != "" {
		t.Fatalf("seeds (-want +got)\n%s", diff)
	}
}

func TestM2ADerivation(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2A)
	if err := s.SetFieldName("blocks"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetAllowedCollections([]string{"authors", "tags"}); err != nil {
		t.Fatalf("allowed: %v", err)
	}
	rels := s.Relations()
	if rels[0].Collection != "articles_blocks" {
		t.Fatalf("junction = %q", rels[0].Collection)
	}
	if rels[0].Field != "articles_id" || rels[1].Field != "item" {
		t.Fatalf("junction fields = %q / %q", rels[0].Field, rels[1].Field)
	}
	if rels[1].Meta.OneCollectionField != "collection" {
		t.Fatalf("discriminator = %q", rels[1].Meta.OneCollectionField)
	}
	if diff := cmp.Diff([]string{"authors", "tags"}, rels[1].Meta.OneAllowedCollections); diff != "" {
		t.Fatalf("allowed (-want +got)\n%s", diff)
	}

	byOrigin := map[FieldOrigin]schema.FieldRecord{}
	for _, f := range s.NewFields() {
		byOrigin[f.Origin] = f.Field
	}
	if got := *byOrigin[FieldManyCurrent].Type; got != schema.TypeInteger {
		t.Fatalf("current fk type = %v", got)
	}
	if got := *byOrigin[FieldManyRelated].Type; got != schema.TypeString {
		t.Fatalf("item type = %v", got)
	}
	if got := *byOrigin[FieldCollectionKey].Type; got != schema.TypeString {
		t.Fatalf("discriminator type = %v", got)
	}
}

func TestToggleGating(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2M)
	if err := s.SetFieldName("tags"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if err := s.SetAutoFill(false); err != nil {
		t.Fatalf("autofill: %v", err)
	}
	if err := s.SetJunctionCollection("my_junction"); err != nil {
		t.Fatalf("junction: %v", err)
	}
	if err := s.SetRelatedCollection("authors"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if got := s.Relations()[0].Collection; got != "my_junction" {
		t.Fatalf("junction clobbered: %q", got)
	}
}

func TestRecomputeIdempotence(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2M)
	if err := s.SetFieldName("tags"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	cols := s.NewCollections()
	flds := s.NewFields()
	// Re-triggering the same rules with unchanged inputs must be a no-op.
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if diff := cmp.Diff(cols, s.NewCollections()); diff != "" {
		t.Fatalf("collections changed (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff(flds, s.NewFields()); diff != "" {
		t.Fatalf("fields changed (-want +got)\n%s", diff)
	}
}

func TestExistingFieldRoundTrip(t *testing.T) {
	snap := testSnapshot()
	snap.AddCollection("articles_tags",
		schema.FieldRecord{Field: "id", Type: schema.TypePtr(schema.TypeInteger), Schema: &schema.FieldSchema{IsPrimaryKey: true, HasAutoIncrement: true}},
		schema.FieldRecord{Field: "articles_id", Type: schema.TypePtr(schema.TypeInteger), Schema: &schema.FieldSchema{Nullable: true}},
		schema.FieldRecord{Field: "tags_id", Type: schema.TypePtr(schema.TypeInteger), Schema: &schema.FieldSchema{Nullable: true}},
	)
	snap.AddField(schema.FieldRecord{
		Collection: "articles",
		Field:      "tags",
		Meta:       &schema.FieldMeta{Special: []string{"m2m"}},
	})
	stored := []schema.RelationRecord{
		{Collection: "articles_tags", Field: "tags_id", RelatedCollection: "tags", Meta: schema.RelationMeta{JunctionField: "articles_id"}},
		{Collection: "articles_tags", Field: "articles_id", RelatedCollection: "articles", Meta: schema.RelationMeta{OneField: "tags", JunctionField: "tags_id"}},
	}
	for _, r := range stored {
		snap.AddRelation(r)
	}

	s := open(t, snap, "articles", "tags", CategoryM2M)
	if !s.IsExisting() {
		t.Fatalf("expected existing session")
	}
	rels := s.Relations()
	// Current side first, then the related side, both matching the catalog.
	want := []schema.RelationRecord{stored[1], stored[0]}
	if diff := cmp.Diff(want, rels); diff != "" {
		t.Fatalf("relations (-want +got)\n%s", diff)
	}
	if len(s.NewCollections()) != 0 || len(s.NewFields()) != 0 || len(s.Seeds()) != 0 {
		t.Fatalf("existing field must not propose schema objects")
	}
}

func TestExistingFieldNotFound(t *testing.T) {
	_, err := Open(testSnapshot(), "articles", "nope", CategoryStandard, Options{Debounce: DebounceDisabled})
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestExistingFieldCategoryMismatch(t *testing.T) {
	// A scalar field has no stored relations, so junction and single-relation
	// categories must refuse to open it instead of indexing into nothing.
	for _, cat := range []Category{CategoryM2M, CategoryM2O, CategoryO2M, CategoryM2A} {
		_, err := Open(testSnapshot(), "articles", "title", cat, Options{Debounce: DebounceDisabled})
		if !errors.Is(err, ErrCategoryMismatch) {
			t.Fatalf("category %s: err = %v", cat, err)
		}
	}

	// The reverse direction: a stored m2o relation is too few records for a
	// junction category and too many for standard.
	snap := testSnapshot()
	snap.AddField(schema.FieldRecord{
		Collection: "articles",
		Field:      "author",
		Type:       schema.TypePtr(schema.TypeUUID),
		Schema:     &schema.FieldSchema{Nullable: true},
	})
	snap.AddRelation(schema.RelationRecord{Collection: "articles", Field: "author", RelatedCollection: "authors"})
	for _, cat := range []Category{CategoryM2M, CategoryStandard} {
		_, err := Open(snap, "articles", "author", cat, Options{Debounce: DebounceDisabled})
		if !errors.Is(err, ErrCategoryMismatch) {
			t.Fatalf("category %s: err = %v", cat, err)
		}
	}
	s, err := Open(snap, "articles", "author", CategoryM2O, Options{Debounce: DebounceDisabled})
	if err != nil {
		t.Fatalf("matching category rejected: %v", err)
	}
	s.Close()
}

func TestUnknownCategory(t *testing.T) {
	_, err := Open(testSnapshot(), "articles", NewField, Category("wat"), Options{})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("err = %v", err)
	}
}

func TestClosedSessionRejectsMutation(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryStandard)
	s.Close()
	if err := s.SetFieldName("x"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryM2M)
	if err := s.Validate(); err == nil {
		t.Fatalf("expected validation failure for empty state")
	}
	if err := s.SetFieldName("tags"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected validation failure without related collection")
	}
	if err := s.SetRelatedCollection("tags"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSummary(t *testing.T) {
	s := open(t, testSnapshot(), "articles", NewField, CategoryTranslations)
	if err := s.SetFieldName("translations"); err != nil {
		t.Fatalf("name: %v", err)
	}
	got := s.Summary()
	want := []CreationItem{
		{Name: "languages", Kind: "collection"},
		{Name: "articles_translations", Kind: "collection"},
		{Name: "articles_translations.articles_id", Kind: "field"},
		{Name: "articles_translations.languages_code", Kind: "field"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary (-want +got)\n%s", diff)
	}
}

func TestDebounceCoalescesBursts(t *testing.T) {
	s, err := Open(testSnapshot(), "articles", NewField, CategoryM2O, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.SetFieldName("author"); err != nil {
		t.Fatalf("name: %v", err)
	}
	// Simulate typing: partial names must not surface as proposals once the
	// window closes on the final value.
	for _, partial := range []string{"r", "re", "rev", "revi", "review", "reviews"} {
		if err := s.SetRelatedCollection(partial); err != nil {
			t.Fatalf("related: %v", err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		cols := s.NewCollections()
		if len(cols) == 1 && cols[0].Collection == "reviews" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced rule never settled: %+v", cols)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFlushRunsPendingRules(t *testing.T) {
	s, err := Open(testSnapshot(), "articles", NewField, CategoryM2O, Options{Debounce: time.Hour})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.SetFieldName("author"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("reviews"); err != nil {
		t.Fatalf("related: %v", err)
	}
	if n := len(s.NewCollections()); n != 0 {
		t.Fatalf("rule ran before window: %d", n)
	}
	s.Flush()
	cols := s.NewCollections()
	if len(cols) != 1 || cols[0].Collection != "reviews" {
		t.Fatalf("flush did not run pending rule: %+v", cols)
	}
}

func TestCloseCancelsPendingRules(t *testing.T) {
	s, err := Open(testSnapshot(), "articles", NewField, CategoryM2O, Options{Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetFieldName("author"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := s.SetRelatedCollection("reviews"); err != nil {
		t.Fatalf("related: %v", err)
	}
	s.Close()
	time.Sleep(50 * time.Millisecond)
	if n := len(s.NewCollections()); n != 0 {
		t.Fatalf("stale rule mutated closed session: %d", n)
	}
}
