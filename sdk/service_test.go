package sdk

import (
	"context"
	"testing"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

func testCatalog() *catalog.Snapshot {
	snap := catalog.NewSnapshot()
	snap.AddCollection("articles", schema.FieldRecord{
		Field:  "id",
		Type:   schema.TypePtr(schema.TypeInteger),
		Schema: &schema.FieldSchema{IsPrimaryKey: true, HasAutoIncrement: true},
	})
	snap.AddCollection("tags", schema.FieldRecord{
		Field:  "id",
		Type:   schema.TypePtr(schema.TypeInteger),
		Schema: &schema.FieldSchema{IsPrimaryKey: true},
	})
	return snap
}

func TestServiceDeriveM2M(t *testing.T) {
	svc := New(ServiceConfig{Catalog: testCatalog()})
	res, err := svc.Derive(context.Background(), DeriveInput{
		Collection:        "articles",
		Category:          relation.CategoryM2M,
		FieldName:         "tags",
		RelatedCollection: "tags",
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(res.Relations) != 2 {
		t.Fatalf("relations = %+v", res.Relations)
	}
	if res.Relations[0].Collection != "articles_tags" {
		t.Fatalf("junction = %q", res.Relations[0].Collection)
	}
	if res.Err != "" {
		t.Fatalf("unexpected validation error: %s", res.Err)
	}
	var junction bool
	for _, c := range res.NewCollections {
		if c.Collection == "articles_tags" {
			junction = true
		}
	}
	if !junction {
		t.Fatalf("junction proposal missing: %+v", res.NewCollections)
	}
}

func TestServiceDeriveIncomplete(t *testing.T) {
	svc := New(ServiceConfig{Catalog: testCatalog()})
	res, err := svc.Derive(context.Background(), DeriveInput{
		Collection: "articles",
		Category:   relation.CategoryM2O,
		FieldName:  "author",
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if res.Err == "" {
		t.Fatalf("expected validation error for missing related collection")
	}
}

func TestServiceDeriveUnknownCategory(t *testing.T) {
	svc := New(ServiceConfig{})
	if _, err := svc.Derive(context.Background(), DeriveInput{Collection: "articles", Category: relation.Category("nope")}); err == nil {
		t.Fatalf("expected error")
	}
}
