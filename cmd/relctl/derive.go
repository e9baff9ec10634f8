package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
	"github.com/faciam-dev/gcrb/pkg/schema"
	"github.com/faciam-dev/gcrb/sdk"
)

func newDeriveCmd() *cobra.Command {
	var (
		catalogPath string
		collection  string
		field       string
		categoryStr string
		name        string
		fieldType   string
		related     string
		manyColl    string
		manyField   string
		sortField   string
		junction    string
		allowed     []string
		collField   string
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the relation records and objects a field would create",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := relation.ParseCategory(categoryStr)
			if err != nil {
				return err
			}
			cat := catalog.Catalog(catalog.NewSnapshot())
			if catalogPath != "" {
				snap, err := catalog.Load(catalogPath)
				if err != nil {
					return err
				}
				cat = snap
			}
			svc := sdk.New(sdk.ServiceConfig{Catalog: cat})
			res, err := svc.Derive(context.Background(), sdk.DeriveInput{
				Collection:         collection,
				Field:              field,
				Category:           category,
				FieldName:          name,
				FieldType:          schema.Type(fieldType),
				RelatedCollection:  related,
				ManyCollection:     manyColl,
				ManyField:          manyField,
				SortField:          sortField,
				JunctionCollection: junction,
				AllowedCollections: allowed,
				CollectionField:    collField,
			})
			if err != nil {
				return err
			}
			return printDerive(res)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog snapshot")
	cmd.Flags().StringVar(&collection, "collection", "", "collection the field is defined on")
	cmd.Flags().StringVar(&field, "field", "", "existing field name (omit for a new field)")
	cmd.Flags().StringVar(&categoryStr, "category", "", "relationship category")
	cmd.Flags().StringVar(&name, "name", "", "field name")
	cmd.Flags().StringVar(&fieldType, "type", "", "storage type (standard/m2o only)")
	cmd.Flags().StringVar(&related, "related", "", "related collection")
	cmd.Flags().StringVar(&manyColl, "many-collection", "", "o2m: collection holding the foreign key")
	cmd.Flags().StringVar(&manyField, "many-field", "", "o2m: foreign key column")
	cmd.Flags().StringVar(&sortField, "sort", "", "sort column")
	cmd.Flags().StringVar(&junction, "junction", "", "junction collection override")
	cmd.Flags().StringSliceVar(&allowed, "allowed", nil, "m2a: allowed collections")
	cmd.Flags().StringVar(&collField, "collection-field", "", "m2a: discriminator column")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func printDerive(res sdk.DeriveResult) error {
	format, err := rootCmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if format == "json" {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Collection", "Field", "Related", "One Field", "Sort", "Junction Field"})
	for _, r := range res.Relations {
		tw.Append([]string{r.Collection, r.Field, r.RelatedCollection, r.Meta.OneField, r.Meta.SortField, r.Meta.JunctionField})
	}
	tw.Render()
	if len(res.Items) > 0 {
		fmt.Println("To create:")
		it := tablewriter.NewWriter(os.Stdout)
		it.SetHeader([]string{"Kind", "Name"})
		for _, item := range res.Items {
			it.Append([]string{item.Kind, item.Name})
		}
		it.Render()
	}
	for coll, rows := range res.Seeds {
		fmt.Printf("Seeds for %s: %d rows\n", coll, len(rows))
	}
	if res.Err != "" {
		fmt.Printf("Incomplete: %s\n", res.Err)
	}
	return nil
}
