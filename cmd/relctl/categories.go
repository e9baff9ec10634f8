package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/gcrb/pkg/relation"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List supported relationship categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range relation.Categories() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
