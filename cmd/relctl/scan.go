package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/spf13/cobra"

	"github.com/faciam-dev/gcrb/pkg/util"
	"github.com/faciam-dev/gcrb/sdk"
)

func newScanCmd() *cobra.Command {
	var (
		dsn        string
		driverFlag string
		dbSchema   string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a database schema into a catalog snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if driverFlag == "" {
				d, err := util.DetectDriver(dsn)
				if err != nil {
					return err
				}
				driverFlag = d
			}
			svc := sdk.New(sdk.ServiceConfig{})
			data, err := svc.Export(context.Background(), sdk.DBConfig{Driver: driverFlag, DSN: dsn, Schema: dbSchema})
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}
			return os.WriteFile(out, data, 0o600)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN")
	cmd.Flags().StringVar(&driverFlag, "driver", "", "database driver (detected from DSN when empty)")
	cmd.Flags().StringVar(&dbSchema, "schema", "public", "database schema")
	cmd.Flags().StringVar(&out, "out", "", "output file (stdout when empty)")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
