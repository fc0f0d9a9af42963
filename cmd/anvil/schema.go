package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/schema"
)

func schemaCmd(flags *rootFlags) *cobra.Command {
	var (
		schemaName string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "schema TABLE",
		Short: "Describe a PostgreSQL table as validation fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			table, err := schema.New(pool).Table(cmd.Context(), schemaName, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(table.Columns)
			}

			fmt.Fprintf(out, "%s.%s\n", table.Schema, table.Name)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COLUMN\tTYPE\tKIND\tNULL\tDEFAULT")
			for i, f := range table.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n",
					f.Name(), table.Columns[i].DataType, f.Kind(), f.Nullable(), f.HasDefault())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", "public", "table schema")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw columns as JSON")
	return cmd
}
