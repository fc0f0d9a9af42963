package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the merged catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"routes":  cat.Routes(),
					"events":  cat.Events(),
					"modules": cat.Modules(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROUTE\tMETHOD\tPATH\tMODULE\tCONTROLLER\tACTIONS")
			for _, r := range cat.Routes() {
				path := r.Path
				if m, ok := cat.Module(r.Module); ok {
					path = strings.TrimSuffix(m.Prefix, "/") + path
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Name, r.Method, path, dash(r.Module), r.Controller, strings.Join(r.Actions, ","))
			}

			if events := cat.Events(); len(events) > 0 {
				fmt.Fprintln(tw, "\nEVENT\tASYNC\tSCHEDULE\tCONTROLLER\tACTIONS")
				for _, e := range events {
					fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n",
						e.Name, e.Async, dash(e.Schedule), e.Controller, strings.Join(e.Actions, ","))
				}
			}

			if modules := cat.Modules(); len(modules) > 0 {
				fmt.Fprintln(tw, "\nMODULE\tPREFIX\tAUTOROUTE")
				for _, m := range modules {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", m.Name, m.Prefix, m.AutoRoute)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
