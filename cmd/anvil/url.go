package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/anvil/pkg/routecache"
)

func urlCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "url CONTROLLER ACTION [param=value...]",
		Short: "Resolve the path of a controller action",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}

			params := make(map[string]string, len(args)-2)
			for _, kv := range args[2:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("anvil: param %q is not key=value", kv)
				}
				params[k] = v
			}

			routes := routecache.New(cat)
			defer routes.Close()

			u, err := routes.URL(cmd.Context(), args[0], args[1], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}
