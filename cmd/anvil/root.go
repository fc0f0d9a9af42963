package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/pkg/config"
)

type rootFlags struct {
	envPrefix string
	catalog   []string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "anvil",
		Short:        "Catalog-driven web application tool",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.envPrefix, "env-prefix", "", "prefix of environment variables, e.g. APP_")
	cmd.PersistentFlags().StringSliceVarP(&flags.catalog, "catalog", "c", nil, "catalog files, merged in order (default from CATALOG)")

	cmd.AddCommand(
		routesCmd(flags),
		urlCmd(flags),
		schemaCmd(flags),
		migrateCmd(flags),
		serveCmd(flags),
	)
	return cmd
}

// load reads the environment, with --catalog taking precedence over CATALOG.
func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.envPrefix)
	if err != nil {
		return nil, err
	}
	if len(f.catalog) > 0 {
		cfg.Catalog = f.catalog
	}
	return cfg, nil
}

func (f *rootFlags) loadCatalog() (*config.Config, *anvil.Catalog, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	cat, err := anvil.LoadCatalog(cfg.CatalogFiles()...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cat, nil
}
