package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/geotarget"
	"github.com/sells-group/keyword-cli/internal/pipeline"
	"github.com/sells-group/keyword-cli/internal/store"
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Resolve country names to geo targets and manage the cache",
}

// -- geo resolve --

var geoResolveCmd = &cobra.Command{
	Use:   "resolve [name...]",
	Short: "Resolve place names to geoTargetConstants resource names",
	Long:  "Resolves each name, cache first. With no names the configured country list is used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("geo"); err != nil {
			return err
		}
		ctx := cmd.Context()

		names := args
		if len(names) == 0 {
			names = cfg.Geo.Countries
		}
		if len(names) == 0 {
			names = geotarget.DefaultCountries
		}

		var st store.Store
		if cfg.Geo.CacheBackend == config.CacheBackendStore {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}
		cache, err := initGeoCache(st)
		if err != nil {
			return err
		}
		ads, err := initAdsClient()
		if err != nil {
			return err
		}
		resolver, err := initResolver(ads, cache)
		if err != nil {
			return err
		}

		ids, stats := resolver.Resolve(ctx, names)
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d requested, %d from cache, %d resolved, %d failed\n",
			stats.Requested, stats.CacheHits, stats.Resolved, stats.Failed)
		if len(ids) == 0 {
			return pipeline.ErrNoGeoTargets
		}
		return nil
	},
}

// -- geo cache --

var geoCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the geo-target cache",
}

var geoCacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached name → geo target entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if cfg.Geo.CacheBackend == config.CacheBackendStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			entries, err := st.LoadGeoTargets(ctx)
			if err != nil {
				return err
			}
			formatGeoEntries(cmd.OutOrStdout(), entries)
			return nil
		}

		cache := geotarget.NewFileCache(cfg.Geo.CacheFile)
		if err := cache.Load(ctx); err != nil {
			return err
		}
		formatGeoEntries(cmd.OutOrStdout(), cache.Entries())
		return nil
	},
}

var geoCacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached geo target",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if cfg.Geo.CacheBackend == config.CacheBackendStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			n, err := st.ClearGeoTargets(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d cached geo targets\n", n)
			return nil
		}

		cache := geotarget.NewFileCache(cfg.Geo.CacheFile)
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "removed %s\n", cache.Path())
		return nil
	},
}

// formatGeoEntries writes cache entries sorted by name.
func formatGeoEntries(out io.Writer, entries map[string]string) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "Cache is empty.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tGEO TARGET")
	for _, name := range sortedNames(entries) {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, entries[name])
	}
	_ = w.Flush()
}

func init() {
	geoCacheCmd.AddCommand(geoCacheListCmd)
	geoCacheCmd.AddCommand(geoCacheClearCmd)
	geoCmd.AddCommand(geoResolveCmd)
	geoCmd.AddCommand(geoCacheCmd)
	rootCmd.AddCommand(geoCmd)
}
