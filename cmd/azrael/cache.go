package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sqlitecache "github.com/eyesofazrael/azrael/pkg/cache/sqlite"
	"github.com/eyesofazrael/azrael/pkg/config"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent search cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, timeout, err := openCache(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats(context.Background(), time.Now().Add(-timeout))
			if err != nil {
				return err
			}
			fmt.Printf("Database: %s\nEntries:  %d\nStale:    %d\n", sqlitecache.DatabaseName, stats.Entries, stats.Stale)
			return nil
		},
	}

	var staleOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, timeout, err := openCache(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var before time.Time
			if staleOnly {
				before = time.Now().Add(-timeout)
			}
			n, err := c.Clear(context.Background(), before)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d cache entries.\n", n)
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&staleOnly, "stale", false, "only clear entries older than the cache timeout")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

// openCache opens only the persistent tier so the command works while the
// server holds the local store.
func openCache(configPath string) (*sqlitecache.Cache, time.Duration, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, 0, err
	}
	if cfg.Search.CacheDBPath == "" {
		return nil, 0, errors.New("search.cache_db_path is not set")
	}
	c, err := sqlitecache.New(cfg.Search.CacheDBPath)
	if err != nil {
		return nil, 0, err
	}
	return c, cfg.Search.CacheTimeout, nil
}
