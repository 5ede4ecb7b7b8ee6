package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hitcapsule/internal/cache"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/urfave/cli/v3"
)

// openSQLiteCache opens the configured cache database and hands back the
// wrapped cache plus a close func.
func (r *Runner) openSQLiteCache() (*cache.SQLite, func() error, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return cache.NewSQLite(db), db.Close, nil
}

// CacheStats prints how many queries and candidates the cache holds.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	sqlCache, closeDB, err := r.openSQLiteCache()
	if err != nil {
		return err
	}
	defer closeDB()

	queries, candidates, err := sqlCache.Stats()
	if err != nil {
		return err
	}

	r.writePlainHeader("Query Cache")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Cached queries: %d\n", queries)
	r.writePlain("Cached candidates: %d\n", candidates)
	return nil
}

// CacheClear empties the persistent query cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	sqlCache, closeDB, err := r.openSQLiteCache()
	if err != nil {
		return err
	}
	defer closeDB()

	removed, err := sqlCache.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("query cache cleared", "removed", removed)
	r.writePlain("✓ Removed %d cached queries\n", removed)
	return nil
}

// cacheCommand handles the persistent search query cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the search query cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache contents summary",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached queries",
				Action: r.CacheClear,
			},
		},
	}
}
