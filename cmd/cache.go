package main

import (
	"context"
	"fmt"
	"time"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireCache guards cache commands when no database is configured.
func (r *Runner) requireCache() error {
	if r.cache == nil {
		return fmt.Errorf("%w: no database configured, run 'scdl setup' first", shared.ErrMissingConfig)
	}
	return nil
}

// CacheStats prints the number of cached API responses.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	count, err := r.cache.Count()
	if err != nil {
		return err
	}

	r.writePlain("Cached responses: %d\n", count)
	r.writePlain("Database: %s\n", r.config.Database.Path)
	return nil
}

// CacheClear removes every cached API response.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	if err := r.cache.Clear(); err != nil {
		return err
	}

	r.logger.Info("response cache cleared")
	r.writePlain("✓ Cache cleared\n")
	return nil
}

// CachePurge removes cached responses older than the given duration.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	olderThan, err := time.ParseDuration(cmd.String("older-than"))
	if err != nil {
		return fmt.Errorf("%w: invalid duration %q", shared.ErrInvalidArgument, cmd.String("older-than"))
	}

	removed, err := r.cache.Purge(olderThan)
	if err != nil {
		return err
	}

	r.logger.Info("response cache purged", "removed", removed)
	r.writePlain("✓ Removed %d cached responses\n", removed)
	return nil
}

// cacheCommand handles response-cache maintenance
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the API response cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache statistics",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached response",
				Action: r.CacheClear,
			},
			{
				Name:  "purge",
				Usage: "Remove cached responses older than a duration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "older-than",
						Usage: "Age cutoff, e.g. 24h or 30m",
						Value: "24h",
					},
				},
				Action: r.CachePurge,
			},
		},
	}
}
