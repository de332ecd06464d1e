package main

import (
	"context"
	"fmt"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/earlybird-mp3/onthespot-scdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SetExport resolves every member of a set and writes the export files.
func (r *Runner) SetExport(ctx context.Context, cmd *cli.Command) error {
	setURL := cmd.StringArg("url")
	if setURL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if err := r.requireService(); err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Download.RateLimit
	}

	logger := shared.WithLogger(r.logger, "set", setURL)
	logger.Info("starting export", "format", opts.Format, "workers", opts.NumWorkers)
	r.writePlain("Exporting set...\n")
	r.writePlain("Source: %s\n\n", setURL)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSet:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteExport:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.ExportSet(ctx, progressCh, setURL, opts)
	close(progressCh)

	if err != nil {
		return err
	}
	logger.Info("export finished", "files", len(result.Files))

	resolve := result.Resolve
	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Set: %s (%d tracks)\n", resolve.Set.Title, resolve.TotalTracks)
	r.writePlain("Resolved: %d/%d\n", resolve.ResolvedTracks, resolve.TotalTracks)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	for _, file := range result.Files {
		r.writePlain("  - %s\n", file)
	}

	if resolve.FailedTracks > 0 {
		r.writePlain("\nFailed to resolve %d tracks:\n", resolve.FailedTracks)
		for _, res := range resolve.Results {
			if res.Error != nil {
				r.writePlain("  - %s (%d): %v\n", res.Title, res.ItemID, res.Error)
			}
		}
	}

	return nil
}

// setCommand handles whole-set operations
func setCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Playlist and album operations",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Resolve every track in a set and write export files",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent resolve workers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second (defaults to download.rate_limit)",
					},
				},
				Action: r.SetExport,
			},
		},
	}
}
