package main

import (
	"context"
	"fmt"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the track or playlist search endpoint and prints shaped results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.requireService(); err != nil {
		return err
	}

	kind := cmd.String("type")
	r.logger.Info("searching", "query", query, "type", kind)

	var results []models.SearchResult
	var err error
	switch kind {
	case "track", "":
		results, err = r.svc.SearchTracks(ctx, query)
	case "playlist", "set":
		results, err = r.svc.SearchPlaylists(ctx, query)
	default:
		return fmt.Errorf("%w: unknown type %q", shared.ErrInvalidArgument, kind)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", query))
	for i, res := range results {
		r.writePlain("%d. %s - %s\n", i+1, res.ItemBy, res.ItemName)
		r.writePlain("   %s (id %d)\n", res.ItemURL, res.ItemID)
	}
	return nil
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search tracks or sets",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Result type: track or playlist",
				Value:   "track",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Search,
	}
}
