package main

import (
	"context"
	"fmt"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Resolve maps a public item URL to its kind and numeric ID.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	itemURL := cmd.StringArg("url")
	if itemURL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if err := r.requireService(); err != nil {
		return err
	}

	r.logger.Info("resolving item", "url", itemURL)

	kind, itemID, err := r.svc.Resolve(ctx, itemURL)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"kind":    kind,
			"item_id": itemID,
			"url":     itemURL,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Kind: %s\n", kind)
	r.writePlain("ID: %d\n", itemID)
	switch kind {
	case "track":
		r.writePlain("Next: 'scdl track meta --id %d' or 'scdl track stream --id %d'\n", itemID, itemID)
	case "playlist":
		r.writePlain("Next: 'scdl set export %s'\n", itemURL)
	}
	return nil
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a public URL to its item kind and ID",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Resolve,
	}
}
