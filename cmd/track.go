package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// lookupTrack fetches a full track record from either --id or --url.
func (r *Runner) lookupTrack(ctx context.Context, cmd *cli.Command) (*services.TrackRecord, error) {
	itemID := int64(cmd.Int("id"))
	itemURL := cmd.String("url")

	if itemID == 0 && itemURL == "" {
		return nil, fmt.Errorf("%w: either --id or --url must be provided", shared.ErrMissingArgument)
	}
	if itemID != 0 && itemURL != "" {
		return nil, fmt.Errorf("%w: cannot specify both --id and --url", shared.ErrInvalidArgument)
	}

	if itemURL != "" {
		kind, resolvedID, err := r.svc.Resolve(ctx, itemURL)
		if err != nil {
			return nil, err
		}
		if kind != "track" {
			return nil, fmt.Errorf("%w: %s resolves to a %s", shared.ErrUnsupportedKind, itemURL, kind)
		}
		itemID = resolvedID
	}

	return r.svc.Track(ctx, itemID)
}

// TrackMeta fetches a track and prints its fully resolved metadata.
func (r *Runner) TrackMeta(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	track, err := r.lookupTrack(ctx, cmd)
	if err != nil {
		var upstream *services.UpstreamError
		if errors.As(err, &upstream) && upstream.Private() {
			return fmt.Errorf("track is private or requires a premium session: %w", err)
		}
		return err
	}

	meta := r.resolver.Resolve(ctx, track)

	if cmd.Bool("json") {
		return r.writeJSON(meta, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s - %s", meta.Artists, meta.Title))
	r.writePlain("Album: %s (%s, track %s/%s)\n", meta.AlbumName, meta.AlbumType, meta.TrackNumber, meta.TotalTracks)
	r.writePlain("Year: %s\n", meta.ReleaseYear)
	if meta.Genre != "" {
		r.writePlain("Genre: %s\n", meta.Genre)
	}
	if meta.Label != "" {
		r.writePlain("Label: %s\n", meta.Label)
	}
	if meta.Copyright != "" {
		r.writePlain("Copyright: %s\n", meta.Copyright)
	}
	r.writePlain("Length: %s\n", shared.FormatDuration(atoiOrZero(meta.Length)))
	r.writePlain("URL: %s\n", meta.ItemURL)
	if !meta.IsPlayable {
		r.writePlain("%s\n", "⚠ Track is not streamable")
	}
	return nil
}

// TrackStream selects the best playable rendition for a track and prints it.
func (r *Runner) TrackStream(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	track, err := r.lookupTrack(ctx, cmd)
	if err != nil {
		return err
	}

	preferHQ := cmd.Bool("hq") || r.config.Download.PreferHQ

	outputPath := cmd.String("output")
	stream, err := services.SelectStream(track, preferHQ, outputPath)
	if err != nil {
		return err
	}

	// Synthesized filenames land in the configured output directory.
	if outputPath == "" && r.config.Download.OutputDir != "" {
		stream.OutputPath = filepath.Join(r.config.Download.OutputDir, stream.OutputPath)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stream, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Stream for %s", track.Title))
	r.writePlain("Preset: %s\n", stream.Preset)
	r.writePlain("Quality: %s\n", stream.Quality)
	r.writePlain("Protocol: %s\n", stream.Protocol)
	r.writePlain("Container: %s\n", stream.Container)
	r.writePlain("Output: %s\n", stream.OutputPath)
	r.writePlain("URL: %s\n", stream.URL)
	return nil
}

func atoiOrZero(s string) int {
	n := 0
	fmt.Sscanf(s, "%d", &n)
	return n
}

func trackFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "id",
			Usage: "Track ID",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "Track URL (resolved to an ID first)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
	return append(flags, extra...)
}

// trackCommand handles single-track operations
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Single track operations",
		Commands: []*cli.Command{
			{
				Name:   "meta",
				Usage:  "Resolve and print track metadata",
				Flags:  trackFlags(),
				Action: r.TrackMeta,
			},
			{
				Name:  "stream",
				Usage: "Select and print the playable stream for a track",
				Flags: trackFlags(
					&cli.BoolFlag{
						Name:  "hq",
						Usage: "Prefer the high-quality rendition (premium sessions)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Existing output path whose extension should be rewritten",
					},
				),
				Action: r.TrackStream,
			},
		},
	}
}
