package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/earlybird-mp3/onthespot-scdl/internal/formatter"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// ExportOpts contains configuration for set exports.
type ExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: soundcloud_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, capped at 10)
	RateLimit  float64 // Requests per second (0 means uncapped)
}

// ExportFailure describes one set member that could not be resolved.
type ExportFailure struct {
	ItemID int64  `json:"item_id"`
	Title  string `json:"title,omitempty"`
	Error  string `json:"error"`
}

// ExportManifest summarizes a completed set export.
type ExportManifest struct {
	ExportID       string          `json:"export_id"`
	SetID          int64           `json:"set_id"`
	Title          string          `json:"title"`
	URL            string          `json:"url,omitempty"`
	Format         string          `json:"format"`
	OutputDir      string          `json:"output_dir"`
	TotalTracks    int             `json:"total_tracks"`
	ResolvedTracks int             `json:"resolved_tracks"`
	FailedTracks   int             `json:"failed_tracks"`
	Files          []string        `json:"files"`
	Failures       []ExportFailure `json:"failures,omitempty"`
	ExportedAt     time.Time       `json:"exported_at"`
}

// SetExportResult contains everything produced by one ExportSet run.
type SetExportResult struct {
	Resolve      *SetResolveResult
	Files        []string
	ManifestPath string
}

// ExportSet resolves a set and writes it out in the requested format, plus
// a manifest summarizing what succeeded.
//
// Partial failures are not errors: a set with unresolvable members still
// exports the rest, and the manifest records what was skipped.
func (e *ExportEngine) ExportSet(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	setURL string,
	opts ExportOpts,
) (*SetExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("soundcloud_export_%d", time.Now().Unix())
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	resolve, err := e.ResolveSet(ctx, prog, setURL, opts.NumWorkers, opts.RateLimit)
	if err != nil {
		return nil, err
	}

	e.sendProgress(prog, writingExportUpdate(opts.Format, opts.OutputDir))

	files, err := e.writeExport(resolve, opts)
	if err != nil {
		return nil, err
	}

	result := &SetExportResult{Resolve: resolve, Files: files}

	manifest := buildManifest(resolve, opts, files)
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to build manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.sendProgress(prog, exportCompletedUpdate(len(files), manifestPath))
	return result, nil
}

// writeExport renders the resolved set in the requested format.
func (e *ExportEngine) writeExport(resolve *SetResolveResult, opts ExportOpts) ([]string, error) {
	set := resolve.Set
	base := strconv.FormatInt(set.ID, 10)

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(set, filepath.Join(opts.OutputDir, base))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{csvRes.TracksFile, csvRes.MetadataFile}, nil

	case "markdown":
		// The first resolved track's artwork stands in for set artwork.
		var imageURL string
		if len(set.Tracks) > 0 {
			imageURL = set.Tracks[0].ImageURL
		}
		mdRes, err := formatter.WriteMarkdownExport(set, filepath.Join(opts.OutputDir, base), imageURL)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return mdRes.Files, nil

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, base+"_tracks.txt")
		written, err := formatter.WriteTextExport(set, txtPath)
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{written}, nil

	case "json", "":
		jsonPath := filepath.Join(opts.OutputDir, base+".json")
		data, err := shared.MarshalJSON(set, true)
		if err != nil {
			return nil, fmt.Errorf("JSON marshal failed: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			return nil, fmt.Errorf("JSON write failed: %w", err)
		}
		return []string{jsonPath}, nil

	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, opts.Format)
	}
}

func buildManifest(resolve *SetResolveResult, opts ExportOpts, files []string) *ExportManifest {
	manifest := &ExportManifest{
		ExportID:       shared.GenerateID(),
		SetID:          resolve.Set.ID,
		Title:          resolve.Set.Title,
		URL:            resolve.Set.URL,
		Format:         opts.Format,
		OutputDir:      opts.OutputDir,
		TotalTracks:    resolve.TotalTracks,
		ResolvedTracks: resolve.ResolvedTracks,
		FailedTracks:   resolve.FailedTracks,
		Files:          files,
		ExportedAt:     time.Now().UTC(),
	}
	if manifest.Format == "" {
		manifest.Format = "json"
	}
	for _, res := range resolve.Results {
		if res.Success {
			continue
		}
		manifest.Failures = append(manifest.Failures, ExportFailure{
			ItemID: res.ItemID,
			Title:  res.Title,
			Error:  res.Error.Error(),
		})
	}
	return manifest
}
