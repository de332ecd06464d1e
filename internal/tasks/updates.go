package tasks

import (
	"fmt"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSet Phase = iota
	ResolveTracks
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case FetchSet:
		return "fetch_set"
	case ResolveTracks:
		return "resolve_tracks"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func fetchingSetUpdate(setURL string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSet,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving set %s...", setURL),
	}
}

func foundSetUpdate(set *services.SetRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSet,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found set: %s (%d tracks)", set.Title, len(set.Tracks)),
		Data:    set,
	}
}

func resolvingTrackUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving: %s...", step, total, title),
	}
}

func trackResolvedUpdate(step, total int, meta *models.TrackMetadata) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, meta.Artists, meta.Title),
		Data:    meta,
	}
}

func trackFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func writingExportUpdate(format, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s export to %s...", format, dir),
	}
}

func exportCompletedUpdate(filesCount int, manifestPath string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ Export complete (%d files, manifest at %s)", filesCount, manifestPath),
	}
}
