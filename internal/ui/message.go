package ui

import (
	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	"github.com/earlybird-mp3/onthespot-scdl/internal/tasks"
)

// resultsFetchedMsg carries a completed search.
type resultsFetchedMsg struct {
	results []models.SearchResult
	err     error
}

// trackResolvedMsg carries a track's resolved metadata and chosen stream.
// The raw record rides along so the detail view can re-run stream
// selection when the quality preference flips.
type trackResolvedMsg struct {
	track  *services.TrackRecord
	meta   *models.TrackMetadata
	stream *models.SelectedStream
	err    error
}

// progressUpdateMsg relays one engine progress event into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// exportCompleteMsg carries the finished export run.
type exportCompleteMsg struct {
	result *tasks.SetExportResult
	err    error
}
