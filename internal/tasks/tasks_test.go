package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	tu "github.com/earlybird-mp3/onthespot-scdl/internal/testing"
)

// mockSource serves a canned set and per-track records, failing the IDs
// listed in failIDs.
type mockSource struct {
	mu      sync.Mutex
	set     *services.SetRecord
	setErr  error
	failIDs map[int64]error
	fetched []int64
}

func (m *mockSource) SetItems(ctx context.Context, setURL string) (*services.SetRecord, error) {
	if m.setErr != nil {
		return nil, m.setErr
	}
	return m.set, nil
}

func (m *mockSource) Track(ctx context.Context, itemID int64) (*services.TrackRecord, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, itemID)
	m.mu.Unlock()

	if err, ok := m.failIDs[itemID]; ok {
		return nil, err
	}
	return &services.TrackRecord{
		ID:    itemID,
		Title: fmt.Sprintf("Track %d", itemID),
		User:  services.UserRecord{Username: "uploader"},
	}, nil
}

// mockResolver maps records straight to metadata without network calls.
type mockResolver struct{}

func (mockResolver) Resolve(ctx context.Context, track *services.TrackRecord) *models.TrackMetadata {
	return &models.TrackMetadata{
		ItemID:      track.ID,
		Title:       track.Title,
		Artists:     track.User.Username,
		TrackNumber: "1",
		TotalTracks: "1",
		AlbumType:   models.AlbumTypeSingle,
		Length:      "0",
	}
}

func testSet(ids ...int64) *services.SetRecord {
	set := &services.SetRecord{
		ID:           500,
		Kind:         "playlist",
		Title:        "Mix",
		PermalinkURL: "https://soundcloud.com/u/sets/mix",
		TrackCount:   len(ids),
	}
	for _, id := range ids {
		set.Tracks = append(set.Tracks, services.TrackRecord{
			ID:    id,
			Title: fmt.Sprintf("Stub %d", id),
		})
	}
	return set
}

func TestResolveSet(t *testing.T) {
	t.Run("resolves all members in order", func(t *testing.T) {
		src := &mockSource{set: testSet(10, 20, 30)}
		engine := NewExportEngine(src, mockResolver{})

		result, err := engine.ResolveSet(context.Background(), nil, "https://soundcloud.com/u/sets/mix", 3, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.ResolvedTracks != 3 || result.FailedTracks != 0 {
			t.Errorf("unexpected counts %d/%d", result.ResolvedTracks, result.FailedTracks)
		}
		for i, want := range []int64{10, 20, 30} {
			if result.Set.Tracks[i].ItemID != want {
				t.Errorf("position %d: expected %d, got %d", i, want, result.Set.Tracks[i].ItemID)
			}
		}
		if result.Set.Title != "Mix" || result.Set.ID != 500 {
			t.Errorf("unexpected set header %+v", result.Set)
		}
	})

	t.Run("member failure does not abort the run", func(t *testing.T) {
		src := &mockSource{
			set:     testSet(10, 20, 30),
			failIDs: map[int64]error{20: errors.New("gone")},
		}
		engine := NewExportEngine(src, mockResolver{})

		result, err := engine.ResolveSet(context.Background(), nil, "url", 2, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.ResolvedTracks != 2 || result.FailedTracks != 1 {
			t.Errorf("unexpected counts %d/%d", result.ResolvedTracks, result.FailedTracks)
		}
		// Failed member drops out of the export; order of the rest holds.
		if len(result.Set.Tracks) != 2 ||
			result.Set.Tracks[0].ItemID != 10 || result.Set.Tracks[1].ItemID != 30 {
			t.Errorf("unexpected export tracks %+v", result.Set.Tracks)
		}
		failed := result.Results[1]
		if failed.Success || failed.Error == nil || failed.ItemID != 20 {
			t.Errorf("unexpected failure record %+v", failed)
		}
	})

	t.Run("set fetch failure is loud", func(t *testing.T) {
		src := &mockSource{setErr: errors.New("not found")}
		engine := NewExportEngine(src, mockResolver{})

		if _, err := engine.ResolveSet(context.Background(), nil, "url", 1, 0); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("progress updates flow without a listener", func(t *testing.T) {
		src := &mockSource{set: testSet(1, 2)}
		engine := NewExportEngine(src, mockResolver{})

		// Buffered channel nobody drains; sends must not block.
		prog := make(chan ProgressUpdate, 1)
		if _, err := engine.ResolveSet(context.Background(), prog, "url", 1, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("progress reports each phase", func(t *testing.T) {
		src := &mockSource{set: testSet(1)}
		engine := NewExportEngine(src, mockResolver{})

		prog := make(chan ProgressUpdate, 16)
		if _, err := engine.ResolveSet(context.Background(), prog, "url", 1, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(prog)

		seen := map[Phase]bool{}
		for update := range prog {
			seen[update.Phase] = true
		}
		if !seen[FetchSet] || !seen[ResolveTracks] {
			t.Errorf("expected fetch and resolve phases, got %v", seen)
		}
	})
}

func TestExportSet(t *testing.T) {
	t.Run("json export with manifest", func(t *testing.T) {
		src := &mockSource{set: testSet(10, 20)}
		engine := NewExportEngine(src, mockResolver{})
		dir := t.TempDir()

		result, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Files) != 1 || !strings.HasSuffix(result.Files[0], "500.json") {
			t.Errorf("unexpected files %v", result.Files)
		}

		data, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("expected manifest: %v", err)
		}
		var manifest ExportManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("invalid manifest JSON: %v", err)
		}
		if manifest.SetID != 500 || manifest.ResolvedTracks != 2 || manifest.FailedTracks != 0 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
		if manifest.ExportID == "" {
			t.Error("expected manifest to carry an export id")
		}
	})

	t.Run("manifest records failures", func(t *testing.T) {
		src := &mockSource{
			set:     testSet(10, 20),
			failIDs: map[int64]error{10: errors.New("private")},
		}
		engine := NewExportEngine(src, mockResolver{})
		dir := t.TempDir()

		result, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{
			Format:    "txt",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("partial failure should not error: %v", err)
		}

		data, _ := os.ReadFile(result.ManifestPath)
		var manifest ExportManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("invalid manifest JSON: %v", err)
		}
		if len(manifest.Failures) != 1 || manifest.Failures[0].ItemID != 10 {
			t.Errorf("unexpected failures %+v", manifest.Failures)
		}
	})

	t.Run("csv export writes tracks and metadata files", func(t *testing.T) {
		src := &mockSource{set: testSet(10)}
		engine := NewExportEngine(src, mockResolver{})
		dir := t.TempDir()

		result, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{
			Format:    "csv",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Files) != 2 {
			t.Fatalf("expected 2 files, got %v", result.Files)
		}
		for _, path := range result.Files {
			tu.AssertFileExists(t, path)
		}
	})

	t.Run("empty format defaults to json", func(t *testing.T) {
		src := &mockSource{set: testSet(10)}
		engine := NewExportEngine(src, mockResolver{})
		dir := t.TempDir()

		result, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasSuffix(result.Files[0], ".json") {
			t.Errorf("expected JSON default, got %v", result.Files)
		}

		data, _ := os.ReadFile(result.ManifestPath)
		var manifest ExportManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("invalid manifest JSON: %v", err)
		}
		if manifest.Format != "json" {
			t.Errorf("expected manifest format json, got %q", manifest.Format)
		}
	})

	t.Run("unknown format errors", func(t *testing.T) {
		src := &mockSource{set: testSet(10)}
		engine := NewExportEngine(src, mockResolver{})

		_, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{
			Format:    "yaml",
			OutputDir: t.TempDir(),
		})
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("markdown export creates a directory", func(t *testing.T) {
		src := &mockSource{set: testSet(10)}
		engine := NewExportEngine(src, mockResolver{})
		dir := t.TempDir()

		result, err := engine.ExportSet(context.Background(), nil, "url", ExportOpts{
			Format:    "markdown",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertDirExists(t, filepath.Join(dir, "500"))
		tu.AssertFileExists(t, filepath.Join(dir, "500", "README.md"))
		if len(result.Files) == 0 {
			t.Error("expected file list in result")
		}
	})
}
