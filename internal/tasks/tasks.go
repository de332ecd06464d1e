// package tasks orchestrates multi-track operations on top of the api-v2
// client: resolving every member of a set and exporting the result.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"golang.org/x/time/rate"
)

// SetSource is the subset of the api-v2 client the engine needs.
type SetSource interface {
	// SetItems resolves a /sets URL to its playlist record.
	SetItems(ctx context.Context, setURL string) (*services.SetRecord, error)

	// Track fetches the full detail record for one track.
	Track(ctx context.Context, itemID int64) (*services.TrackRecord, error)
}

// Resolver reconciles a full track record into display metadata.
type Resolver interface {
	Resolve(ctx context.Context, track *services.TrackRecord) *models.TrackMetadata
}

// TrackResult records the outcome of resolving one set member.
type TrackResult struct {
	ItemID  int64
	Title   string
	Success bool
	Meta    *models.TrackMetadata
	Error   error
}

// SetResolveResult contains the resolved set and per-track outcomes in the
// set's original order.
type SetResolveResult struct {
	Set            *models.SetExport
	TotalTracks    int
	ResolvedTracks int
	FailedTracks   int
	Results        []TrackResult
}

// ExportEngine resolves sets track by track and writes export files.
type ExportEngine struct {
	src      SetSource
	resolver Resolver
}

// NewExportEngine creates an engine over the given source and resolver.
func NewExportEngine(src SetSource, resolver Resolver) *ExportEngine {
	return &ExportEngine{src: src, resolver: resolver}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// trackJob pairs a set member with its position so workers can report
// results back in order.
type trackJob struct {
	index int
	stub  services.TrackRecord
}

// ResolveSet fetches a set and resolves full metadata for every member.
//
// The set fetch itself is mandatory and fails loud. Individual member
// failures never abort the run: they are recorded in the result list and
// the corresponding track is left out of the export. Member order is
// preserved regardless of worker scheduling.
func (e *ExportEngine) ResolveSet(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	setURL string,
	numWorkers int,
	rateLimit float64,
) (*SetResolveResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrAPIRequest)
	}

	if numWorkers <= 0 {
		numWorkers = 5
	}
	if numWorkers > 10 {
		numWorkers = 10
	}
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}

	e.sendProgress(prog, fetchingSetUpdate(setURL))

	set, err := e.src.SetItems(ctx, setURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch set: %w", err)
	}
	e.sendProgress(prog, foundSetUpdate(set))

	total := len(set.Tracks)
	result := &SetResolveResult{
		Set: &models.SetExport{
			ID:    set.ID,
			Title: set.Title,
			URL:   set.PermalinkURL,
		},
		TotalTracks: total,
		Results:     make([]TrackResult, total),
	}

	limiter := rate.NewLimiter(limit, 1)
	jobs := make(chan trackJob, total)
	done := make(chan int, total)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go e.resolveWorker(ctx, &wg, limiter, jobs, done, result.Results)
	}

	for i, stub := range set.Tracks {
		jobs <- trackJob{index: i, stub: stub}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		res := result.Results[idx]
		if res.Success {
			e.sendProgress(prog, trackResolvedUpdate(completed, total, res.Meta))
		} else {
			e.sendProgress(prog, trackFailedUpdate(completed, total, res.Title, res.Error))
		}
	}

	for _, res := range result.Results {
		if res.Success {
			result.ResolvedTracks++
			result.Set.Tracks = append(result.Set.Tracks, *res.Meta)
		} else {
			result.FailedTracks++
		}
	}

	return result, nil
}

// resolveWorker consumes trackJobs, fetching the full record and resolving
// metadata for each. Results land in the shared slice by index; the done
// channel carries completion signals for progress accounting.
func (e *ExportEngine) resolveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan trackJob,
	done chan<- int,
	results []TrackResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := TrackResult{ItemID: job.stub.ID, Title: job.stub.Title}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results[job.index] = res
			done <- job.index
			continue
		}

		track, err := e.src.Track(ctx, job.stub.ID)
		if err != nil {
			res.Error = fmt.Errorf("failed to fetch track: %w", err)
			results[job.index] = res
			done <- job.index
			continue
		}

		meta := e.resolver.Resolve(ctx, track)
		res.Title = meta.Title
		res.Meta = meta
		res.Success = true
		results[job.index] = res
		done <- job.index
	}
}
