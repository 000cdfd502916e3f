package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/store"
	"golang.org/x/time/rate"
)

// ItemFailure records one failed upsert within a bulk load.
type ItemFailure struct {
	ID  string // Entity id the upsert was keyed by
	Err error  // Underlying store failure
}

// BulkLoadResult is the aggregate outcome of one Load call.
//
// Every input id appears exactly once, either in Succeeded or in Failed.
type BulkLoadResult struct {
	Collection string        // Target store collection
	Total      int           // Number of upserts attempted
	Succeeded  []string      // Ids written successfully
	Failed     []ItemFailure // Per-item failures, isolated from each other
}

// LoadOpts contains concurrency settings for bulk loads.
type LoadOpts struct {
	NumWorkers int     // Concurrent in-flight upserts (default: 5, max: 10)
	RateLimit  float64 // Upsert dispatch rate per second (default: 25)
}

// LoadEngine persists entity collections to the document store.
type LoadEngine struct {
	store store.Store
}

// NewLoadEngine creates a LoadEngine writing to the given store.
func NewLoadEngine(s store.Store) *LoadEngine {
	return &LoadEngine{store: s}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls loading.
func (e *LoadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

type loadJob struct {
	entity models.Entity
}

type loadResult struct {
	id  string
	err error
}

// Load upserts every entity into the named store collection.
//
// Upserts run through a bounded worker pool: dispatch is rate limited and at
// most NumWorkers writes are in flight at once. Failures are isolated per
// item; the remaining upserts are still attempted. If the context is
// cancelled mid-load, undispatched entities are reported as failed so the
// result still accounts for every input id.
func (e *LoadEngine) Load(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	collection string,
	entities []models.Entity,
	opts LoadOpts,
) (*BulkLoadResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 25.0
	}

	result := &BulkLoadResult{
		Collection: collection,
		Total:      len(entities),
	}

	e.sendProgress(prog, loadCollectionUpdate(collection, len(entities)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan loadJob, len(entities))
	results := make(chan loadResult, len(entities))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.loadWorker(ctx, &wg, collection, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, entity := range entities {
			if err := ctx.Err(); err != nil {
				// Account for everything not yet dispatched.
				for _, rest := range entities[i:] {
					results <- loadResult{id: rest.Key(), err: err}
				}
				return
			}

			if err := limiter.Wait(ctx); err != nil {
				for _, rest := range entities[i:] {
					results <- loadResult{id: rest.Key(), err: err}
				}
				return
			}

			jobs <- loadJob{entity: entity}
			e.sendProgress(prog, upsertUpdate(i+1, len(entities), entity.Key()))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed = append(result.Failed, ItemFailure{ID: res.id, Err: res.err})
		} else {
			result.Succeeded = append(result.Succeeded, res.id)
		}

		if completed == result.Total {
			break
		}
	}

	e.sendProgress(prog, loadCompleteUpdate(collection, len(result.Succeeded), len(result.Failed)))
	return result, nil
}

// loadWorker is a worker goroutine performing upserts from the jobs channel.
func (e *LoadEngine) loadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	collection string,
	jobs <-chan loadJob,
	results chan<- loadResult,
) {
	defer wg.Done()

	for job := range jobs {
		id := job.entity.Key()
		err := e.store.Put(ctx, collection, id, job.entity)
		results <- loadResult{id: id, err: err}
	}
}
