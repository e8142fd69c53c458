package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetch configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultBatchConfig returns a configuration gentle on the API.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// maxPrealloc caps the capacity reserved from a server-reported total.
const maxPrealloc = 1024

type pageResult[T any] struct {
	offset int
	data   []T
	err    error
}

// FetchAll loads every page of the collection addressed by q (Offset is
// ignored) and returns the items in server order plus the reported total.
// The first page determines the total; the remaining pages are fetched by a
// worker pool. On a failed page the items fetched so far are returned with
// the error.
func FetchAll[T any](ctx context.Context, fetch FetchFunc[T], q Query, cfg BatchConfig) ([]T, int, error) {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultBatchConfig().MaxConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBatchConfig().Timeout
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	start := time.Now()

	q.Offset = 0
	first, err := fetchWithTimeout(ctx, fetch, q, cfg.Timeout)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch first page: %w", err)
	}

	total := first.Total
	if len(first.Data) == 0 || len(first.Data) >= total {
		log.Debug().
			Int("items", len(first.Data)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Data, total, nil
	}

	pages := (total + q.Limit - 1) / q.Limit
	log.Debug().
		Int("total", total).
		Int("pages", pages).
		Msg("Starting parallel page fetch")

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Offsets are produced lazily so a bogus total costs nothing up front.
	// An empty page ends production; fetches already running complete.
	var (
		stop     = make(chan struct{})
		stopOnce sync.Once
	)
	exhausted := func() { stopOnce.Do(func() { close(stop) }) }

	offsets := make(chan int)
	go func() {
		defer close(offsets)
		for page := 1; page < pages; page++ {
			select {
			case offsets <- page * q.Limit:
			case <-stop:
				return
			case <-workerCtx.Done():
				return
			}
		}
	}()

	workers := min(cfg.MaxConcurrency, pages-1)
	results := make(chan pageResult[T], workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			batchWorker(workerCtx, fetch, q, cfg.Timeout, offsets, results, workerID, exhausted)
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byOffset := map[int][]T{0: first.Data}
	var firstErr error
	for res := range results {
		switch {
		case res.err != nil:
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch page at offset %d: %w", res.offset, res.err)
				cancel()
			}
		case len(res.data) == 0:
			log.Warn().
				Int("offset", res.offset).
				Int("total", total).
				Msg("Empty page before reported total")
		default:
			byOffset[res.offset] = res.data
		}
	}

	items := make([]T, 0, min(total, maxPrealloc))
	for offset := 0; ; offset += q.Limit {
		data, ok := byOffset[offset]
		if !ok {
			// Keep server order: stop at the first gap.
			break
		}
		items = append(items, data...)
	}

	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched", len(items)).
			Int("total", total).
			Msg("Page fetch failed - returning partial results")
		return items, total, firstErr
	}

	log.Debug().
		Int("items", len(items)).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, total, nil
}

// batchWorker fetches offsets until they run out, a fetch fails or a page
// comes back empty; in the last case it calls exhausted first.
func batchWorker[T any](ctx context.Context, fetch FetchFunc[T], q Query, timeout time.Duration, offsets <-chan int, results chan<- pageResult[T], workerID int, exhausted func()) {
	processed := 0
	for offset := range offsets {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pq := q
		pq.Offset = offset
		page, err := fetchWithTimeout(ctx, fetch, pq, timeout)
		empty := err == nil && len(page.Data) == 0
		if empty {
			exhausted()
		}
		results <- pageResult[T]{offset: offset, data: page.Data, err: err}
		if err != nil || empty {
			return
		}
		processed++
	}
}

func fetchWithTimeout[T any](ctx context.Context, fetch FetchFunc[T], q Query, timeout time.Duration) (Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fetch(pageCtx, q)
}
