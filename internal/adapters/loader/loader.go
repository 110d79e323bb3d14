// Package loader fetches the records of many events concurrently through a
// bounded pool of workers.
package loader

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/adapters/cache"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

const defaultWorkers = 4

// Fetcher reads the raw records of one event.
type Fetcher interface {
	EventRecords(ctx context.Context, event model.EventDescriptor) (model.EventRecords, error)
}

// Loader fans event fetches out to workers. Results come back in input order.
type Loader struct {
	fetcher Fetcher
	cache   *cache.Cache
	workers int
	logger  logger.Logger
}

// New creates a loader over fetcher.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{fetcher: fetcher, workers: defaultWorkers}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Named("loader")
	}
	return l
}

// Workers returns the pool size.
func (l *Loader) Workers() int { return l.workers }

// Cache returns the cache in use, or nil.
func (l *Loader) Cache() *cache.Cache { return l.cache }

type job struct {
	index int
	event model.EventDescriptor
}

type outcome struct {
	index int
	rec   model.EventRecords
	err   error
}

// Load returns one EventRecords per event. The first fetch error cancels the
// remaining work and is returned.
func (l *Loader) Load(ctx context.Context, events []model.EventDescriptor) ([]model.EventRecords, error) {
	out := make([]model.EventRecords, len(events))
	var pending []job
	for i, ev := range events {
		if l.cache != nil {
			if rec, ok := l.cache.Get(ev.ID); ok {
				if fresh(ev, rec) {
					rec.Event = ev
					out[i] = rec
					continue
				}
				l.cache.InvalidateEvent(ev.ID)
				l.logger.Debug(ctx, "cached records out of date", logger.String("eventID", ev.ID))
			}
		}
		pending = append(pending, job{index: i, event: ev})
	}
	if len(pending) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := min(l.workers, len(pending))
	metrics.UpdateLoaderWorkers(n)
	defer metrics.UpdateLoaderWorkers(0)

	jobs := make(chan job)
	results := make(chan outcome, len(pending))
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		w := &worker{name: "loader-" + strconv.Itoa(i), fetcher: l.fetcher, logger: l.logger}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for _, j := range pending {
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		out[res.index] = res.rec
		if l.cache != nil {
			l.cache.Put(res.rec)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return out, nil
}

// fresh reports whether cached records still agree with the completion
// flags of the current descriptor.
func fresh(ev model.EventDescriptor, rec model.EventRecords) bool {
	return ev.HasOfficialResult == (rec.Result != nil) &&
		ev.HasStoredScores == (len(rec.Stored) > 0)
}

type worker struct {
	name    string
	fetcher Fetcher
	logger  logger.Logger
}

func (w *worker) run(ctx context.Context, jobs <-chan job, results chan<- outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			results <- w.process(ctx, j)
		}
	}
}

func (w *worker) process(ctx context.Context, j job) outcome {
	start := time.Now()
	defer func() {
		metrics.RecordLoaderJob(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rec, err := w.fetcher.EventRecords(ctx, j.event)
	if err != nil {
		metrics.RecordLoaderError()
		metrics.RecordErrorByComponent("loader", "fetch_error")
		w.logger.Error(ctx, "fetch failed for event",
			logger.String("worker", w.name),
			logger.String("eventID", j.event.ID),
			logger.Error(err),
		)
		return outcome{index: j.index, err: fmt.Errorf("fetch event %s: %w", j.event.ID, err)}
	}
	rec.Event = j.event
	return outcome{index: j.index, rec: rec}
}
