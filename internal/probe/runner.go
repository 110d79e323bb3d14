package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

type eventCheck struct {
	eventID    string
	rows       int
	pages      int
	violations []Violation
	err        error
}

// Verify pages the standings of every completed event and checks the
// ranking laws. A transport or decode failure aborts the run; law
// violations are collected in Stats.
func Verify(ctx context.Context, cfg VerifyConfig) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Named("probe")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	events, err := client.CompletedEvents(ctx)
	if err != nil {
		return stats, fmt.Errorf("list events: %w", err)
	}
	log.Info(ctx, "verifying standings", logger.Int("events", len(events)), logger.String("url", cfg.BaseURL))

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, max(len(events), 1))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan model.EventDescriptor)
	results := make(chan eventCheck, len(events))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range jobs {
				res := checkEvent(ctx, client, ev.ID, cfg.PageSize)
				if res.err != nil {
					cancel()
				}
				results <- res
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, ev := range events {
			select {
			case <-ctx.Done():
				return
			case jobs <- ev:
			}
		}
	}()
	wg.Wait()
	close(results)

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil || errors.Is(firstErr, context.Canceled) {
				firstErr = res.err
			}
			continue
		}
		if cfg.Verbose {
			log.Info(ctx, "event checked",
				logger.String("event", res.eventID),
				logger.Int("rows", res.rows),
				logger.Int("pages", res.pages),
				logger.Int("violations", len(res.violations)),
			)
		}
		stats.EventsChecked++
		stats.RowsChecked += res.rows
		stats.PagesFetched += res.pages
		stats.Violations = append(stats.Violations, res.violations...)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if firstErr != nil {
		return stats, firstErr
	}
	for _, v := range stats.Violations {
		log.Warn(ctx, "ranking law violated", logger.String("violation", v.String()))
	}
	log.Info(ctx, "verification complete",
		logger.Int("events", stats.EventsChecked),
		logger.Int("rows", stats.RowsChecked),
		logger.Int("pages", stats.PagesFetched),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("pages_per_sec", float64(stats.PagesFetched)/max(stats.Duration.Seconds(), 1e-9)),
	)
	return stats, nil
}

// checkEvent reveals one event's standings page by page.
func checkEvent(ctx context.Context, client *Client, eventID string, pageSize int) eventCheck {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	src := &standingsSource{client: client, eventID: eventID}
	m := window.NewMaterializer[model.StandingsRow](src, window.WithPageSize(pageSize))
	for !m.Done() {
		if _, err := m.Next(ctx); err != nil {
			return eventCheck{err: fmt.Errorf("standings %s: %w", eventID, err)}
		}
	}

	rows := m.Rows()
	pages, total, progress := src.snapshot()
	res := eventCheck{eventID: eventID, rows: len(rows), pages: pages, violations: CheckStandings(eventID, rows)}
	want := strconv.Itoa(len(rows)) + " / " + strconv.Itoa(total)
	if len(rows) != total || progress != want {
		res.violations = append(res.violations, Violation{
			EventID: eventID,
			Row:     len(rows),
			Law:     LawProgress,
			Detail:  fmt.Sprintf("revealed %d of %d, last progress %q", len(rows), total, progress),
		})
	}
	return res
}
