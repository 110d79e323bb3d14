// Package service wires record loading, scoring, and standings aggregation
// into the read operations served by the HTTP and MCP adapters.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/aaronukgarcia/prixsix/internal/adapters/cache"
	"github.com/aaronukgarcia/prixsix/internal/adapters/loader"
	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/drivers"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/resolve"
	"github.com/aaronukgarcia/prixsix/internal/domain/scoring"
	"github.com/aaronukgarcia/prixsix/internal/domain/standings"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

const (
	defaultMaxPageSize  = 100
	defaultFetchWorkers = 4
	defaultCacheSize    = 512
)

// Service implements the read API of the league.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	records   *repository.Records
	cache     *cache.Cache
	loader    *loader.Loader
	resolver  *resolve.Resolver
	directory *drivers.Directory

	// Configuration
	pageSize     int
	maxPageSize  int
	fetchWorkers int
	cacheSize    int
	table        scoring.Table

	started bool
	logger  logger.Logger
}

// New constructs a Service. Start must be called before any read.
func New(opts ...Option) *Service {
	s := &Service{
		pageSize:     window.DefaultPageSize,
		maxPageSize:  defaultMaxPageSize,
		fetchWorkers: defaultFetchWorkers,
		cacheSize:    defaultCacheSize,
		table:        scoring.GradedTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageSize > s.maxPageSize {
		s.maxPageSize = s.pageSize
	}
	return s
}

// Start loads the driver directory and builds the read pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory record store")
	}

	s.records = repository.NewRecords(s.store, s.logger.Named("records"))
	list, err := s.records.Drivers(ctx)
	if err != nil {
		return fmt.Errorf("load drivers: %w", err)
	}
	if len(list) == 0 {
		list = drivers.Grid()
	}
	s.directory = drivers.New(list)

	s.cache = cache.New(cache.WithMaxSize(s.cacheSize))
	s.loader = loader.New(s.records,
		loader.WithWorkers(s.fetchWorkers),
		loader.WithCache(s.cache),
		loader.WithLogger(s.logger.Named("loader")),
	)
	s.resolver = resolve.New(scoring.New(
		scoring.WithTable(s.table),
		scoring.WithDirectory(s.directory),
	))

	s.started = true
	s.logger.Info(ctx, "standings service started",
		logger.Int("drivers", s.directory.Len()),
		logger.Int("fetchWorkers", s.fetchWorkers),
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("pageSize", s.pageSize),
	)
	return nil
}

// Stop closes the record store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "closing record store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "standings service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Table returns the active scoring table.
func (s *Service) Table() scoring.Table { return s.table }

// catalog builds the event catalog annotated with completion flags. A store
// without weekends is an empty season, not a malformed one.
func (s *Service) catalog(ctx context.Context) (*catalog.Catalog, error) {
	schedule, err := s.records.Schedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if len(schedule) == 0 {
		return catalog.Empty(), nil
	}
	cat, err := catalog.Build(schedule)
	if err != nil {
		return nil, err
	}
	withResults, err := s.records.EventsWithResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	withScores, err := s.records.EventsWithScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return cat.WithCompletion(withResults, withScores), nil
}

func (s *Service) lookup(ctx context.Context, eventID string) (*catalog.Catalog, model.EventDescriptor, error) {
	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, model.EventDescriptor{}, err
	}
	ev, ok := cat.Lookup(eventID)
	if !ok {
		return nil, model.EventDescriptor{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return cat, ev, nil
}

// pageSizeFor clamps a caller limit. Zero means the configured default.
func (s *Service) pageSizeFor(limit int) int {
	switch {
	case limit == 0:
		return s.pageSize
	case limit > s.maxPageSize:
		return s.maxPageSize
	default:
		return limit
	}
}

// Events lists the season's events in chronological order.
func (s *Service) Events(ctx context.Context, completedOnly bool) ([]model.EventDescriptor, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	if completedOnly {
		events := cat.Completed()
		if events == nil {
			events = []model.EventDescriptor{}
		}
		return events, nil
	}
	return cat.Events(), nil
}

// LatestCompleted returns the most recent event with a result or stored scores.
func (s *Service) LatestCompleted(ctx context.Context) (model.EventDescriptor, bool, error) {
	if err := s.ready(); err != nil {
		return model.EventDescriptor{}, false, err
	}
	cat, err := s.catalog(ctx)
	if err != nil {
		return model.EventDescriptor{}, false, err
	}
	ev, ok := cat.LatestCompleted()
	return ev, ok, nil
}

// Standings returns one page of the standings as of eventID.
func (s *Service) Standings(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.StandingsRow], error) {
	rows, err := s.AllStandings(ctx, eventID)
	if err != nil {
		return window.Window[model.StandingsRow]{}, err
	}
	w, err := window.Page(rows, s.pageSizeFor(limit), cursor)
	if err != nil {
		return window.Window[model.StandingsRow]{}, err
	}
	metrics.RecordPageServed("standings")
	return w, nil
}

// AllStandings computes every standings row as of eventID.
func (s *Service) AllStandings(ctx context.Context, eventID string) ([]model.StandingsRow, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	cat, selected, err := s.lookup(ctx, eventID)
	if err != nil {
		return nil, err
	}
	events := cat.Events()[:selected.ChronologicalIndex+1]
	recs, err := s.loader.Load(ctx, events)
	if err != nil {
		return nil, err
	}

	results := make(standings.Results)
	for _, rec := range recs {
		resolved, err := s.resolveEvent(ctx, rec)
		if err != nil {
			return nil, err
		}
		for _, r := range resolved {
			results.Add(r)
		}
	}
	names, err := s.records.TeamNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("load team names: %w", err)
	}
	rows, err := standings.Aggregate(events, selected.ChronologicalIndex, results, names)
	if err != nil {
		return nil, err
	}
	metrics.RecordAggregation(float64(time.Since(start).Microseconds())/1000, len(rows))
	s.logger.Debug(ctx, "standings aggregated",
		logger.String("eventID", selected.ID),
		logger.Int("events", len(events)),
		logger.Int("teams", len(rows)),
		logger.Duration("took", time.Since(start)),
	)
	return rows, nil
}

// EventResults returns one page of the team results of a single event.
func (s *Service) EventResults(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.TeamEventResult], error) {
	if err := s.ready(); err != nil {
		return window.Window[model.TeamEventResult]{}, err
	}
	_, ev, err := s.lookup(ctx, eventID)
	if err != nil {
		return window.Window[model.TeamEventResult]{}, err
	}
	recs, err := s.loader.Load(ctx, []model.EventDescriptor{ev})
	if err != nil {
		return window.Window[model.TeamEventResult]{}, err
	}
	resolved, err := s.resolveEvent(ctx, recs[0])
	if err != nil {
		return window.Window[model.TeamEventResult]{}, err
	}
	w, err := window.Page(resolved, s.pageSizeFor(limit), cursor)
	if err != nil {
		return window.Window[model.TeamEventResult]{}, err
	}
	metrics.RecordPageServed("event_results")
	return w, nil
}

// TeamResult returns one team's result at one event. A registered team
// without records is reported as pending or no_prediction.
func (s *Service) TeamResult(ctx context.Context, eventID, teamID string) (model.TeamEventResult, error) {
	if err := s.ready(); err != nil {
		return model.TeamEventResult{}, err
	}
	_, ev, err := s.lookup(ctx, eventID)
	if err != nil {
		return model.TeamEventResult{}, err
	}
	recs, err := s.loader.Load(ctx, []model.EventDescriptor{ev})
	if err != nil {
		return model.TeamEventResult{}, err
	}
	rec := recs[0]
	teamID = model.NormalizeID(teamID)
	if !hasTeam(rec, teamID) {
		names, err := s.records.TeamNames(ctx)
		if err != nil {
			return model.TeamEventResult{}, fmt.Errorf("load team names: %w", err)
		}
		if _, ok := names[teamID]; !ok {
			return model.TeamEventResult{}, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
		}
	}
	return s.resolver.Resolve(teamID, ev, rec.Predictions, rec.Result, rec.Stored)
}

func hasTeam(rec model.EventRecords, teamID string) bool {
	for _, p := range rec.Predictions {
		if p.TeamID == teamID {
			return true
		}
	}
	for _, st := range rec.Stored {
		if st.TeamID == teamID {
			return true
		}
	}
	return false
}

// Teams returns one page of registered teams, read page by page from the store.
func (s *Service) Teams(ctx context.Context, limit int, cursor string) (window.Window[model.Team], error) {
	if err := s.ready(); err != nil {
		return window.Window[model.Team]{}, err
	}
	size := s.pageSizeFor(limit)
	if size <= 0 {
		return window.Window[model.Team]{}, fmt.Errorf("%w: %d", window.ErrInvalidPageSize, size)
	}
	offset, err := window.DecodeCursor(cursor)
	if err != nil {
		return window.Window[model.Team]{}, err
	}
	total, err := s.records.CountTeams(ctx)
	if err != nil {
		return window.Window[model.Team]{}, fmt.Errorf("count teams: %w", err)
	}
	teams, err := s.records.TeamsPage(ctx, offset, size)
	if err != nil {
		return window.Window[model.Team]{}, fmt.Errorf("list teams: %w", err)
	}
	shown := min(offset+size, total)
	if offset > total {
		shown = total
	}
	w := window.Window[model.Team]{
		Rows:       teams,
		Shown:      shown,
		TotalCount: total,
		HasMore:    shown < total,
	}
	if w.Rows == nil {
		w.Rows = []model.Team{}
	}
	if w.HasMore {
		w.NextCursor = window.EncodeCursor(shown)
	}
	metrics.RecordPageServed("teams")
	return w, nil
}

// resolveEvent resolves every team at one event and reports grading metrics
// and stored-score discrepancies.
func (s *Service) resolveEvent(ctx context.Context, rec model.EventRecords) ([]model.TeamEventResult, error) {
	resolved, err := s.resolver.ResolveEvent(rec.Event, rec.Predictions, rec.Result, rec.Stored)
	if err != nil {
		metrics.RecordGradingError()
		metrics.RecordErrorByComponent("service", "grading_error")
		s.logger.Error(ctx, "grading failed", logger.String("eventID", rec.Event.ID), logger.Error(err))
		return nil, fmt.Errorf("resolve event %s: %w", rec.Event.ID, err)
	}
	pending := 0
	for _, r := range resolved {
		if r.Pending() {
			pending++
		}
		for _, g := range r.Grades {
			metrics.RecordSlotGraded(string(g.Grade))
		}
		if r.BonusPoints > 0 {
			metrics.RecordCleanSweep()
		}
		if r.Discrepancy {
			metrics.RecordDiscrepancy()
			s.logDiscrepancy(ctx, r, storedText(rec.Stored, r.TeamID))
		}
	}
	metrics.RecordPendingResults(pending)
	return resolved, nil
}

func storedText(stored []model.StoredEventScore, teamID string) string {
	for _, st := range stored {
		if st.TeamID == teamID {
			return st.BreakdownText
		}
	}
	return ""
}

func (s *Service) logDiscrepancy(ctx context.Context, r model.TeamEventResult, stored string) {
	fields := []logger.Field{
		logger.String("eventID", r.EventID),
		logger.String("teamID", r.TeamID),
		logger.Int("stored", *r.EffectivePoints),
		logger.Int("computed", *r.ComputedPoints),
	}
	if stored != "" && r.Breakdown != "" {
		diff, err := BreakdownDiff(stored, r.Breakdown)
		if err == nil && diff != "" {
			fields = append(fields, logger.String("diff", diff))
		}
	}
	s.logger.Warn(ctx, "stored score differs from recomputed score", fields...)
}

// BreakdownDiff renders a unified diff of a stored breakdown against the
// recomputed one. Identical texts give an empty diff.
func BreakdownDiff(stored, computed string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(ensureNewline(stored)),
		B:        difflib.SplitLines(ensureNewline(computed)),
		FromFile: "stored",
		ToFile:   "recomputed",
		Context:  1,
	})
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// InvalidateWeekend drops cached records of one weekend's events.
func (s *Service) InvalidateWeekend(ctx context.Context, weekendID string) int {
	if s.ready() != nil {
		return 0
	}
	n := s.cache.InvalidateWeekend(model.NormalizeID(weekendID))
	s.logger.Info(ctx, "cache invalidated", logger.String("weekend", weekendID), logger.Int("removed", n))
	return n
}

// InvalidateAll drops every cached record.
func (s *Service) InvalidateAll(ctx context.Context) int {
	if s.ready() != nil {
		return 0
	}
	n := s.cache.Reset()
	s.logger.Info(ctx, "cache reset", logger.Int("removed", n))
	return n
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"fetchWorkers": s.fetchWorkers,
		"pageSize":     s.pageSize,
		"maxPageSize":  s.maxPageSize,
		"cacheSize":    s.cacheSize,
		"scoringTable": s.table,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	cs := s.cache.Stats()
	stats["cache"] = cs
	stats["drivers"] = s.directory.Len()
	if n, err := s.records.CountTeams(ctx); err == nil {
		stats["teams"] = n
	}
	if cat, err := s.catalog(ctx); err == nil {
		stats["events"] = cat.Len()
		stats["completedEvents"] = len(cat.Completed())
	} else {
		s.logger.Warn(ctx, "stats: catalog unavailable", logger.Error(err))
	}
	metrics.UpdateCacheEntries(cs.Entries)
	return stats
}

// Drivers returns the driver directory sorted by id.
func (s *Service) Drivers() []model.Driver {
	if s.ready() != nil {
		return nil
	}
	return s.directory.Drivers()
}
