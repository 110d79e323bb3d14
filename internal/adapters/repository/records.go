package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

// Records reads validated domain values out of a Store. A malformed schedule,
// prediction, or result document fails the read, since dropping it would turn
// a team or an event into something that looks scored. Reference data
// (drivers, teams) and stored scores degrade: bad documents are logged and
// skipped.
type Records struct {
	store Store
	log   logger.Logger
}

// NewRecords wraps store. A nil log uses the global logger.
func NewRecords(store Store, log logger.Logger) *Records {
	if log == nil {
		log = logger.Named("repository")
	}
	return &Records{store: store, log: log}
}

// Store returns the underlying store.
func (r *Records) Store() Store { return r.store }

func (r *Records) skip(ctx context.Context, d Document, err error) {
	metrics.RecordErrorByComponent("repository", "decode")
	r.log.Warn(ctx, "skipping malformed record",
		logger.String("collection", d.Collection),
		logger.String("id", d.ID),
		logger.Error(err))
}

// invalid wraps a decode failure with ErrInvalidRecord and the domain kind.
func invalid(d Document, kind, err error) error {
	if errors.Is(err, kind) {
		return fmt.Errorf("%w: %s/%s: %w", ErrInvalidRecord, d.Collection, d.ID, err)
	}
	return fmt.Errorf("%w: %w: %s/%s: %w", ErrInvalidRecord, kind, d.Collection, d.ID, err)
}

// decodeAll decodes every listed document. With a nil kind bad documents are
// skipped; otherwise the first one fails the read wrapped in kind.
func decodeAll[T any](ctx context.Context, r *Records, collection, scope string, offset, limit int,
	decode func(ingest.Record) (T, error), kind error,
) ([]T, error) {
	docs, err := r.store.List(ctx, collection, scope, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode(d.Payload)
		if err != nil {
			if kind != nil {
				metrics.RecordErrorByComponent("repository", "decode")
				return nil, invalid(d, kind, err)
			}
			r.skip(ctx, d, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Schedule returns the season schedule in stored order.
func (r *Records) Schedule(ctx context.Context) ([]model.Weekend, error) {
	return decodeAll(ctx, r, CollectionSchedule, "", 0, 0, ingest.Weekend, catalog.ErrInvalidSchedule)
}

// Drivers returns the driver directory entries.
func (r *Records) Drivers(ctx context.Context) ([]model.Driver, error) {
	return decodeAll(ctx, r, CollectionDrivers, "", 0, 0, ingest.Driver, nil)
}

// Teams returns every team.
func (r *Records) Teams(ctx context.Context) ([]model.Team, error) {
	return decodeAll(ctx, r, CollectionTeams, "", 0, 0, ingest.Team, nil)
}

// TeamsPage returns teams[offset:offset+limit] in stored order.
func (r *Records) TeamsPage(ctx context.Context, offset, limit int) ([]model.Team, error) {
	return decodeAll(ctx, r, CollectionTeams, "", offset, limit, ingest.Team, nil)
}

// CountTeams returns the number of stored team documents.
func (r *Records) CountTeams(ctx context.Context) (int, error) {
	return r.store.Count(ctx, CollectionTeams, "")
}

// TeamNames maps team id to display name.
func (r *Records) TeamNames(ctx context.Context) (map[string]string, error) {
	teams, err := r.Teams(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

// Predictions returns the predictions submitted for one weekend.
func (r *Records) Predictions(ctx context.Context, weekendID string) ([]model.PredictionSet, error) {
	weekendID = model.NormalizeID(weekendID)
	all, err := decodeAll(ctx, r, CollectionPredictions, weekendID, 0, 0, ingest.Prediction, model.ErrInvalidPrediction)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.WeekendID == weekendID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Result returns the official result of an event, or nil if none was entered.
// A result document that does not decode is an error, not an absent result.
func (r *Records) Result(ctx context.Context, eventID string) (*model.OfficialResult, error) {
	eventID = model.NormalizeID(eventID)
	d, err := r.store.Get(ctx, CollectionResults, eventID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res, err := ingest.OfficialResult(d.Payload)
	if err == nil && res.EventID != eventID {
		err = fmt.Errorf("%w: stored under %s but names %s", model.ErrInvalidResult, eventID, res.EventID)
	}
	if err != nil {
		metrics.RecordErrorByComponent("repository", "decode")
		return nil, invalid(d, model.ErrInvalidResult, err)
	}
	return &res, nil
}

// StoredScores returns the authoritative totals recorded for an event.
func (r *Records) StoredScores(ctx context.Context, eventID string) ([]model.StoredEventScore, error) {
	eventID = model.NormalizeID(eventID)
	all, err := decodeAll(ctx, r, CollectionScores, eventID, 0, 0, ingest.StoredScore, nil)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out, nil
}

// EventsWithResults lists event ids that have an official result document.
func (r *Records) EventsWithResults(ctx context.Context) ([]string, error) {
	return r.store.Scopes(ctx, CollectionResults)
}

// EventsWithScores lists event ids that have at least one stored score.
func (r *Records) EventsWithScores(ctx context.Context) ([]string, error) {
	return r.store.Scopes(ctx, CollectionScores)
}

// EventRecords gathers everything needed to resolve one event.
func (r *Records) EventRecords(ctx context.Context, event model.EventDescriptor) (model.EventRecords, error) {
	rec := model.EventRecords{Event: event}
	var err error
	if rec.Predictions, err = r.Predictions(ctx, event.WeekendID); err != nil {
		return model.EventRecords{}, fmt.Errorf("load predictions for %s: %w", event.ID, err)
	}
	if rec.Result, err = r.Result(ctx, event.ID); err != nil {
		return model.EventRecords{}, fmt.Errorf("load result for %s: %w", event.ID, err)
	}
	if rec.Stored, err = r.StoredScores(ctx, event.ID); err != nil {
		return model.EventRecords{}, fmt.Errorf("load scores for %s: %w", event.ID, err)
	}
	return rec, nil
}
