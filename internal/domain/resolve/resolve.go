// Package resolve merges graded predictions with authoritative stored
// totals into one effective result per team and event.
package resolve

import (
	"fmt"
	"sort"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/scoring"
)

// Resolver is safe for concurrent use.
type Resolver struct {
	grader *scoring.Grader
}

// New creates a resolver. A nil grader means the default table.
func New(grader *scoring.Grader) *Resolver {
	if grader == nil {
		grader = scoring.New()
	}
	return &Resolver{grader: grader}
}

// Grader returns the grader used for recomputation.
func (r *Resolver) Grader() *scoring.Grader { return r.grader }

// Resolve produces one team's result at one event. predictions and stored
// may hold records for other teams, weekends, or events; those are skipped.
// A nil result means the event has not been graded yet.
func (r *Resolver) Resolve(
	teamID string,
	event model.EventDescriptor,
	predictions []model.PredictionSet,
	result *model.OfficialResult,
	stored []model.StoredEventScore,
) (model.TeamEventResult, error) {
	teamID = model.NormalizeID(teamID)
	if result != nil && result.EventID != event.ID {
		return model.TeamEventResult{}, fmt.Errorf("%w: result for %s resolved against event %s",
			model.ErrInvalidResult, result.EventID, event.ID)
	}
	var pred *model.PredictionSet
	for i := range predictions {
		if predictions[i].TeamID == teamID && predictions[i].WeekendID == event.WeekendID {
			pred = &predictions[i]
			break
		}
	}
	var st *model.StoredEventScore
	for i := range stored {
		if stored[i].TeamID == teamID && stored[i].EventID == event.ID {
			st = &stored[i]
			break
		}
	}
	return r.merge(teamID, event, pred, result, st)
}

// ResolveEvent resolves every team that predicted the event's weekend or
// has a stored score for the event. Output is ordered by team id.
func (r *Resolver) ResolveEvent(
	event model.EventDescriptor,
	predictions []model.PredictionSet,
	result *model.OfficialResult,
	stored []model.StoredEventScore,
) ([]model.TeamEventResult, error) {
	if result != nil && result.EventID != event.ID {
		return nil, fmt.Errorf("%w: result for %s resolved against event %s",
			model.ErrInvalidResult, result.EventID, event.ID)
	}
	preds := make(map[string]*model.PredictionSet)
	for i := range predictions {
		p := &predictions[i]
		if p.WeekendID != event.WeekendID {
			continue
		}
		if _, dup := preds[p.TeamID]; !dup {
			preds[p.TeamID] = p
		}
	}
	scores := make(map[string]*model.StoredEventScore)
	for i := range stored {
		s := &stored[i]
		if s.EventID != event.ID {
			continue
		}
		if _, dup := scores[s.TeamID]; !dup {
			scores[s.TeamID] = s
		}
	}

	teams := make([]string, 0, len(preds)+len(scores))
	for id := range preds {
		teams = append(teams, id)
	}
	for id := range scores {
		if _, ok := preds[id]; !ok {
			teams = append(teams, id)
		}
	}
	sort.Strings(teams)

	out := make([]model.TeamEventResult, 0, len(teams))
	for _, id := range teams {
		res, err := r.merge(id, event, preds[id], result, scores[id])
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Resolver) merge(
	teamID string,
	event model.EventDescriptor,
	pred *model.PredictionSet,
	result *model.OfficialResult,
	st *model.StoredEventScore,
) (model.TeamEventResult, error) {
	var out model.TeamEventResult
	switch {
	case result != nil && pred != nil:
		graded, err := r.grader.Grade(*pred, *result)
		if err != nil {
			return model.TeamEventResult{}, err
		}
		out = graded
	case result != nil:
		out = model.TeamEventResult{
			Status:          model.StatusNoPrediction,
			ComputedPoints:  model.IntPtr(0),
			EffectivePoints: model.IntPtr(0),
		}
	default:
		out = model.TeamEventResult{
			Status:        model.StatusPending,
			HasPrediction: pred != nil,
		}
	}
	out.TeamID = teamID
	out.EventID = event.ID

	if st != nil {
		out.Status = model.StatusStored
		out.EffectivePoints = model.IntPtr(st.TotalPoints)
		if out.ComputedPoints != nil && *out.ComputedPoints != st.TotalPoints {
			out.Discrepancy = true
		}
		if out.Breakdown == "" {
			out.Breakdown = st.BreakdownText
		}
	}
	return out, nil
}
