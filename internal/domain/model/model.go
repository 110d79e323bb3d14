// Package model contains domain models passed between layers.
//
// All values are plain data: the engine packages take them in and hand new
// ones back without keeping references between calls.
package model

import (
	"fmt"
	"strings"
	"time"
)

// SlotCount is the number of ranked positions in a prediction and in an
// official result.
const SlotCount = 6

// NormalizeID canonicalises an identifier coming from any upstream source.
// Driver, team, and weekend identifiers are compared in this form only.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Driver is immutable reference data.
type Driver struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// Team is a league entrant.
type Team struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Weekend is one entry of the season schedule.
type Weekend struct {
	Name       string    `json:"name" yaml:"name"`
	HasSprint  bool      `json:"has_sprint" yaml:"has_sprint"`
	SprintTime time.Time `json:"sprint_time,omitempty" yaml:"sprint_time,omitempty"`
	RaceTime   time.Time `json:"race_time" yaml:"race_time"`
}

// EventKind distinguishes the two scorable sessions of a weekend.
type EventKind string

// Event kinds.
const (
	KindSprint    EventKind = "Sprint"
	KindGrandPrix EventKind = "GrandPrix"
)

// EventDescriptor is one discrete scorable event of the season.
type EventDescriptor struct {
	ID                 string    `json:"id"`
	WeekendID          string    `json:"weekend_id"`
	WeekendName        string    `json:"weekend_name"`
	Kind               EventKind `json:"kind"`
	ChronologicalIndex int       `json:"chronological_index"`
	StartsAt           time.Time `json:"starts_at"`
	HasOfficialResult  bool      `json:"has_official_result"`
	HasStoredScores    bool      `json:"has_stored_scores"`
}

// Completed reports whether the event has anything to score against.
func (e EventDescriptor) Completed() bool {
	return e.HasOfficialResult || e.HasStoredScores
}

// PredictionSet is a team's ranked top-six guess for one weekend.
// Slots[i] is the driver predicted to finish in position i+1.
type PredictionSet struct {
	TeamID    string            `json:"team_id"`
	WeekendID string            `json:"weekend_id"`
	Slots     [SlotCount]string `json:"slots"`
}

// NewPredictionSet validates and normalises a prediction. Duplicate drivers
// are accepted and scored at face value.
func NewPredictionSet(teamID, weekendID string, slots []string) (PredictionSet, error) {
	p := PredictionSet{
		TeamID:    NormalizeID(teamID),
		WeekendID: NormalizeID(weekendID),
	}
	switch {
	case p.TeamID == "":
		return PredictionSet{}, fmt.Errorf("%w: missing team id", ErrInvalidPrediction)
	case p.WeekendID == "":
		return PredictionSet{}, fmt.Errorf("%w: team %s: missing weekend id", ErrInvalidPrediction, p.TeamID)
	case len(slots) != SlotCount:
		return PredictionSet{}, fmt.Errorf("%w: team %s weekend %s: got %d slots, want %d",
			ErrInvalidPrediction, p.TeamID, p.WeekendID, len(slots), SlotCount)
	}
	for i, s := range slots {
		id := NormalizeID(s)
		if id == "" {
			return PredictionSet{}, fmt.Errorf("%w: team %s weekend %s: slot P%d is empty",
				ErrInvalidPrediction, p.TeamID, p.WeekendID, i+1)
		}
		p.Slots[i] = id
	}
	return p, nil
}

// OfficialResult is the administrator-entered finishing order of one event.
type OfficialResult struct {
	EventID string            `json:"event_id"`
	Top6    [SlotCount]string `json:"top6"`
}

// NewOfficialResult validates and normalises an official result.
func NewOfficialResult(eventID string, top []string) (OfficialResult, error) {
	r := OfficialResult{EventID: NormalizeID(eventID)}
	if r.EventID == "" {
		return OfficialResult{}, fmt.Errorf("%w: missing event id", ErrInvalidResult)
	}
	if len(top) != SlotCount {
		return OfficialResult{}, fmt.Errorf("%w: event %s: got %d finishers, want %d",
			ErrInvalidResult, r.EventID, len(top), SlotCount)
	}
	for i, s := range top {
		id := NormalizeID(s)
		if id == "" {
			return OfficialResult{}, fmt.Errorf("%w: event %s: P%d is empty", ErrInvalidResult, r.EventID, i+1)
		}
		r.Top6[i] = id
	}
	return r, nil
}

// StoredEventScore is an authoritative, previously computed total.
type StoredEventScore struct {
	TeamID        string `json:"team_id"`
	EventID       string `json:"event_id"`
	TotalPoints   int    `json:"total_points"`
	BreakdownText string `json:"breakdown_text,omitempty"`
}

// EventRecords bundles the raw inputs needed to resolve one event.
// Predictions cover the event's whole weekend.
type EventRecords struct {
	Event       EventDescriptor    `json:"event"`
	Result      *OfficialResult    `json:"result,omitempty"`
	Predictions []PredictionSet    `json:"predictions"`
	Stored      []StoredEventScore `json:"stored"`
}

// Grade classifies how close a predicted slot was to the actual position.
type Grade string

// Grades from exact (A) to not placed (E).
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
)

// DriverGrade is the judgment of one predicted slot.
type DriverGrade struct {
	SlotIndex         int    `json:"slot_index"`
	PredictedDriverID string `json:"predicted_driver_id"`
	DriverName        string `json:"driver_name,omitempty"`
	// ActualPosition is 1-based; 0 means the driver was not placed in the top six.
	ActualPosition int   `json:"actual_position"`
	Points         int   `json:"points"`
	Grade          Grade `json:"grade"`
}

// Placed reports whether the predicted driver finished in the top six.
func (g DriverGrade) Placed() bool { return g.ActualPosition > 0 }

// ResultStatus says where a team's effective points for an event came from.
type ResultStatus string

// Result statuses.
const (
	// StatusPending means neither an official result nor a stored score exists yet.
	StatusPending ResultStatus = "pending"
	// StatusComputed means points were graded from the official result.
	StatusComputed ResultStatus = "computed"
	// StatusStored means an authoritative stored total was used.
	StatusStored ResultStatus = "stored"
	// StatusNoPrediction means the event was graded but the team submitted nothing.
	StatusNoPrediction ResultStatus = "no_prediction"
)

// TeamEventResult is one team's outcome at one event.
type TeamEventResult struct {
	TeamID        string        `json:"team_id"`
	EventID       string        `json:"event_id"`
	Status        ResultStatus  `json:"status"`
	HasPrediction bool          `json:"has_prediction"`
	Grades        []DriverGrade `json:"grades,omitempty"`
	BonusPoints   int           `json:"bonus_points"`
	// ComputedPoints is nil when there was nothing to grade.
	ComputedPoints *int `json:"computed_points"`
	// EffectivePoints is nil while the result is pending; a scored zero is a non-nil 0.
	EffectivePoints *int   `json:"effective_points"`
	Breakdown       string `json:"breakdown,omitempty"`
	// Discrepancy is set when a stored total disagrees with the recomputed one.
	Discrepancy bool `json:"discrepancy"`
}

// Pending reports whether the team has not been scored for the event yet.
func (r TeamEventResult) Pending() bool {
	return r.EffectivePoints == nil
}

// Effective returns the counted points and whether the result is scored.
func (r TeamEventResult) Effective() (int, bool) {
	if r.EffectivePoints == nil {
		return 0, false
	}
	return *r.EffectivePoints, true
}

// SprintStatus separates "no sprint this weekend" from "sprint not scored yet".
type SprintStatus string

// Sprint statuses.
const (
	SprintNone    SprintStatus = "none"
	SprintPending SprintStatus = "pending"
	SprintScored  SprintStatus = "scored"
)

// StandingsRow is one team's ranked summary as of a selected event.
type StandingsRow struct {
	TeamID                      string       `json:"team_id"`
	TeamName                    string       `json:"team_name"`
	Rank                        int          `json:"rank"`
	PreviousRank                int          `json:"previous_rank"`
	PointsBeforeSelectedWeekend int          `json:"points_before_selected_weekend"`
	SprintPoints                *int         `json:"sprint_points"`
	SprintStatus                SprintStatus `json:"sprint_status"`
	GPPoints                    int          `json:"gp_points"`
	PointsAfterSelectedWeekend  int          `json:"points_after_selected_weekend"`
	GapToRowAbove               int          `json:"gap_to_row_above"`
	RankChangeVsPreviousWeekend int          `json:"rank_change_vs_previous_weekend"`
	// Pending is set when any current-weekend event is still unscored for the team.
	Pending bool `json:"pending"`
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int { return &v }
