// Package standings aggregates per-event team results into ranked season
// standings as of a selected event.
package standings

import (
	"fmt"
	"sort"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Results indexes team results by event id, then team id.
type Results map[string]map[string]model.TeamEventResult

// Add stores r under its event and team.
func (rs Results) Add(r model.TeamEventResult) {
	byTeam, ok := rs[r.EventID]
	if !ok {
		byTeam = make(map[string]model.TeamEventResult)
		rs[r.EventID] = byTeam
	}
	byTeam[r.TeamID] = r
}

// Split returns the bounds of the prior and current-weekend partitions of
// events[0..selected]: prior is events[:start], current is events[start:selected+1].
func Split(events []model.EventDescriptor, selected int) (start int, err error) {
	if selected < 0 || selected >= len(events) {
		return 0, fmt.Errorf("%w: index %d of %d events", ErrInvalidSelection, selected, len(events))
	}
	start = selected
	for start > 0 && events[start-1].WeekendID == events[selected].WeekendID {
		start--
	}
	return start, nil
}

type tally struct {
	row   model.StandingsRow
	after int
}

// Aggregate computes standings as of events[selected]. Output order is
// points after the selected weekend descending, then team name, then team
// id; identical inputs always produce identical output.
func Aggregate(
	events []model.EventDescriptor,
	selected int,
	results Results,
	teamNames map[string]string,
) ([]model.StandingsRow, error) {
	start, err := Split(events, selected)
	if err != nil {
		return nil, err
	}
	window := events[:selected+1]
	teams := participants(window, results)
	if len(teams) == 0 {
		return []model.StandingsRow{}, nil
	}

	scored := make([]bool, len(window))
	for i, e := range window {
		scored[i] = eventScored(e, results[e.ID])
	}

	tallies := make([]*tally, 0, len(teams))
	for _, team := range teams {
		t := &tally{row: model.StandingsRow{
			TeamID:       team,
			TeamName:     displayName(team, teamNames),
			SprintStatus: model.SprintNone,
		}}
		for i, e := range window[:start] {
			if pts, ok := points(results[e.ID], team, scored[i]); ok {
				t.row.PointsBeforeSelectedWeekend += pts
			}
		}
		current := 0
		for i := start; i < len(window); i++ {
			e := window[i]
			pts, ok := points(results[e.ID], team, scored[i])
			if !ok {
				t.row.Pending = true
			}
			switch e.Kind {
			case model.KindSprint:
				if ok {
					t.row.SprintStatus = model.SprintScored
					t.row.SprintPoints = model.IntPtr(pts)
				} else {
					t.row.SprintStatus = model.SprintPending
				}
			default:
				t.row.GPPoints += pts
			}
			current += pts
		}
		t.after = t.row.PointsBeforeSelectedWeekend + current
		t.row.PointsAfterSelectedWeekend = t.after
		tallies = append(tallies, t)
	}

	previous := rankBy(tallies, func(t *tally) int { return t.row.PointsBeforeSelectedWeekend })
	sortTallies(tallies, func(t *tally) int { return t.after })

	rows := make([]model.StandingsRow, len(tallies))
	for i, t := range tallies {
		row := t.row
		if i == 0 {
			row.Rank = 1
		} else {
			above := rows[i-1]
			row.GapToRowAbove = above.PointsAfterSelectedWeekend - row.PointsAfterSelectedWeekend
			if row.GapToRowAbove == 0 {
				row.Rank = above.Rank
			} else {
				row.Rank = i + 1
			}
		}
		if start == 0 {
			row.PreviousRank = row.Rank
		} else {
			row.PreviousRank = previous[row.TeamID]
			row.RankChangeVsPreviousWeekend = row.PreviousRank - row.Rank
		}
		rows[i] = row
	}
	return rows, nil
}

// participants returns the sorted ids of teams that predicted, or hold a
// stored score for, at least one event in window.
func participants(window []model.EventDescriptor, results Results) []string {
	seen := make(map[string]struct{})
	for _, e := range window {
		for id, r := range results[e.ID] {
			if r.HasPrediction || r.Status == model.StatusStored {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// eventScored reports whether the event has been graded. A team without a
// record at a graded event scored zero; at an ungraded one it is pending.
func eventScored(e model.EventDescriptor, byTeam map[string]model.TeamEventResult) bool {
	if e.Completed() {
		return true
	}
	for _, r := range byTeam {
		if !r.Pending() {
			return true
		}
	}
	return false
}

func points(byTeam map[string]model.TeamEventResult, team string, scored bool) (int, bool) {
	if r, ok := byTeam[team]; ok {
		return r.Effective()
	}
	return 0, scored
}

func displayName(team string, names map[string]string) string {
	if n, ok := names[team]; ok && n != "" {
		return n
	}
	return team
}

func sortTallies(ts []*tally, total func(*tally) int) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if ta, tb := total(a), total(b); ta != tb {
			return ta > tb
		}
		if a.row.TeamName != b.row.TeamName {
			return a.row.TeamName < b.row.TeamName
		}
		return a.row.TeamID < b.row.TeamID
	})
}

// rankBy assigns competition ranks (1,1,3) by total without reordering ts.
func rankBy(ts []*tally, total func(*tally) int) map[string]int {
	ordered := append([]*tally(nil), ts...)
	sortTallies(ordered, total)
	ranks := make(map[string]int, len(ordered))
	for i, t := range ordered {
		if i > 0 && total(t) == total(ordered[i-1]) {
			ranks[t.row.TeamID] = ranks[ordered[i-1].row.TeamID]
			continue
		}
		ranks[t.row.TeamID] = i + 1
	}
	return ranks
}
