package probe

import (
	"fmt"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Violation is one broken ranking law.
type Violation struct {
	EventID string `json:"event_id"`
	TeamID  string `json:"team_id,omitempty"`
	Row     int    `json:"row"`
	Law     string `json:"law"`
	Detail  string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s row %d (%s): %s: %s", v.EventID, v.Row, v.TeamID, v.Law, v.Detail)
}

// Law names.
const (
	LawOrder     = "order"
	LawRank      = "competition-rank"
	LawGap       = "gap"
	LawTotal     = "total"
	LawMovement  = "rank-change"
	LawUnique    = "unique-team"
	LawProgress  = "progress"
	LawFirstRank = "first-rank"
)

// CheckStandings checks a complete standings table for one event.
func CheckStandings(eventID string, rows []model.StandingsRow) []Violation {
	var out []Violation
	add := func(i int, r model.StandingsRow, law, format string, args ...any) {
		out = append(out, Violation{EventID: eventID, TeamID: r.TeamID, Row: i, Law: law, Detail: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		if j, dup := seen[r.TeamID]; dup {
			add(i, r, LawUnique, "also listed at row %d", j)
		}
		seen[r.TeamID] = i

		sprint := 0
		if r.SprintPoints != nil {
			sprint = *r.SprintPoints
		}
		if want := r.PointsBeforeSelectedWeekend + sprint + r.GPPoints; r.PointsAfterSelectedWeekend != want {
			add(i, r, LawTotal, "after=%d, before+sprint+gp=%d", r.PointsAfterSelectedWeekend, want)
		}
		if r.RankChangeVsPreviousWeekend != r.PreviousRank-r.Rank {
			add(i, r, LawMovement, "change=%d, previous-rank=%d", r.RankChangeVsPreviousWeekend, r.PreviousRank-r.Rank)
		}

		if i == 0 {
			if r.Rank != 1 {
				add(i, r, LawFirstRank, "rank=%d", r.Rank)
			}
			if r.GapToRowAbove != 0 {
				add(i, r, LawGap, "leader gap=%d", r.GapToRowAbove)
			}
			continue
		}
		above := rows[i-1]
		diff := above.PointsAfterSelectedWeekend - r.PointsAfterSelectedWeekend
		if diff < 0 {
			add(i, r, LawOrder, "%d points below a row with %d", above.PointsAfterSelectedWeekend, r.PointsAfterSelectedWeekend)
		}
		if r.GapToRowAbove != diff || r.GapToRowAbove < 0 {
			add(i, r, LawGap, "gap=%d, difference=%d", r.GapToRowAbove, diff)
		}
		wantRank := i + 1
		if diff == 0 {
			wantRank = above.Rank
		}
		if r.Rank != wantRank {
			add(i, r, LawRank, "rank=%d, want %d", r.Rank, wantRank)
		}
	}
	return out
}
