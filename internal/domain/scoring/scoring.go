// Package scoring grades a team's ranked prediction against an official
// finishing order.
package scoring

import (
	"fmt"
	"strings"

	"github.com/aaronukgarcia/prixsix/internal/domain/drivers"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Option applies a configuration option to the Grader.
type Option func(*Grader)

// WithTable sets the points table. Tables that fail Validate are ignored.
func WithTable(t Table) Option {
	return func(g *Grader) {
		if t.Validate() == nil {
			g.table = t
		}
	}
}

// WithDirectory sets the driver directory used to fill display names.
func WithDirectory(d *drivers.Directory) Option {
	return func(g *Grader) {
		if d != nil {
			g.dir = d
		}
	}
}

// Grader is stateless after construction and safe for concurrent use.
type Grader struct {
	table Table
	dir   *drivers.Directory
}

// New creates a Grader using the graded table by default.
func New(opts ...Option) *Grader {
	g := &Grader{table: GradedTable()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Table returns the points table in use.
func (g *Grader) Table() Table { return g.table }

// Directory returns the driver directory, which may be nil.
func (g *Grader) Directory() *drivers.Directory { return g.dir }

// Grade scores prediction against result. The returned value has status
// computed and carries per-slot grades, bonus, and breakdown text.
func (g *Grader) Grade(prediction model.PredictionSet, result model.OfficialResult) (model.TeamEventResult, error) {
	for i, s := range prediction.Slots {
		if s == "" {
			return model.TeamEventResult{}, fmt.Errorf("%w: team %s: slot P%d is empty",
				model.ErrInvalidPrediction, prediction.TeamID, i+1)
		}
	}

	// first occurrence wins if an official result repeats a driver
	actual := make(map[string]int, model.SlotCount)
	for i, id := range result.Top6 {
		key := model.NormalizeID(id)
		if _, seen := actual[key]; !seen {
			actual[key] = i
		}
	}

	out := model.TeamEventResult{
		TeamID:        prediction.TeamID,
		EventID:       result.EventID,
		Status:        model.StatusComputed,
		HasPrediction: true,
		Grades:        make([]model.DriverGrade, model.SlotCount),
	}
	total := 0
	sweep := true
	for i, predicted := range prediction.Slots {
		dg := model.DriverGrade{
			SlotIndex:         i,
			PredictedDriverID: predicted,
			DriverName:        g.dir.Name(predicted),
			Grade:             model.GradeE,
		}
		if pos, ok := actual[model.NormalizeID(predicted)]; ok {
			dg.ActualPosition = pos + 1
			dg.Grade = GradeForDistance(i - pos)
			dg.Points = g.table.Points(dg.Grade)
		} else {
			sweep = false
		}
		total += dg.Points
		out.Grades[i] = dg
	}
	if sweep {
		out.BonusPoints = g.table.CleanSweep
		total += out.BonusPoints
	}
	out.ComputedPoints = model.IntPtr(total)
	out.EffectivePoints = model.IntPtr(total)
	out.Breakdown = Breakdown(out, g.dir)
	return out, nil
}

// Breakdown renders one line per graded slot followed by the bonus and the
// total. Unknown drivers are shown by their raw identifier.
func Breakdown(r model.TeamEventResult, dir *drivers.Directory) string {
	if len(r.Grades) == 0 {
		return ""
	}
	var b strings.Builder
	computed := 0
	for _, dg := range r.Grades {
		name := dg.DriverName
		if dir != nil || name == "" {
			name = dir.Name(dg.PredictedDriverID)
		}
		fmt.Fprintf(&b, "P%d %s: %s +%d", dg.SlotIndex+1, name, dg.Grade, dg.Points)
		if dg.Placed() {
			if dg.ActualPosition != dg.SlotIndex+1 {
				fmt.Fprintf(&b, " (finished P%d)", dg.ActualPosition)
			}
		} else {
			b.WriteString(" (not placed)")
		}
		b.WriteByte('\n')
		computed += dg.Points
	}
	if r.BonusPoints > 0 {
		fmt.Fprintf(&b, "Clean sweep bonus: +%d\n", r.BonusPoints)
	} else {
		b.WriteString("Clean sweep bonus: none\n")
	}
	fmt.Fprintf(&b, "Total: %d", computed+r.BonusPoints)
	return b.String()
}
