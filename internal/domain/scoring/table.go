package scoring

import (
	"fmt"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Preset names accepted by PresetTable.
const (
	PresetGraded = "graded"
	PresetFlat   = "flat"
)

// Table holds the points awarded per grade plus the clean sweep bonus.
// Grade E is always worth zero.
type Table struct {
	Exact      int `json:"exact" koanf:"exact"`
	OneOff     int `json:"one_off" koanf:"one_off"`
	TwoOff     int `json:"two_off" koanf:"two_off"`
	Far        int `json:"far" koanf:"far"`
	CleanSweep int `json:"clean_sweep" koanf:"clean_sweep"`
}

// GradedTable is the distance-graded 6/4/3/2/0 table with a 10 point sweep bonus.
func GradedTable() Table {
	return Table{Exact: 6, OneOff: 4, TwoOff: 3, Far: 2, CleanSweep: 10}
}

// FlatTable awards 5 for an exact slot and 3 for any other placed driver.
func FlatTable() Table {
	return Table{Exact: 5, OneOff: 3, TwoOff: 3, Far: 3, CleanSweep: 10}
}

// PresetTable returns the named preset.
func PresetTable(name string) (Table, error) {
	switch name {
	case PresetGraded, "":
		return GradedTable(), nil
	case PresetFlat:
		return FlatTable(), nil
	default:
		return Table{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidTable, name)
	}
}

// Override replaces every positive field of o in t.
func (t Table) Override(o Table) Table {
	if o.Exact > 0 {
		t.Exact = o.Exact
	}
	if o.OneOff > 0 {
		t.OneOff = o.OneOff
	}
	if o.TwoOff > 0 {
		t.TwoOff = o.TwoOff
	}
	if o.Far > 0 {
		t.Far = o.Far
	}
	if o.CleanSweep > 0 {
		t.CleanSweep = o.CleanSweep
	}
	return t
}

// Validate checks A >= B >= C >= D > 0 and a non-negative bonus.
func (t Table) Validate() error {
	switch {
	case t.Far <= 0:
		return fmt.Errorf("%w: grade D must be positive, got %d", ErrInvalidTable, t.Far)
	case t.TwoOff < t.Far:
		return fmt.Errorf("%w: grade C (%d) below grade D (%d)", ErrInvalidTable, t.TwoOff, t.Far)
	case t.OneOff < t.TwoOff:
		return fmt.Errorf("%w: grade B (%d) below grade C (%d)", ErrInvalidTable, t.OneOff, t.TwoOff)
	case t.Exact < t.OneOff:
		return fmt.Errorf("%w: grade A (%d) below grade B (%d)", ErrInvalidTable, t.Exact, t.OneOff)
	case t.CleanSweep < 0:
		return fmt.Errorf("%w: negative clean sweep bonus %d", ErrInvalidTable, t.CleanSweep)
	}
	return nil
}

// Points returns the value of a grade.
func (t Table) Points(g model.Grade) int {
	switch g {
	case model.GradeA:
		return t.Exact
	case model.GradeB:
		return t.OneOff
	case model.GradeC:
		return t.TwoOff
	case model.GradeD:
		return t.Far
	default:
		return 0
	}
}

// Max is the best possible score for one event.
func (t Table) Max() int {
	return model.SlotCount*t.Exact + t.CleanSweep
}

// GradeForDistance maps |predicted - actual| to a grade.
func GradeForDistance(diff int) model.Grade {
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return model.GradeA
	case 1:
		return model.GradeB
	case 2:
		return model.GradeC
	default:
		return model.GradeD
	}
}
