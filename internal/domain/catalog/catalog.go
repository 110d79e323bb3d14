// Package catalog expands a season schedule into the ordered list of
// scorable events.
package catalog

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Event id suffixes per kind.
const (
	sprintSuffix = "-sprint"
	gpSuffix     = "-gp"
)

// Catalog is an immutable, chronologically ordered event list.
// It is safe for concurrent reads.
type Catalog struct {
	events  []model.EventDescriptor
	byID    map[string]int
	weekend map[string][]int
}

// WeekendID derives the stable weekend identifier from its name.
func WeekendID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// EventID derives the stable event identifier from the weekend name and kind.
func EventID(weekendName string, kind model.EventKind) string {
	if kind == model.KindSprint {
		return WeekendID(weekendName) + sprintSuffix
	}
	return WeekendID(weekendName) + gpSuffix
}

// Empty returns a catalog with no events, for a season nothing has been
// scheduled in yet.
func Empty() *Catalog {
	return &Catalog{byID: map[string]int{}, weekend: map[string][]int{}}
}

// Build validates the schedule and expands it. Each weekend yields an
// optional Sprint followed by its GrandPrix; weekends keep schedule order.
func Build(schedule []model.Weekend) (*Catalog, error) {
	if len(schedule) == 0 {
		return nil, fmt.Errorf("%w: no weekends", ErrInvalidSchedule)
	}
	c := &Catalog{
		events:  make([]model.EventDescriptor, 0, len(schedule)*2),
		byID:    make(map[string]int, len(schedule)*2),
		weekend: make(map[string][]int, len(schedule)),
	}
	for i, w := range schedule {
		if err := validateWeekend(i, w, schedule); err != nil {
			return nil, err
		}
		wid := WeekendID(w.Name)
		if _, dup := c.weekend[wid]; dup {
			return nil, fmt.Errorf("%w: weekend %d %q: duplicate id %q", ErrInvalidSchedule, i, w.Name, wid)
		}
		name := strings.TrimSpace(w.Name)
		if w.HasSprint {
			c.add(model.EventDescriptor{
				ID:          wid + sprintSuffix,
				WeekendID:   wid,
				WeekendName: name,
				Kind:        model.KindSprint,
				StartsAt:    w.SprintTime,
			})
		}
		c.add(model.EventDescriptor{
			ID:          wid + gpSuffix,
			WeekendID:   wid,
			WeekendName: name,
			Kind:        model.KindGrandPrix,
			StartsAt:    w.RaceTime,
		})
	}
	return c, nil
}

func validateWeekend(i int, w model.Weekend, schedule []model.Weekend) error {
	if WeekendID(w.Name) == "" {
		return fmt.Errorf("%w: weekend %d: empty name", ErrInvalidSchedule, i)
	}
	if w.RaceTime.IsZero() {
		return fmt.Errorf("%w: weekend %q: missing race time", ErrInvalidSchedule, w.Name)
	}
	if w.HasSprint {
		if w.SprintTime.IsZero() {
			return fmt.Errorf("%w: weekend %q: sprint flagged without sprint time", ErrInvalidSchedule, w.Name)
		}
		if !w.SprintTime.Before(w.RaceTime) {
			return fmt.Errorf("%w: weekend %q: sprint must precede the grand prix", ErrInvalidSchedule, w.Name)
		}
	}
	if i > 0 {
		prev := schedule[i-1].RaceTime
		first := w.RaceTime
		if w.HasSprint {
			first = w.SprintTime
		}
		if !first.After(prev) {
			return fmt.Errorf("%w: weekend %q: starts before the previous weekend ends", ErrInvalidSchedule, w.Name)
		}
	}
	return nil
}

func (c *Catalog) add(e model.EventDescriptor) {
	e.ChronologicalIndex = len(c.events)
	c.byID[e.ID] = e.ChronologicalIndex
	c.weekend[e.WeekendID] = append(c.weekend[e.WeekendID], e.ChronologicalIndex)
	c.events = append(c.events, e)
}

// Len returns the number of events.
func (c *Catalog) Len() int { return len(c.events) }

// Events returns a copy of all events in chronological order.
func (c *Catalog) Events() []model.EventDescriptor {
	out := make([]model.EventDescriptor, len(c.events))
	copy(out, c.events)
	return out
}

// Lookup finds an event by id. The id is normalised first.
func (c *Catalog) Lookup(id string) (model.EventDescriptor, bool) {
	i, ok := c.byID[model.NormalizeID(id)]
	if !ok {
		return model.EventDescriptor{}, false
	}
	return c.events[i], true
}

// WeekendEvents returns the events of one weekend, Sprint first.
func (c *Catalog) WeekendEvents(weekendID string) []model.EventDescriptor {
	idx := c.weekend[model.NormalizeID(weekendID)]
	out := make([]model.EventDescriptor, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.events[i])
	}
	return out
}

// WeekendIDs returns weekend ids in schedule order.
func (c *Catalog) WeekendIDs() []string {
	var out []string
	for _, e := range c.events {
		if e.Kind == model.KindGrandPrix {
			out = append(out, e.WeekendID)
		}
	}
	return out
}

// WithCompletion returns a copy annotated with which events have an
// official result and which have stored scores. Unknown ids are ignored.
func (c *Catalog) WithCompletion(resultIDs, storedIDs []string) *Catalog {
	out := &Catalog{
		events:  c.Events(),
		byID:    c.byID,
		weekend: c.weekend,
	}
	for i := range out.events {
		out.events[i].HasOfficialResult = false
		out.events[i].HasStoredScores = false
	}
	for _, id := range resultIDs {
		if i, ok := c.byID[model.NormalizeID(id)]; ok {
			out.events[i].HasOfficialResult = true
		}
	}
	for _, id := range storedIDs {
		if i, ok := c.byID[model.NormalizeID(id)]; ok {
			out.events[i].HasStoredScores = true
		}
	}
	return out
}

// Completed returns only events with an official result or stored scores.
func (c *Catalog) Completed() []model.EventDescriptor {
	var out []model.EventDescriptor
	for _, e := range c.events {
		if e.Completed() {
			out = append(out, e)
		}
	}
	return out
}

// LatestCompleted returns the last completed event in chronological order.
func (c *Catalog) LatestCompleted() (model.EventDescriptor, bool) {
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Completed() {
			return c.events[i], true
		}
	}
	return model.EventDescriptor{}, false
}
