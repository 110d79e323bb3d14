// Package drivers provides the static driver directory used for display names.
package drivers

import (
	"sort"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Directory maps normalised driver identifiers to display names.
// It is read-only after construction and safe for concurrent use.
type Directory struct {
	names map[string]string
}

// New builds a directory. Later entries win over earlier ones with the same id.
func New(list []model.Driver) *Directory {
	d := &Directory{names: make(map[string]string, len(list))}
	for _, drv := range list {
		id := model.NormalizeID(drv.ID)
		if id == "" {
			continue
		}
		name := drv.DisplayName
		if name == "" {
			name = drv.ID
		}
		d.names[id] = name
	}
	return d
}

// Name returns the display name for id, or the raw id when it is unknown.
func (d *Directory) Name(id string) string {
	if d != nil {
		if name, ok := d.names[model.NormalizeID(id)]; ok {
			return name
		}
	}
	return id
}

// Known reports whether id is in the directory.
func (d *Directory) Known(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.names[model.NormalizeID(id)]
	return ok
}

// Len returns the number of drivers.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Drivers returns all entries sorted by id.
func (d *Directory) Drivers() []model.Driver {
	if d == nil {
		return nil
	}
	out := make([]model.Driver, 0, len(d.names))
	for id, name := range d.names {
		out = append(out, model.Driver{ID: id, DisplayName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Grid returns the default driver list.
func Grid() []model.Driver {
	return []model.Driver{
		{ID: "verstappen", DisplayName: "Max Verstappen"},
		{ID: "tsunoda", DisplayName: "Yuki Tsunoda"},
		{ID: "norris", DisplayName: "Lando Norris"},
		{ID: "piastri", DisplayName: "Oscar Piastri"},
		{ID: "leclerc", DisplayName: "Charles Leclerc"},
		{ID: "hamilton", DisplayName: "Lewis Hamilton"},
		{ID: "russell", DisplayName: "George Russell"},
		{ID: "antonelli", DisplayName: "Kimi Antonelli"},
		{ID: "alonso", DisplayName: "Fernando Alonso"},
		{ID: "stroll", DisplayName: "Lance Stroll"},
		{ID: "gasly", DisplayName: "Pierre Gasly"},
		{ID: "colapinto", DisplayName: "Franco Colapinto"},
		{ID: "albon", DisplayName: "Alexander Albon"},
		{ID: "sainz", DisplayName: "Carlos Sainz"},
		{ID: "lawson", DisplayName: "Liam Lawson"},
		{ID: "hadjar", DisplayName: "Isack Hadjar"},
		{ID: "hulkenberg", DisplayName: "Nico Hulkenberg"},
		{ID: "bortoleto", DisplayName: "Gabriel Bortoleto"},
		{ID: "ocon", DisplayName: "Esteban Ocon"},
		{ID: "bearman", DisplayName: "Oliver Bearman"},
	}
}
