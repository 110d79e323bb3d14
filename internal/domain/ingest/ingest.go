// Package ingest turns loosely typed upstream records into validated model
// values. Field-name variants and identifier casing are resolved here and
// nowhere else.
package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
)

// Record is one decoded JSON or YAML document.
type Record map[string]any

// Accepted spellings per canonical field, in lookup order.
var (
	teamKeys      = []string{"teamId", "team_id", "userId", "user_id", "uid"}
	teamNameKeys  = []string{"teamName", "team_name", "name", "displayName"}
	weekendKeys   = []string{"weekendId", "weekend_id", "raceId", "race_id", "weekend", "race"}
	eventKeys     = []string{"eventId", "event_id", "raceId", "race_id", "event"}
	slotKeys      = []string{"predictions", "slots", "drivers", "prediction"}
	topKeys       = []string{"top6", "results", "positions", "drivers"}
	totalKeys     = []string{"totalPoints", "total_points", "points", "score"}
	breakdownKeys = []string{"breakdown", "breakdownText", "breakdown_text"}
)

// Team decodes a team record. The name falls back to the id.
func Team(rec Record) (model.Team, error) {
	id, err := requireString(rec, append([]string{"id"}, teamKeys...))
	if err != nil {
		return model.Team{}, fmt.Errorf("team: %w", err)
	}
	name, _, err := lookupString(rec, teamNameKeys)
	if err != nil {
		return model.Team{}, fmt.Errorf("team %s: %w", id, err)
	}
	if name == "" {
		name = id
	}
	return model.Team{ID: model.NormalizeID(id), Name: strings.TrimSpace(name)}, nil
}

// Prediction decodes a prediction record. Slots may be a list or a map keyed
// P1..P6. A weekend given by name or by event id is reduced to its weekend id.
func Prediction(rec Record) (model.PredictionSet, error) {
	team, err := requireString(rec, teamKeys)
	if err != nil {
		return model.PredictionSet{}, fmt.Errorf("prediction: %w", err)
	}
	weekend, key, err := lookupString(rec, weekendKeys)
	if err != nil {
		return model.PredictionSet{}, fmt.Errorf("prediction %s: %w", team, err)
	}
	if key == "" {
		ev, evKey, err := lookupString(rec, []string{"eventId", "event_id"})
		if err != nil {
			return model.PredictionSet{}, fmt.Errorf("prediction %s: %w", team, err)
		}
		if evKey == "" {
			return model.PredictionSet{}, fmt.Errorf("prediction %s: %w: %s", team, ErrMissingField, weekendKeys[0])
		}
		weekend = weekendOfEvent(ev)
	}
	slots, err := requireDrivers(rec, slotKeys)
	if err != nil {
		return model.PredictionSet{}, fmt.Errorf("prediction %s: %w", team, err)
	}
	return model.NewPredictionSet(team, catalog.WeekendID(weekend), slots)
}

// OfficialResult decodes an official result record.
func OfficialResult(rec Record) (model.OfficialResult, error) {
	event, err := requireString(rec, eventKeys)
	if err != nil {
		return model.OfficialResult{}, fmt.Errorf("result: %w", err)
	}
	top, err := requireDrivers(rec, topKeys)
	if err != nil {
		return model.OfficialResult{}, fmt.Errorf("result %s: %w", event, err)
	}
	return model.NewOfficialResult(event, top)
}

// StoredScore decodes a stored score record.
func StoredScore(rec Record) (model.StoredEventScore, error) {
	team, err := requireString(rec, teamKeys)
	if err != nil {
		return model.StoredEventScore{}, fmt.Errorf("score: %w", err)
	}
	event, err := requireString(rec, eventKeys)
	if err != nil {
		return model.StoredEventScore{}, fmt.Errorf("score %s: %w", team, err)
	}
	v, key := lookup(rec, totalKeys)
	if key == "" {
		return model.StoredEventScore{}, fmt.Errorf("score %s/%s: %w: %s", team, event, ErrMissingField, totalKeys[0])
	}
	total, err := toInt(v)
	if err != nil {
		return model.StoredEventScore{}, fmt.Errorf("score %s/%s: %s: %w", team, event, key, err)
	}
	breakdown, _, err := lookupString(rec, breakdownKeys)
	if err != nil {
		return model.StoredEventScore{}, fmt.Errorf("score %s/%s: %w", team, event, err)
	}
	return model.StoredEventScore{
		TeamID:        model.NormalizeID(team),
		EventID:       model.NormalizeID(event),
		TotalPoints:   total,
		BreakdownText: breakdown,
	}, nil
}

// Weekend decodes a schedule entry. Times may be RFC 3339 strings or
// already-parsed YAML timestamps.
func Weekend(rec Record) (model.Weekend, error) {
	name, err := requireString(rec, []string{"name", "raceName", "weekend"})
	if err != nil {
		return model.Weekend{}, fmt.Errorf("weekend: %w", err)
	}
	w := model.Weekend{Name: strings.TrimSpace(name)}
	if v, key := lookup(rec, []string{"hasSprint", "has_sprint", "sprint"}); key != "" {
		b, ok := v.(bool)
		if !ok {
			return model.Weekend{}, fmt.Errorf("weekend %s: %s: %w: %T", name, key, ErrFieldType, v)
		}
		w.HasSprint = b
	}
	if w.RaceTime, err = requireTime(rec, []string{"raceTime", "race_time", "date"}); err != nil {
		return model.Weekend{}, fmt.Errorf("weekend %s: %w", name, err)
	}
	if w.HasSprint {
		if w.SprintTime, err = requireTime(rec, []string{"sprintTime", "sprint_time"}); err != nil {
			return model.Weekend{}, fmt.Errorf("weekend %s: %w", name, err)
		}
	}
	return w, nil
}

// Driver decodes a driver directory entry.
func Driver(rec Record) (model.Driver, error) {
	id, err := requireString(rec, []string{"id", "driverId", "driver_id"})
	if err != nil {
		return model.Driver{}, fmt.Errorf("driver: %w", err)
	}
	name, _, err := lookupString(rec, []string{"displayName", "display_name", "name"})
	if err != nil {
		return model.Driver{}, fmt.Errorf("driver %s: %w", id, err)
	}
	return model.Driver{ID: model.NormalizeID(id), DisplayName: strings.TrimSpace(name)}, nil
}

func weekendOfEvent(eventID string) string {
	id := model.NormalizeID(eventID)
	for _, suffix := range []string{"-sprint", "-gp"} {
		if trimmed, ok := strings.CutSuffix(id, suffix); ok {
			return trimmed
		}
	}
	return id
}

func lookup(rec Record, keys []string) (any, string) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, k
		}
	}
	return nil, ""
}

// lookupString returns "" and no key when none of keys is present.
func lookupString(rec Record, keys []string) (string, string, error) {
	v, key := lookup(rec, keys)
	if key == "" {
		return "", "", nil
	}
	switch t := v.(type) {
	case string:
		return t, key, nil
	case int, int64, float64, json.Number:
		n, err := toInt(t)
		if err != nil {
			return "", key, fmt.Errorf("%s: %w", key, err)
		}
		return strconv.Itoa(n), key, nil
	default:
		return "", key, fmt.Errorf("%s: %w: %T", key, ErrFieldType, v)
	}
}

func requireString(rec Record, keys []string) (string, error) {
	s, key, err := lookupString(rec, keys)
	if err != nil {
		return "", err
	}
	if key == "" || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, keys[0])
	}
	return s, nil
}

func requireTime(rec Record, keys []string) (time.Time, error) {
	v, key := lookup(rec, keys)
	if key == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingField, keys[0])
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w: %v", key, ErrFieldType, err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("%s: %w: %T", key, ErrFieldType, v)
	}
}

// requireDrivers accepts a list of ids or a map keyed P1..P6 (or 1..6).
// The count is not checked here; model constructors reject anything but six.
func requireDrivers(rec Record, keys []string) ([]string, error) {
	v, key := lookup(rec, keys)
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, keys[0])
	}
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, len(t))
		for i, item := range t {
			s, err := driverID(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			out[i] = s
		}
		return out, nil
	case map[string]any:
		return positionsFromMap(key, t)
	default:
		return nil, fmt.Errorf("%s: %w: %T", key, ErrFieldType, v)
	}
}

// driverID accepts a bare id or an object carrying one.
func driverID(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any:
		s, err := requireString(Record(t), []string{"id", "driverId", "driver_id", "driver"})
		if err != nil {
			return "", err
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrFieldType, v)
	}
}

func positionsFromMap(key string, m map[string]any) ([]string, error) {
	type entry struct {
		pos int
		id  string
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		pos, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(k)), "P"))
		if err != nil || pos < 1 {
			return nil, fmt.Errorf("%s.%s: %w: not a position", key, k, ErrFieldType)
		}
		id, err := driverID(v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", key, k, err)
		}
		entries = append(entries, entry{pos: pos, id: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })
	out := make([]string, len(entries))
	for i, e := range entries {
		if e.pos != i+1 {
			return nil, fmt.Errorf("%s: %w: position P%d missing", key, ErrMissingField, i+1)
		}
		out[i] = e.id
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: non-integer %v", ErrFieldType, t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFieldType, err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFieldType, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrFieldType, v)
	}
}
