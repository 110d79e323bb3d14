package repository

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"
)

// Seed is the YAML layout of a league data file. Entries keep whatever field
// spellings the producer used.
type Seed struct {
	Drivers     []ingest.Record `yaml:"drivers,omitempty"`
	Schedule    []ingest.Record `yaml:"schedule,omitempty"`
	Teams       []ingest.Record `yaml:"teams,omitempty"`
	Predictions []ingest.Record `yaml:"predictions,omitempty"`
	Results     []ingest.Record `yaml:"results,omitempty"`
	Scores      []ingest.Record `yaml:"scores,omitempty"`
}

// ImportStats counts documents written by ImportSeed.
type ImportStats struct {
	Drivers     int
	Weekends    int
	Teams       int
	Predictions int
	Results     int
	Scores      int
}

// Total returns the number of documents written.
func (s ImportStats) Total() int {
	return s.Drivers + s.Weekends + s.Teams + s.Predictions + s.Results + s.Scores
}

// ReadSeed decodes a YAML seed.
func ReadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// WriteSeed encodes seed as YAML.
func WriteSeed(w io.Writer, seed Seed) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seed); err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	return enc.Close()
}

// ImportSeedFile imports the YAML seed at path.
func ImportSeedFile(ctx context.Context, store Store, path string) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return ImportSeed(ctx, store, f)
}

// ImportSeed validates every seed entry and writes it to store. Any invalid
// entry aborts the import before anything is written.
func ImportSeed(ctx context.Context, store Store, r io.Reader) (ImportStats, error) {
	seed, err := ReadSeed(r)
	if err != nil {
		return ImportStats{}, err
	}
	docs, stats, err := seedDocuments(seed)
	if err != nil {
		return ImportStats{}, err
	}
	if err := store.Put(ctx, docs...); err != nil {
		return ImportStats{}, fmt.Errorf("store seed: %w", err)
	}
	metrics.UpdateRepositoryDocuments(stats.Total())
	return stats, nil
}

func seedDocuments(seed Seed) ([]Document, ImportStats, error) {
	var (
		docs  []Document
		stats ImportStats
	)
	for i, rec := range seed.Drivers {
		d, err := ingest.Driver(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("drivers[%d]: %w", i, err)
		}
		docs = append(docs, Document{Collection: CollectionDrivers, ID: d.ID, Seq: i, Payload: rec})
		stats.Drivers++
	}
	for i, rec := range seed.Schedule {
		w, err := ingest.Weekend(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("schedule[%d]: %w", i, err)
		}
		docs = append(docs, Document{Collection: CollectionSchedule, ID: catalog.WeekendID(w.Name), Seq: i, Payload: rec})
		stats.Weekends++
	}
	for i, rec := range seed.Teams {
		t, err := ingest.Team(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("teams[%d]: %w", i, err)
		}
		docs = append(docs, Document{Collection: CollectionTeams, ID: t.ID, Seq: i, Payload: rec})
		stats.Teams++
	}
	for i, rec := range seed.Predictions {
		p, err := ingest.Prediction(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("predictions[%d]: %w", i, err)
		}
		docs = append(docs, Document{
			Collection: CollectionPredictions,
			ID:         p.WeekendID + "/" + p.TeamID,
			Scope:      p.WeekendID,
			Payload:    rec,
		})
		stats.Predictions++
	}
	for i, rec := range seed.Results {
		res, err := ingest.OfficialResult(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("results[%d]: %w", i, err)
		}
		docs = append(docs, Document{Collection: CollectionResults, ID: res.EventID, Scope: res.EventID, Payload: rec})
		stats.Results++
	}
	for i, rec := range seed.Scores {
		s, err := ingest.StoredScore(rec)
		if err != nil {
			return nil, stats, fmt.Errorf("scores[%d]: %w", i, err)
		}
		docs = append(docs, Document{
			Collection: CollectionScores,
			ID:         s.EventID + "/" + s.TeamID,
			Scope:      s.EventID,
			Payload:    rec,
		})
		stats.Scores++
	}
	return docs, stats, nil
}
