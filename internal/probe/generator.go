package probe

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/drivers"
	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
)

const (
	weekendSpacing = 7 * 24 * time.Hour
	sprintLead     = 24 * time.Hour
)

var teamNamespace = uuid.MustParse("6f1c2a52-3f0e-4c59-9d0e-5b8f4e2b7a10")

// Generate builds a reproducible league seed. Team ids are name-based UUIDs
// derived from the seed, so regenerating with the same seed keeps them stable.
func Generate(ctx context.Context, cfg GenerateConfig) (repository.Seed, error) {
	if cfg.Teams <= 0 || cfg.Weekends <= 0 {
		return repository.Seed{}, fmt.Errorf("generate: need at least one team and one weekend")
	}
	if cfg.Completed < 0 || cfg.Completed > cfg.Weekends {
		return repository.Seed{}, fmt.Errorf("generate: completed weekends %d out of range [0, %d]", cfg.Completed, cfg.Weekends)
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2025, time.March, 16, 4, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))
	grid := drivers.Grid()

	var seed repository.Seed
	for _, d := range grid {
		seed.Drivers = append(seed.Drivers, ingest.Record{"id": d.ID, "displayName": d.DisplayName})
	}

	teamIDs := make([]string, cfg.Teams)
	for i := range teamIDs {
		teamIDs[i] = uuid.NewSHA1(teamNamespace, fmt.Appendf(nil, "%d/%d", cfg.Seed, i)).String()
		seed.Teams = append(seed.Teams, ingest.Record{
			"id":   teamIDs[i],
			"name": fmt.Sprintf("Team %03d", i+1),
		})
	}

	for w := 0; w < cfg.Weekends; w++ {
		if err := ctx.Err(); err != nil {
			return repository.Seed{}, fmt.Errorf("generate: %w", err)
		}
		name := fmt.Sprintf("Round %02d", w+1)
		race := start.Add(time.Duration(w) * weekendSpacing)
		sprint := cfg.SprintEvery > 0 && (w+1)%cfg.SprintEvery == 0
		entry := ingest.Record{"name": name, "raceTime": race.Format(time.RFC3339)}
		if sprint {
			entry["hasSprint"] = true
			entry["sprintTime"] = race.Add(-sprintLead).Format(time.RFC3339)
		}
		seed.Schedule = append(seed.Schedule, entry)

		weekendID := catalog.WeekendID(name)
		for _, team := range teamIDs {
			// A few teams sit each weekend out.
			if rng.IntN(10) == 0 {
				continue
			}
			seed.Predictions = append(seed.Predictions, ingest.Record{
				"teamId":    team,
				"weekendId": weekendID,
				"slots":     pickSix(rng, grid),
			})
		}

		if w >= cfg.Completed {
			continue
		}
		if sprint {
			seed.Results = append(seed.Results, ingest.Record{
				"eventId": catalog.EventID(name, model.KindSprint),
				"top6":    pickSix(rng, grid),
			})
		}
		seed.Results = append(seed.Results, ingest.Record{
			"eventId": catalog.EventID(name, model.KindGrandPrix),
			"top6":    pickSix(rng, grid),
		})
	}

	logger.Get().Info(ctx, "generated league",
		logger.Int("teams", len(seed.Teams)),
		logger.Int("weekends", len(seed.Schedule)),
		logger.Int("predictions", len(seed.Predictions)),
		logger.Int("results", len(seed.Results)),
	)
	return seed, nil
}

// WriteSeedFile writes seed to path as YAML.
func WriteSeedFile(path string, seed repository.Seed) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create seed file: %w", err)
	}
	if err := repository.WriteSeed(f, seed); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// pickSix draws six distinct drivers.
func pickSix(rng *rand.Rand, grid []model.Driver) []string {
	idx := rng.Perm(len(grid))[:model.SlotCount]
	out := make([]string, model.SlotCount)
	for i, j := range idx {
		out[i] = grid[j].ID
	}
	return out
}
