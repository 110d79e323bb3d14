package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const seedYAML = `
drivers:
  - id: VER
    name: Max Verstappen
  - id: nor
    displayName: Lando Norris
schedule:
  - name: Bahrain
    race_time: "2025-03-02T15:00:00Z"
  - name: China
    hasSprint: true
    sprintTime: "2025-03-22T03:00:00Z"
    raceTime: "2025-03-23T07:00:00Z"
teams:
  - id: t1
    name: Box Box
  - userId: T2
    teamName: Lights Out
predictions:
  - userId: T1
    raceId: China
    predictions: [ver, nor, lec, pia, ham, rus]
  - teamId: t2
    weekendId: china
    slots: [nor, ver, pia, lec, rus, ham]
results:
  - eventId: china-sprint
    top6: [ver, nor, lec, pia, ham, rus]
scores:
  - userId: t1
    eventId: china-sprint
    totalPoints: 46
    breakdown: legacy
`

func TestMain(m *testing.M) {
	_ = logger.InitWithOptions(logger.FormatText, io.Discard)
	m.Run()
}

func storeContract(open func() repository.Store) {
	ctx := context.Background()

	Convey("When documents are stored", func() {
		s := open()
		defer s.Close()
		err := s.Put(ctx,
			repository.Document{Collection: "c", ID: "b", Scope: "x", Seq: 1, Payload: ingest.Record{"v": "b"}},
			repository.Document{Collection: "c", ID: "a", Scope: "x", Seq: 1, Payload: ingest.Record{"v": "a"}},
			repository.Document{Collection: "c", ID: "z", Scope: "y", Seq: 0, Payload: ingest.Record{"v": "z"}},
		)
		So(err, ShouldBeNil)

		Convey("Then Get returns one by key", func() {
			d, err := s.Get(ctx, "c", "a")
			So(err, ShouldBeNil)
			So(d.Payload["v"], ShouldEqual, "a")
			So(d.Scope, ShouldEqual, "x")
		})

		Convey("Then an unknown key is ErrNotFound", func() {
			_, err := s.Get(ctx, "c", "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then List orders by seq then id and pages", func() {
			all, err := s.List(ctx, "c", "", 0, 0)
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 3)
			So(all[0].ID, ShouldEqual, "z")
			So(all[1].ID, ShouldEqual, "a")
			So(all[2].ID, ShouldEqual, "b")

			page, err := s.List(ctx, "c", "", 1, 1)
			So(err, ShouldBeNil)
			So(len(page), ShouldEqual, 1)
			So(page[0].ID, ShouldEqual, "a")

			scoped, err := s.List(ctx, "c", "x", 0, 0)
			So(err, ShouldBeNil)
			So(len(scoped), ShouldEqual, 2)
		})

		Convey("Then Count and Scopes agree with the data", func() {
			n, err := s.Count(ctx, "c", "")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
			n, err = s.Count(ctx, "c", "y")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			scopes, err := s.Scopes(ctx, "c")
			So(err, ShouldBeNil)
			So(scopes, ShouldResemble, []string{"x", "y"})
		})

		Convey("Then Put replaces an existing key", func() {
			So(s.Put(ctx, repository.Document{Collection: "c", ID: "a", Scope: "y", Payload: ingest.Record{"v": "a2"}}), ShouldBeNil)
			d, err := s.Get(ctx, "c", "a")
			So(err, ShouldBeNil)
			So(d.Payload["v"], ShouldEqual, "a2")
			n, _ := s.Count(ctx, "c", "")
			So(n, ShouldEqual, 3)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		storeContract(func() repository.Store { return repository.NewMemoryStore() })
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store in a temp dir", t, func() {
		dir := t.TempDir()
		n := 0
		storeContract(func() repository.Store {
			n++
			s, err := repository.Open(context.Background(), repository.DriverSQLite,
				filepath.Join(dir, "db", strings.Repeat("x", n)+".db"))
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given an unknown driver", t, func() {
		_, err := repository.Open(context.Background(), "oracle", "")
		So(errors.Is(err, repository.ErrUnsupportedDriver), ShouldBeTrue)
	})
}

func TestSeedAndRecords(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded memory store", t, func() {
		store := repository.NewMemoryStore()
		stats, err := repository.ImportSeed(ctx, store, strings.NewReader(seedYAML))
		So(err, ShouldBeNil)
		So(stats.Drivers, ShouldEqual, 2)
		So(stats.Weekends, ShouldEqual, 2)
		So(stats.Total(), ShouldEqual, 10)

		recs := repository.NewRecords(store, nil)

		Convey("Then the schedule keeps file order", func() {
			sched, err := recs.Schedule(ctx)
			So(err, ShouldBeNil)
			So(len(sched), ShouldEqual, 2)
			So(sched[0].Name, ShouldEqual, "Bahrain")
			So(sched[1].HasSprint, ShouldBeTrue)
		})

		Convey("Then team field variants are normalised", func() {
			names, err := recs.TeamNames(ctx)
			So(err, ShouldBeNil)
			So(names["t2"], ShouldEqual, "Lights Out")

			page, err := recs.TeamsPage(ctx, 1, 5)
			So(err, ShouldBeNil)
			So(len(page), ShouldEqual, 1)
			So(page[0].ID, ShouldEqual, "t2")
		})

		Convey("Then weekend predictions are found under either spelling", func() {
			preds, err := recs.Predictions(ctx, "China")
			So(err, ShouldBeNil)
			So(len(preds), ShouldEqual, 2)
		})

		Convey("Then results and stored scores are keyed by event", func() {
			res, err := recs.Result(ctx, "china-sprint")
			So(err, ShouldBeNil)
			So(res, ShouldNotBeNil)
			So(res.Top6[0], ShouldEqual, "ver")

			none, err := recs.Result(ctx, "china-gp")
			So(err, ShouldBeNil)
			So(none, ShouldBeNil)

			scores, err := recs.StoredScores(ctx, "china-sprint")
			So(err, ShouldBeNil)
			So(len(scores), ShouldEqual, 1)
			So(scores[0].TotalPoints, ShouldEqual, 46)

			ids, err := recs.EventsWithResults(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []string{"china-sprint"})
		})

		Convey("Then a prediction with the wrong slot count fails the read", func() {
			So(store.Put(ctx, repository.Document{
				Collection: repository.CollectionPredictions, ID: "china/bad", Scope: "china",
				Payload: ingest.Record{"teamId": "bad", "weekendId": "china", "slots": []any{"a"}},
			}), ShouldBeNil)
			_, err := recs.Predictions(ctx, "china")
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidPrediction), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "predictions/china/bad")

			_, err = recs.EventRecords(ctx, model.EventDescriptor{ID: "china-gp", WeekendID: "china"})
			So(errors.Is(err, model.ErrInvalidPrediction), ShouldBeTrue)
		})

		Convey("Then a malformed result is an error rather than an absent result", func() {
			So(store.Put(ctx, repository.Document{
				Collection: repository.CollectionResults, ID: "china-gp", Scope: "china-gp",
				Payload: ingest.Record{"eventId": "china-gp", "top6": []any{"ver", "nor"}},
			}), ShouldBeNil)
			res, err := recs.Result(ctx, "china-gp")
			So(res, ShouldBeNil)
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidResult), ShouldBeTrue)
		})

		Convey("Then a weekend without a race time fails the schedule", func() {
			So(store.Put(ctx, repository.Document{
				Collection: repository.CollectionSchedule, ID: "japan", Seq: 2,
				Payload: ingest.Record{"name": "Japan"},
			}), ShouldBeNil)
			sched, err := recs.Schedule(ctx)
			So(sched, ShouldBeNil)
			So(errors.Is(err, catalog.ErrInvalidSchedule), ShouldBeTrue)
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("Then a malformed team is skipped", func() {
			So(store.Put(ctx, repository.Document{
				Collection: repository.CollectionTeams, ID: "ghost", Seq: 9,
				Payload: ingest.Record{"name": "No Id"},
			}), ShouldBeNil)
			teams, err := recs.Teams(ctx)
			So(err, ShouldBeNil)
			So(len(teams), ShouldEqual, 2)
		})
	})

	Convey("Given a seed with an invalid prediction", t, func() {
		store := repository.NewMemoryStore()
		_, err := repository.ImportSeed(ctx, store, strings.NewReader(`
predictions:
  - teamId: t1
    weekendId: china
    slots: [a, b]
`))

		Convey("Then nothing is written", func() {
			So(err, ShouldNotBeNil)
			n, _ := store.Count(ctx, repository.CollectionPredictions, "")
			So(n, ShouldEqual, 0)
		})
	})

	Convey("Given a seed written and read back", t, func() {
		var buf bytes.Buffer
		in := repository.Seed{Teams: []ingest.Record{{"id": "a", "name": "A"}}}
		So(repository.WriteSeed(&buf, in), ShouldBeNil)
		out, err := repository.ReadSeed(&buf)
		So(err, ShouldBeNil)
		So(out.Teams[0]["name"], ShouldEqual, "A")
	})
}
