package loader_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/adapters/cache"
	"github.com/aaronukgarcia/prixsix/internal/adapters/loader"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithOptions(logger.FormatText, io.Discard)
	m.Run()
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	active  atomic.Int32
	peak    atomic.Int32
	failOn  string
	release chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) EventRecords(ctx context.Context, ev model.EventDescriptor) (model.EventRecords, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return model.EventRecords{}, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls[ev.ID]++
	f.mu.Unlock()
	if ev.ID == f.failOn {
		return model.EventRecords{}, errors.New("boom")
	}
	rec := model.EventRecords{}
	if ev.HasStoredScores {
		rec.Stored = []model.StoredEventScore{{TeamID: "t", EventID: ev.ID, TotalPoints: ev.ChronologicalIndex}}
	}
	if ev.HasOfficialResult {
		rec.Result = &model.OfficialResult{EventID: ev.ID}
	}
	return rec, nil
}

func events(ids ...string) []model.EventDescriptor {
	out := make([]model.EventDescriptor, len(ids))
	for i, id := range ids {
		out[i] = model.EventDescriptor{ID: id, WeekendID: id, ChronologicalIndex: i, HasStoredScores: true}
	}
	return out
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loader with two workers", t, func() {
		f := newFakeFetcher()
		c := cache.New()
		l := loader.New(f, loader.WithWorkers(2), loader.WithCache(c))

		Convey("When several events are loaded", func() {
			recs, err := l.Load(ctx, events("a", "b", "c", "d", "e"))

			Convey("Then results follow input order", func() {
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 5)
				for i, r := range recs {
					So(r.Event.ChronologicalIndex, ShouldEqual, i)
					So(r.Stored[0].TotalPoints, ShouldEqual, i)
				}
			})

			Convey("Then no more than two fetches ran at once", func() {
				So(f.peak.Load(), ShouldBeLessThanOrEqualTo, 2)
			})

			Convey("Then a second load is served from the cache", func() {
				_, err := l.Load(ctx, events("a", "b", "c", "d", "e"))
				So(err, ShouldBeNil)
				So(f.calls["a"], ShouldEqual, 1)
				So(c.Stats().Hits, ShouldEqual, 5)
			})
		})

		Convey("When an event gains a result after its records were cached", func() {
			before := model.EventDescriptor{ID: "japan-gp", WeekendID: "japan"}
			_, err := l.Load(ctx, []model.EventDescriptor{before})
			So(err, ShouldBeNil)

			after := before
			after.HasOfficialResult = true
			recs, err := l.Load(ctx, []model.EventDescriptor{after})

			Convey("Then the stale entry is refetched", func() {
				So(err, ShouldBeNil)
				So(f.calls["japan-gp"], ShouldEqual, 2)
				So(recs[0].Result, ShouldNotBeNil)
				So(recs[0].Event.HasOfficialResult, ShouldBeTrue)
			})

			Convey("Then the refreshed entry is served from the cache next time", func() {
				_, err := l.Load(ctx, []model.EventDescriptor{after})
				So(err, ShouldBeNil)
				So(f.calls["japan-gp"], ShouldEqual, 2)
			})
		})

		Convey("When an event loses its stored scores after caching", func() {
			ev := model.EventDescriptor{ID: "china-gp", WeekendID: "china", HasStoredScores: true}
			_, err := l.Load(ctx, []model.EventDescriptor{ev})
			So(err, ShouldBeNil)

			ev.HasStoredScores = false
			recs, err := l.Load(ctx, []model.EventDescriptor{ev})

			Convey("Then the cached scores are not reused", func() {
				So(err, ShouldBeNil)
				So(f.calls["china-gp"], ShouldEqual, 2)
				So(recs[0].Stored, ShouldBeEmpty)
			})
		})

		Convey("When one fetch fails", func() {
			f.failOn = "c"
			_, err := l.Load(ctx, events("a", "b", "c"))

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "fetch event c")
			})
		})

		Convey("When the context is cancelled while fetching", func() {
			f.release = make(chan struct{})
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := l.Load(cctx, events("a", "b"))

			Convey("Then the load fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given no events", t, func() {
		l := loader.New(newFakeFetcher())
		recs, err := l.Load(ctx, nil)
		So(err, ShouldBeNil)
		So(len(recs), ShouldEqual, 0)
		So(l.Workers(), ShouldEqual, 4)
	})
}
