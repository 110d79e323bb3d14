package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/adapters/cache"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func records(weekend, kind string) model.EventRecords {
	return model.EventRecords{Event: model.EventDescriptor{ID: weekend + "-" + kind, WeekendID: weekend}}
}

func TestCache(t *testing.T) {
	Convey("Given a new cache", t, func() {
		c := cache.New()

		Convey("When an event is stored", func() {
			c.Put(records("bahrain", "gp"))

			Convey("Then it is returned and counted as a hit", func() {
				got, ok := c.Get("bahrain-gp")
				So(ok, ShouldBeTrue)
				So(got.Event.WeekendID, ShouldEqual, "bahrain")
				So(c.Stats().Hits, ShouldEqual, 1)
			})

			Convey("Then an unknown event is a miss", func() {
				_, ok := c.Get("jeddah-gp")
				So(ok, ShouldBeFalse)
				So(c.Stats().Misses, ShouldEqual, 1)
			})

			Convey("Then storing it again replaces the value", func() {
				rec := records("bahrain", "gp")
				rec.Stored = []model.StoredEventScore{{TeamID: "t", EventID: "bahrain-gp", TotalPoints: 3}}
				c.Put(rec)
				got, _ := c.Get("bahrain-gp")
				So(len(got.Stored), ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a weekend is invalidated", func() {
			c.Put(records("china", "sprint"))
			c.Put(records("china", "gp"))
			c.Put(records("japan", "gp"))
			removed := c.InvalidateWeekend("china")

			Convey("Then only that weekend's events are dropped", func() {
				So(removed, ShouldEqual, 2)
				So(c.Len(), ShouldEqual, 1)
				_, ok := c.Get("japan-gp")
				So(ok, ShouldBeTrue)
				So(c.Stats().Invalidations, ShouldEqual, 2)
			})

			Convey("Then single events and resets work too", func() {
				So(c.InvalidateEvent("japan-gp"), ShouldBeTrue)
				So(c.InvalidateEvent("japan-gp"), ShouldBeFalse)
				c.Put(records("miami", "gp"))
				So(c.Reset(), ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded cache", t, func() {
		c := cache.New(cache.WithMaxSize(2))
		c.Put(records("a", "gp"))
		c.Put(records("b", "gp"))
		c.Put(records("c", "gp"))

		Convey("Then the oldest insertion is evicted", func() {
			So(c.Len(), ShouldEqual, 2)
			_, ok := c.Get("a-gp")
			So(ok, ShouldBeFalse)
			_, ok = c.Get("c-gp")
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given an unbounded cache under concurrent use", t, func() {
		c := cache.New(cache.WithMaxSize(0))
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c.Put(records(fmt.Sprintf("w%d", i), "gp"))
				c.Get(fmt.Sprintf("w%d-gp", i))
			}(i)
		}
		wg.Wait()

		So(c.Len(), ShouldEqual, 20)
		So(c.Stats().Hits, ShouldEqual, 20)
	})
}
