package catalog_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 15, 0, 0, 0, time.UTC)
}

func season() []model.Weekend {
	return []model.Weekend{
		{Name: "Australian Grand Prix", RaceTime: day(2)},
		{Name: "Chinese Grand Prix", HasSprint: true, SprintTime: day(8), RaceTime: day(9)},
		{Name: "São Paulo GP", RaceTime: day(16)},
	}
}

func TestWeekendID(t *testing.T) {
	Convey("Given weekend names", t, func() {
		So(catalog.WeekendID("Australian Grand Prix"), ShouldEqual, "australian-grand-prix")
		So(catalog.WeekendID("  Emilia-Romagna  (Imola) "), ShouldEqual, "emilia-romagna-imola")
		So(catalog.WeekendID("São Paulo"), ShouldEqual, "são-paulo")
		So(catalog.EventID("Chinese GP", model.KindSprint), ShouldEqual, "chinese-gp-sprint")
		So(catalog.EventID("Chinese GP", model.KindGrandPrix), ShouldEqual, "chinese-gp-gp")
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a valid schedule", t, func() {
		c, err := catalog.Build(season())
		So(err, ShouldBeNil)

		Convey("Then each weekend yields a GP and an optional preceding Sprint", func() {
			events := c.Events()
			So(len(events), ShouldEqual, 4)
			So(events[0].ID, ShouldEqual, "australian-grand-prix-gp")
			So(events[1].Kind, ShouldEqual, model.KindSprint)
			So(events[1].ID, ShouldEqual, "chinese-grand-prix-sprint")
			So(events[2].Kind, ShouldEqual, model.KindGrandPrix)
			So(events[1].ChronologicalIndex, ShouldBeLessThan, events[2].ChronologicalIndex)
			So(events[2].WeekendID, ShouldEqual, events[1].WeekendID)
			for i, e := range events {
				So(e.ChronologicalIndex, ShouldEqual, i)
			}
		})

		Convey("Then identifiers are stable across rebuilds", func() {
			again, err := catalog.Build(season())
			So(err, ShouldBeNil)
			So(again.Events(), ShouldResemble, c.Events())
		})

		Convey("Then lookups work by id and weekend", func() {
			e, ok := c.Lookup("CHINESE-GRAND-PRIX-GP")
			So(ok, ShouldBeTrue)
			So(e.ChronologicalIndex, ShouldEqual, 2)
			_, ok = c.Lookup("nope")
			So(ok, ShouldBeFalse)
			So(len(c.WeekendEvents("chinese-grand-prix")), ShouldEqual, 2)
			So(c.WeekendIDs(), ShouldResemble, []string{"australian-grand-prix", "chinese-grand-prix", "são-paulo-gp"})
		})

		Convey("Then nothing is completed until annotated", func() {
			So(c.Completed(), ShouldBeEmpty)
			_, ok := c.LatestCompleted()
			So(ok, ShouldBeFalse)
		})

		Convey("When completion is annotated", func() {
			done := c.WithCompletion([]string{"australian-grand-prix-gp"}, []string{"chinese-grand-prix-sprint", "unknown"})

			Convey("Then the completed view filters to scored events", func() {
				completed := done.Completed()
				So(len(completed), ShouldEqual, 2)
				So(completed[0].HasOfficialResult, ShouldBeTrue)
				So(completed[1].HasStoredScores, ShouldBeTrue)
				latest, ok := done.LatestCompleted()
				So(ok, ShouldBeTrue)
				So(latest.ID, ShouldEqual, "chinese-grand-prix-sprint")
			})

			Convey("Then the original catalog is untouched", func() {
				So(c.Completed(), ShouldBeEmpty)
			})
		})
	})
}

func TestBuild_Rejects(t *testing.T) {
	Convey("Given malformed schedules", t, func() {
		cases := map[string][]model.Weekend{
			"empty":           nil,
			"blank name":      {{Name: "  ", RaceTime: day(1)}},
			"no race time":    {{Name: "A"}},
			"sprint no time":  {{Name: "A", HasSprint: true, RaceTime: day(2)}},
			"sprint after gp": {{Name: "A", HasSprint: true, SprintTime: day(3), RaceTime: day(2)}},
			"duplicate":       {{Name: "A GP", RaceTime: day(1)}, {Name: "a gp", RaceTime: day(5)}},
			"out of order":    {{Name: "A", RaceTime: day(5)}, {Name: "B", RaceTime: day(1)}},
			"sprint overlaps": {{Name: "A", RaceTime: day(5)}, {Name: "B", HasSprint: true, SprintTime: day(4), RaceTime: day(9)}},
		}
		for name, schedule := range cases {
			_, err := catalog.Build(schedule)
			Convey("Then "+name+" is rejected", func() {
				So(errors.Is(err, catalog.ErrInvalidSchedule), ShouldBeTrue)
			})
		}
	})
}

func TestEmpty(t *testing.T) {
	Convey("Given an empty catalog", t, func() {
		c := catalog.Empty()

		Convey("Then it has no events and nothing completed", func() {
			So(c.Len(), ShouldEqual, 0)
			So(c.Events(), ShouldNotBeNil)
			So(c.Events(), ShouldBeEmpty)
			_, ok := c.LatestCompleted()
			So(ok, ShouldBeFalse)
			_, ok = c.Lookup("bahrain-gp")
			So(ok, ShouldBeFalse)
		})

		Convey("Then completion flags for unknown events are ignored", func() {
			So(c.WithCompletion([]string{"bahrain-gp"}, nil).Len(), ShouldEqual, 0)
		})
	})
}
