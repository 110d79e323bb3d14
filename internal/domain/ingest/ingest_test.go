package ingest_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func decode(s string) ingest.Record {
	var rec ingest.Record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		panic(err)
	}
	return rec
}

func TestPrediction(t *testing.T) {
	Convey("Given prediction records in different shapes", t, func() {
		Convey("When the legacy userId and raceId names are used", func() {
			p, err := ingest.Prediction(decode(`{"userId":"U-1","raceId":"Bahrain Grand Prix","predictions":["VER","NOR","LEC","PIA","HAM","RUS"]}`))

			Convey("Then they map onto the canonical fields", func() {
				So(err, ShouldBeNil)
				So(p.TeamID, ShouldEqual, "u-1")
				So(p.WeekendID, ShouldEqual, "bahrain-grand-prix")
				So(p.Slots[0], ShouldEqual, "ver")
			})
		})

		Convey("When slots are keyed by position and the weekend comes from an event id", func() {
			p, err := ingest.Prediction(decode(`{"teamId":"t","eventId":"china-sprint","slots":{"P2":"b","P1":"a","P3":"c","P4":"d","P5":"e","P6":"f"}}`))

			Convey("Then order follows the keys", func() {
				So(err, ShouldBeNil)
				So(p.WeekendID, ShouldEqual, "china")
				So(p.Slots, ShouldResemble, [6]string{"a", "b", "c", "d", "e", "f"})
			})
		})

		Convey("When drivers are objects", func() {
			p, err := ingest.Prediction(decode(`{"teamId":"t","weekendId":"w","drivers":[{"id":"a"},{"id":"b"},{"id":"c"},{"id":"d"},{"id":"e"},{"driverId":"f"}]}`))

			Convey("Then their ids are used", func() {
				So(err, ShouldBeNil)
				So(p.Slots[5], ShouldEqual, "f")
			})
		})

		Convey("When the record is malformed", func() {
			_, noTeam := ingest.Prediction(decode(`{"weekendId":"w","slots":["a","b","c","d","e","f"]}`))
			_, noWeekend := ingest.Prediction(decode(`{"teamId":"t","slots":["a","b","c","d","e","f"]}`))
			_, short := ingest.Prediction(decode(`{"teamId":"t","weekendId":"w","slots":["a","b"]}`))
			_, badType := ingest.Prediction(decode(`{"teamId":"t","weekendId":"w","slots":"a,b,c"}`))
			_, gap := ingest.Prediction(decode(`{"teamId":"t","weekendId":"w","slots":{"P1":"a","P3":"c"}}`))

			Convey("Then each is rejected with its kind", func() {
				So(errors.Is(noTeam, ingest.ErrMissingField), ShouldBeTrue)
				So(errors.Is(noWeekend, ingest.ErrMissingField), ShouldBeTrue)
				So(errors.Is(short, model.ErrInvalidPrediction), ShouldBeTrue)
				So(errors.Is(badType, ingest.ErrFieldType), ShouldBeTrue)
				So(errors.Is(gap, ingest.ErrMissingField), ShouldBeTrue)
			})
		})
	})
}

func TestOfficialResultAndScore(t *testing.T) {
	Convey("Given result and score records", t, func() {
		r, err := ingest.OfficialResult(decode(`{"raceId":"Bahrain-GP","results":["A","B","C","D","E","F"]}`))
		So(err, ShouldBeNil)
		So(r.EventID, ShouldEqual, "bahrain-gp")
		So(r.Top6[5], ShouldEqual, "f")

		s, err := ingest.StoredScore(decode(`{"userId":"U1","eventId":"bahrain-gp","points":32,"breakdown":"x"}`))
		So(err, ShouldBeNil)
		So(s, ShouldResemble, model.StoredEventScore{TeamID: "u1", EventID: "bahrain-gp", TotalPoints: 32, BreakdownText: "x"})

		s, err = ingest.StoredScore(ingest.Record{"teamId": "t", "eventId": "e", "totalPoints": "12"})
		So(err, ShouldBeNil)
		So(s.TotalPoints, ShouldEqual, 12)

		_, err = ingest.StoredScore(decode(`{"teamId":"t","eventId":"e","points":1.5}`))
		So(errors.Is(err, ingest.ErrFieldType), ShouldBeTrue)
		_, err = ingest.StoredScore(decode(`{"teamId":"t","eventId":"e"}`))
		So(errors.Is(err, ingest.ErrMissingField), ShouldBeTrue)
	})
}

func TestWeekendTeamDriver(t *testing.T) {
	Convey("Given schedule, team, and driver records", t, func() {
		w, err := ingest.Weekend(decode(`{"name":"China","hasSprint":true,"sprintTime":"2025-03-22T03:00:00Z","raceTime":"2025-03-23T07:00:00Z"}`))
		So(err, ShouldBeNil)
		So(w.HasSprint, ShouldBeTrue)
		So(w.RaceTime, ShouldEqual, time.Date(2025, 3, 23, 7, 0, 0, 0, time.UTC))

		yamlTime := time.Date(2025, 3, 16, 4, 0, 0, 0, time.UTC)
		w, err = ingest.Weekend(ingest.Record{"name": "Australia", "race_time": yamlTime})
		So(err, ShouldBeNil)
		So(w.RaceTime, ShouldEqual, yamlTime)

		_, err = ingest.Weekend(decode(`{"name":"X","hasSprint":true,"raceTime":"2025-03-23T07:00:00Z"}`))
		So(errors.Is(err, ingest.ErrMissingField), ShouldBeTrue)
		_, err = ingest.Weekend(decode(`{"name":"X","raceTime":"tomorrow"}`))
		So(errors.Is(err, ingest.ErrFieldType), ShouldBeTrue)

		team, err := ingest.Team(decode(`{"userId":"U1","teamName":" Box Box "}`))
		So(err, ShouldBeNil)
		So(team, ShouldResemble, model.Team{ID: "u1", Name: "Box Box"})
		team, err = ingest.Team(decode(`{"id":"t2"}`))
		So(err, ShouldBeNil)
		So(team.Name, ShouldEqual, "t2")

		d, err := ingest.Driver(decode(`{"id":"VER","name":"Max Verstappen"}`))
		So(err, ShouldBeNil)
		So(d, ShouldResemble, model.Driver{ID: "ver", DisplayName: "Max Verstappen"})
	})
}
