package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aaronukgarcia/prixsix/internal/adapters/mcp"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithOptions(logger.FormatText, io.Discard)
}

type fakeLeague struct {
	completed bool
	err       error
}

func (f *fakeLeague) Events(_ context.Context, completedOnly bool) ([]model.EventDescriptor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.EventDescriptor{{ID: "china-gp", WeekendID: "china", Kind: model.KindGrandPrix, HasOfficialResult: true}}, nil
}

func (f *fakeLeague) Standings(_ context.Context, eventID string, limit int, cursor string) (window.Window[model.StandingsRow], error) {
	if eventID != "china-gp" {
		return window.Window[model.StandingsRow]{}, errors.New("event not found")
	}
	rows := []model.StandingsRow{{TeamID: "t1", Rank: 1}, {TeamID: "t2", Rank: 2}}
	if limit == 0 {
		limit = 25
	}
	return window.Page(rows, limit, cursor)
}

func (f *fakeLeague) EventResults(_ context.Context, eventID string, limit int, cursor string) (window.Window[model.TeamEventResult], error) {
	return window.Page([]model.TeamEventResult{{TeamID: "t1", EventID: eventID, Status: model.StatusPending}}, 10, cursor)
}

func (f *fakeLeague) LatestCompleted(context.Context) (model.EventDescriptor, bool, error) {
	if !f.completed {
		return model.EventDescriptor{}, false, nil
	}
	return model.EventDescriptor{ID: "china-gp"}, true, nil
}

func text(res *sdk.CallToolResult) string {
	So(len(res.Content), ShouldEqual, 1)
	tc, ok := res.Content[0].(*sdk.TextContent)
	So(ok, ShouldBeTrue)
	return tc.Text
}

func TestTools(t *testing.T) {
	ctx := context.Background()

	Convey("Given tools over a league", t, func() {
		league := &fakeLeague{completed: true}
		tools := mcp.NewTools(league)

		Convey("When events are listed", func() {
			res, _, err := tools.ListEvents(ctx, nil, mcp.ListEventsArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)
			So(text(res), ShouldContainSubstring, `"china-gp"`)
		})

		Convey("When standings are requested without an event", func() {
			res, _, err := tools.Standings(ctx, nil, mcp.StandingsArgs{Limit: 1})

			Convey("Then the latest completed event is used", func() {
				So(err, ShouldBeNil)
				var body map[string]any
				So(json.Unmarshal([]byte(text(res)), &body), ShouldBeNil)
				So(body["event_id"], ShouldEqual, "china-gp")
				So(body["has_more"], ShouldBeTrue)
				So(body["progress"], ShouldEqual, "1 / 2")
			})
		})

		Convey("When nothing is completed yet", func() {
			league.completed = false
			res, _, err := tools.Standings(ctx, nil, mcp.StandingsArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
		})

		Convey("When an unknown event is requested", func() {
			res, _, err := tools.Standings(ctx, nil, mcp.StandingsArgs{EventID: "monaco-gp"})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
			So(text(res), ShouldContainSubstring, "not found")
		})

		Convey("When event results omit the event id", func() {
			res, _, err := tools.EventResults(ctx, nil, mcp.EventResultsArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
		})

		Convey("When event results are requested", func() {
			res, _, err := tools.EventResults(ctx, nil, mcp.EventResultsArgs{EventID: "china-gp"})
			So(err, ShouldBeNil)
			So(text(res), ShouldContainSubstring, `"pending"`)
		})

		Convey("When the upstream fails", func() {
			league.err = errors.New("boom")
			res, _, err := tools.ListEvents(ctx, nil, mcp.ListEventsArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given the MCP HTTP handler", t, func() {
		h := mcp.Handler(&fakeLeague{}, "test")

		Convey("When a client initializes", func() {
			body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"probe","version":"1"}}}`
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then the server identifies itself", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, mcp.ServerName)
			})
		})
	})
}
