package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/config"
	"github.com/aaronukgarcia/prixsix/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const seed = `
schedule:
  - name: Bahrain
    raceTime: "2025-04-13T15:00:00Z"
teams:
  - id: t1
    name: Alpha
predictions:
  - teamId: t1
    weekendId: bahrain
    slots: [pia, rus, nor, lec, ham, ver]
results:
  - eventId: bahrain-gp
    top6: [pia, rus, nor, lec, ham, ver]
`

func TestMainWiring(t *testing.T) {
	_ = logger.InitWithOptions(logger.FormatText, io.Discard)
	log := logger.Get()

	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("PRIXSIX_ADDR", ":8081")
		_ = os.Setenv("PRIXSIX_DB_DRIVER", "memory")
		defer func() {
			_ = os.Unsetenv("PRIXSIX_ADDR")
			_ = os.Unsetenv("PRIXSIX_DB_DRIVER")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
		convey.So(cfg.DBDriver, convey.ShouldEqual, "memory")
	})

	convey.Convey("Given a service built from a seed file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "seed.yaml")
		convey.So(os.WriteFile(path, []byte(seed), 0o600), convey.ShouldBeNil)

		cfg := config.New(context.Background())
		cfg.DBDriver = config.DriverMemory
		cfg.SeedPath = path
		cfg.MCPEnabled = true
		svc, err := buildService(context.Background(), cfg, log)
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(svc, cfg)

		convey.Convey("When standings are requested over HTTP", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/standings/bahrain-gp", nil))

			convey.Convey("Then the perfect prediction scores the maximum", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"points_after_selected_weekend":46`)
			})
		})

		convey.Convey("When the MCP endpoint is called", func() {
			body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})

	convey.Convey("Given a seed file that does not exist", t, func() {
		cfg := config.New(context.Background())
		cfg.DBDriver = config.DriverMemory
		cfg.SeedPath = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := buildService(context.Background(), cfg, log)
		convey.So(err, convey.ShouldNotBeNil)
	})
}
