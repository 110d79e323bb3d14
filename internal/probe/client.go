package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
)

// Client reads the standings API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StandingsPage mirrors the standings endpoint body.
type StandingsPage struct {
	EventID    string               `json:"event_id"`
	Rows       []model.StandingsRow `json:"rows"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	Shown      int                  `json:"shown"`
	TotalCount int                  `json:"total_count"`
	Progress   string               `json:"progress"`
}

// CompletedEvents lists the events that have something to score.
func (c *Client) CompletedEvents(ctx context.Context) ([]model.EventDescriptor, error) {
	var events []model.EventDescriptor
	if err := c.getJSON(ctx, "/api/v1/events?completed=true", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// StandingsPage fetches one standings page starting at offset.
func (c *Client) StandingsPage(ctx context.Context, eventID string, offset, limit int) (StandingsPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cur := window.EncodeCursor(offset); cur != "" {
		q.Set("cursor", cur)
	}
	var page StandingsPage
	err := c.getJSON(ctx, "/api/v1/standings/"+url.PathEscape(eventID)+"?"+q.Encode(), &page)
	return page, err
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// standingsSource feeds a window.Materializer from the API and remembers the
// last reported total and progress text.
type standingsSource struct {
	client  *Client
	eventID string

	mu       sync.Mutex
	pages    int
	total    int
	progress string
}

func (s *standingsSource) Fetch(ctx context.Context, offset, limit int) ([]model.StandingsRow, error) {
	page, err := s.client.StandingsPage(ctx, s.eventID, offset, limit)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.pages++
	s.total = page.TotalCount
	s.progress = page.Progress
	s.mu.Unlock()
	return page.Rows, nil
}

func (s *standingsSource) snapshot() (pages, total int, progress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages, s.total, s.progress
}
