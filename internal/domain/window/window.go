// Package window reveals large row sets in fixed-size pages.
package window

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 25

const cursorPrefix = "off:"

// Window is one page of rows plus progress information.
type Window[T any] struct {
	Rows       []T    `json:"rows"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	// Shown counts rows revealed so far, including this page.
	Shown int `json:"shown"`
	// TotalCount is -1 when the total is not known.
	TotalCount int `json:"total_count"`
}

// TotalKnown reports whether progress can be reported as shown / total.
func (w Window[T]) TotalKnown() bool { return w.TotalCount >= 0 }

// Progress renders "shown / total", or just the shown count when the total
// is unknown.
func (w Window[T]) Progress() string {
	if !w.TotalKnown() {
		return strconv.Itoa(w.Shown)
	}
	return fmt.Sprintf("%d / %d", w.Shown, w.TotalCount)
}

// EncodeCursor turns an offset into an opaque token. Offset 0 is the empty cursor.
func EncodeCursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	off, err := strconv.Atoi(s)
	if err != nil || off < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return off, nil
}

// Page slices an already-sorted row set. The total is known, so HasMore is
// exact. A cursor past the end yields an empty final page.
func Page[T any](all []T, pageSize int, cursor string) (Window[T], error) {
	if pageSize <= 0 {
		return Window[T]{}, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}
	off, err := DecodeCursor(cursor)
	if err != nil {
		return Window[T]{}, err
	}
	if off > len(all) {
		off = len(all)
	}
	end := min(off+pageSize, len(all))
	w := Window[T]{
		Rows:       append(make([]T, 0, end-off), all[off:end]...),
		Shown:      end,
		TotalCount: len(all),
		HasMore:    end < len(all),
	}
	if w.HasMore {
		w.NextCursor = EncodeCursor(end)
	}
	return w, nil
}
