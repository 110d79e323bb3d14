package window

import (
	"context"
	"fmt"
	"sync"
)

// Source yields rows in a stable order.
type Source[T any] interface {
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// Counter is implemented by sources that know their total size.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Fetch calls f.
func (f SourceFunc[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	return f(ctx, offset, limit)
}

// SliceSource serves rows from memory and knows its total.
type SliceSource[T any] []T

// Fetch returns rows[offset:offset+limit].
func (s SliceSource[T]) Fetch(_ context.Context, offset, limit int) ([]T, error) {
	if offset >= len(s) {
		return nil, nil
	}
	return append([]T(nil), s[offset:min(offset+limit, len(s))]...), nil
}

// Count returns len(s).
func (s SliceSource[T]) Count(context.Context) (int, error) { return len(s), nil }

// MaterializerOption configures a Materializer.
type MaterializerOption func(*materializerConfig)

type materializerConfig struct {
	pageSize int
	counter  Counter
}

// WithPageSize sets the page size. Non-positive values are ignored.
func WithPageSize(n int) MaterializerOption {
	return func(c *materializerConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithCounter supplies an exact total separate from the source.
func WithCounter(counter Counter) MaterializerOption {
	return func(c *materializerConfig) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// Materializer pulls fixed-size pages from a Source and remembers what has
// been revealed. Without a Counter, HasMore is true iff the last page was full.
type Materializer[T any] struct {
	mu       sync.Mutex
	src      Source[T]
	counter  Counter
	pageSize int
	rows     []T
	done     bool
}

// NewMaterializer creates a materializer. A source that implements Counter
// is used as its own counter unless WithCounter overrides it.
func NewMaterializer[T any](src Source[T], opts ...MaterializerOption) *Materializer[T] {
	cfg := materializerConfig{pageSize: DefaultPageSize}
	if c, ok := src.(Counter); ok {
		cfg.counter = c
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Materializer[T]{src: src, counter: cfg.counter, pageSize: cfg.pageSize}
}

// PageSize returns the fixed page size.
func (m *Materializer[T]) PageSize() int { return m.pageSize }

// Next fetches the following page. After the last page it returns an empty
// window with HasMore false.
func (m *Materializer[T]) Next(ctx context.Context) (Window[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := -1
	if m.counter != nil {
		n, err := m.counter.Count(ctx)
		if err != nil {
			return Window[T]{}, fmt.Errorf("count rows: %w", err)
		}
		total = n
	}
	if m.done {
		return Window[T]{Rows: []T{}, Shown: len(m.rows), TotalCount: total}, nil
	}

	offset := len(m.rows)
	page, err := m.src.Fetch(ctx, offset, m.pageSize)
	if err != nil {
		return Window[T]{}, fmt.Errorf("fetch rows at %d: %w", offset, err)
	}
	if len(page) > m.pageSize {
		page = page[:m.pageSize]
	}
	m.rows = append(m.rows, page...)

	w := Window[T]{
		Rows:       append(make([]T, 0, len(page)), page...),
		Shown:      len(m.rows),
		TotalCount: total,
	}
	if total >= 0 {
		w.HasMore = w.Shown < total
	} else {
		w.HasMore = len(page) == m.pageSize
	}
	m.done = !w.HasMore
	if w.HasMore {
		w.NextCursor = EncodeCursor(w.Shown)
	}
	return w, nil
}

// Rows returns a copy of every row revealed so far.
func (m *Materializer[T]) Rows() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.rows...)
}

// Done reports whether the last page has been reached.
func (m *Materializer[T]) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Reset forgets revealed rows so paging starts over.
func (m *Materializer[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	m.done = false
}
