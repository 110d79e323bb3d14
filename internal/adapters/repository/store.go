// Package repository persists league documents and reads them back as
// validated domain values.
package repository

import (
	"context"
	"fmt"

	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
)

// Collections.
const (
	CollectionDrivers     = "drivers"
	CollectionSchedule    = "schedule"
	CollectionTeams       = "teams"
	CollectionPredictions = "predictions" // scope: weekend id
	CollectionResults     = "results"     // scope: event id
	CollectionScores      = "scores"      // scope: event id
)

// Document is one loosely typed record. Payload keeps whatever field
// names the producer used; decoding happens on read through ingest.
type Document struct {
	Collection string
	ID         string
	Scope      string
	// Seq orders documents within a collection; ties fall back to ID.
	Seq     int
	Payload ingest.Record
}

// Store provides document access. Implementations are safe for concurrent use.
type Store interface {
	// Put inserts or replaces documents keyed by (collection, id).
	Put(ctx context.Context, docs ...Document) error
	// Get returns ErrNotFound if the document is unknown.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns documents ordered by seq then id. An empty scope matches all.
	List(ctx context.Context, collection, scope string, offset, limit int) ([]Document, error)
	// Count returns the number of documents List would return without limits.
	Count(ctx context.Context, collection, scope string) (int, error)
	// Scopes returns the distinct scopes present in a collection, sorted.
	Scopes(ctx context.Context, collection string) ([]string, error)
	Close() error
}

// Supported drivers for Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open creates a store for the named driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
