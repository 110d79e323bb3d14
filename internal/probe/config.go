// Package probe generates synthetic league data and checks a running
// standings service against the ranking laws.
package probe

import "time"

// Default tool settings.
const (
	DefaultBaseURL  = "http://localhost:8080"
	DefaultTimeout  = 30 * time.Second
	DefaultWorkers  = 4
	DefaultPageSize = 10
)

// GenerateConfig controls synthetic league generation.
type GenerateConfig struct {
	Teams     int   // Number of teams
	Weekends  int   // Number of weekends on the schedule
	Completed int   // Weekends that get official results
	Seed      int64 // Random seed; the same seed yields the same league
	// SprintEvery marks every n-th weekend as a sprint weekend. Zero disables sprints.
	SprintEvery int
	Start       time.Time // Race time of the first weekend
}

// VerifyConfig controls a verification run against a live service.
type VerifyConfig struct {
	BaseURL  string
	Workers  int           // Events verified concurrently
	PageSize int           // Rows requested per standings page
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool
}

// Stats summarises a verification run.
type Stats struct {
	EventsChecked int
	RowsChecked   int
	PagesFetched  int
	Violations    []Violation
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// OK reports whether no law was violated.
func (s Stats) OK() bool { return len(s.Violations) == 0 }
