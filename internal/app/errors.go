package service

import "errors"

var (
	// ErrNotStarted is returned when a read is attempted before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrEventNotFound is returned for an event id missing from the schedule.
	ErrEventNotFound = errors.New("event not found")
	// ErrTeamNotFound is returned for a team with no records at all.
	ErrTeamNotFound = errors.New("team not found")
)
