package services

import (
	"time"

	"photo-contest-system/models"
)

// Phase is the lifecycle stage of a contest. It is never stored — always
// recomputed from the contest timestamps and the current time.
type Phase string

const (
	PhaseUpcoming   Phase = "upcoming"
	PhaseSubmission Phase = "submission"
	PhaseProcessing Phase = "processing"
	PhaseVoting     Phase = "voting"
	PhaseEnded      Phase = "ended"
)

// Index returns the ordinal position of the phase on the timeline. For a
// fixed contest the index is non-decreasing as time advances.
func (p Phase) Index() int {
	switch p {
	case PhaseUpcoming:
		return 0
	case PhaseSubmission:
		return 1
	case PhaseProcessing:
		return 2
	case PhaseVoting:
		return 3
	case PhaseEnded:
		return 4
	}
	return -1
}

// ResolvePhase maps a contest and a point in time to a phase. Boundaries are
// half-open: each timestamp belongs to the phase it starts. When
// VotingStartDate equals EndDate the processing phase is instantaneous and
// never observed — callers must not assume every contest visits every phase.
func ResolvePhase(c *models.Contest, now time.Time) Phase {
	switch {
	case now.Before(c.StartDate):
		return PhaseUpcoming
	case now.Before(c.EndDate):
		return PhaseSubmission
	case now.Before(c.VotingStartDate):
		return PhaseProcessing
	case now.Before(c.VotingEndDate):
		return PhaseVoting
	default:
		return PhaseEnded
	}
}

// PhaseDeadline returns the timestamp the current phase ends at — the
// countdown target for the UI. Nil once the contest has ended.
func PhaseDeadline(c *models.Contest, now time.Time) *time.Time {
	switch ResolvePhase(c, now) {
	case PhaseUpcoming:
		return &c.StartDate
	case PhaseSubmission:
		return &c.EndDate
	case PhaseProcessing:
		return &c.VotingStartDate
	case PhaseVoting:
		return &c.VotingEndDate
	}
	return nil
}
