package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidIdentifier         = errors.New("identifier is malformed")
	ErrAdminVoteForbidden        = errors.New("administrators cannot cast ballots")
	ErrElectionNotFound          = errors.New("election not found")
	ErrElectionNotActive         = errors.New("election is not accepting ballots")
	ErrCandidateNotFound         = errors.New("candidate not found")
	ErrCandidateElectionMismatch = errors.New("candidate does not belong to this election")
	ErrDuplicateBallot           = errors.New("ballot already cast for this position")
	ErrAdminRequired             = errors.New("administrator role required")
	ErrUnsupportedExportFormat   = errors.New("unsupported export format")
	ErrStoreUnavailable          = errors.New("store unavailable")
)

// DuplicateBallotError carries the voter's previous choice so callers can
// explain the rejection instead of just refusing it. It unwraps to
// ErrDuplicateBallot for errors.Is checks.
type DuplicateBallotError struct {
	Position      string
	CandidateID   string
	CandidateName string
	CastAt        time.Time
}

func (e *DuplicateBallotError) Error() string {
	if e.CandidateName != "" {
		return fmt.Sprintf("ballot already cast for position %q: chose %s at %s",
			e.Position, e.CandidateName, e.CastAt.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("ballot already cast for position %q", e.Position)
}

func (e *DuplicateBallotError) Unwrap() error {
	return ErrDuplicateBallot
}
