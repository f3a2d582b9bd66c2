package ports

import (
	"context"
	"time"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
)

// BallotFilter narrows exact ballot counts. Zero-value fields are ignored.
type BallotFilter struct {
	ElectionID  string
	CandidateID string
	Position    string
}

type BallotRepository interface {
	// InsertBallot appends one immutable ballot. A second ballot for the same
	// (election, voter, position) tuple fails with ErrDuplicateBallot. The
	// store itself enforces the constraint so the guarantee holds under
	// concurrent casts, not just behind caller pre-checks.
	InsertBallot(ctx context.Context, ballot entities.Ballot) error
	GetBallotByIdentity(ctx context.Context, electionID string, voterID string, position string) (entities.Ballot, bool, error)
	ListBallotsByVoter(ctx context.Context, electionID string, voterID string) ([]entities.Ballot, error)
	CountBallots(ctx context.Context, filter BallotFilter) (int, error)
	DistinctVoters(ctx context.Context, electionID string) ([]string, error)
}

type CandidateRepository interface {
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error)
	// IncrementVotes bumps the cached counter atomically in the store; it must
	// never be implemented as a read-modify-write of a stale value.
	IncrementVotes(ctx context.Context, candidateID string) error
	SetVotes(ctx context.Context, candidateID string, votes int) error
}

type ElectionRepository interface {
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListActiveElections(ctx context.Context) ([]entities.Election, error)
	SaveDeclaration(ctx context.Context, electionID string, declaration entities.WinnerDeclaration) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
