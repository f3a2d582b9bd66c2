package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/elections/voting-engine/application"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"
)

// CastVoteCommand is the write-model input for casting one ballot.
type CastVoteCommand struct {
	ElectionID  string
	CandidateID string
	Voter       entities.VoterIdentity
}

// CastVoteResult is the ballot receipt returned for confirmation display.
type CastVoteResult struct {
	Ballot         entities.Ballot
	CandidateName  string
	CandidateVotes int
	ElectionTitle  string
}

// CastVoteUseCase orchestrates validation and ballot creation for one vote
// request. Preconditions run in a fixed order and short-circuit on the first
// failure; no side effect happens unless all of them pass.
type CastVoteUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Ballots    ports.BallotRepository
	Tally      tally.Reconciler
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// CastVote records a single ballot. The ballot write is the durable fact: once
// it succeeds the cast is a success even if the follow-up counter increment
// fails, because reconciliation heals the counter on the next read.
func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	voterID := strings.TrimSpace(cmd.Voter.VoterID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	if voterID == "" || electionID == "" || candidateID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidIdentifier
	}

	if cmd.Voter.Role == entities.RoleAdmin {
		logger.Warn("ballot cast rejected for admin voter",
			"event", "voting_cast_admin_rejected",
			"module", "elections/voting-engine",
			"layer", "application",
			"voter_id", voterID,
			"election_id", electionID,
		)
		return CastVoteResult{}, domainerrors.ErrAdminVoteForbidden
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return CastVoteResult{}, err
	}
	now := uc.now()
	if !election.AcceptsBallots(now) {
		return CastVoteResult{}, domainerrors.ErrElectionNotActive
	}

	candidate, err := uc.Candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if candidate.ElectionID != electionID {
		return CastVoteResult{}, domainerrors.ErrCandidateElectionMismatch
	}
	position := strings.TrimSpace(candidate.Position)

	// Pre-check for a friendly duplicate message. The store constraint below is
	// the real guarantee; this read has a race window by itself.
	if prior, found, err := uc.Ballots.GetBallotByIdentity(ctx, electionID, voterID, position); err != nil {
		return CastVoteResult{}, err
	} else if found {
		return CastVoteResult{}, uc.duplicateError(ctx, prior)
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	ballot := entities.Ballot{
		BallotID:    ballotID,
		ElectionID:  electionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		Position:    position,
		CastAt:      now,
	}
	if err := uc.Ballots.InsertBallot(ctx, ballot); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateBallot) {
			// Lost the race against a concurrent cast for the same position.
			if prior, found, lookupErr := uc.Ballots.GetBallotByIdentity(ctx, electionID, voterID, position); lookupErr == nil && found {
				return CastVoteResult{}, uc.duplicateError(ctx, prior)
			}
			return CastVoteResult{}, &domainerrors.DuplicateBallotError{Position: position}
		}
		return CastVoteResult{}, err
	}

	if err := uc.Tally.Increment(ctx, candidateID); err != nil {
		logger.Warn("tally increment failed after ballot write; drift heals on next reconcile",
			"event", "voting_cast_increment_failed",
			"module", "elections/voting-engine",
			"layer", "application",
			"ballot_id", ballot.BallotID,
			"candidate_id", candidateID,
			"error", err.Error(),
		)
	}

	logger.Info("ballot cast",
		"event", "voting_cast_succeeded",
		"module", "elections/voting-engine",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"election_id", electionID,
		"candidate_id", candidateID,
		"position", position,
	)
	return CastVoteResult{
		Ballot:         ballot,
		CandidateName:  candidate.Name,
		CandidateVotes: candidate.Votes + 1,
		ElectionTitle:  election.Title,
	}, nil
}

// MyBallots returns the voter's cast ballots for an election, ordered by cast
// time.
func (uc CastVoteUseCase) MyBallots(ctx context.Context, electionID string, voter entities.VoterIdentity) ([]entities.Ballot, error) {
	electionID = strings.TrimSpace(electionID)
	voterID := strings.TrimSpace(voter.VoterID)
	if electionID == "" || voterID == "" {
		return nil, domainerrors.ErrInvalidIdentifier
	}
	if _, err := uc.Elections.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return uc.Ballots.ListBallotsByVoter(ctx, electionID, voterID)
}

func (uc CastVoteUseCase) duplicateError(ctx context.Context, prior entities.Ballot) error {
	detail := &domainerrors.DuplicateBallotError{
		Position:    prior.Position,
		CandidateID: prior.CandidateID,
		CastAt:      prior.CastAt,
	}
	if chosen, err := uc.Candidates.GetCandidate(ctx, prior.CandidateID); err == nil {
		detail.CandidateName = chosen.Name
	}
	return detail
}

func (uc CastVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
