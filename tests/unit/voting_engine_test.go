package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	votingengine "ballotbox/contexts/elections/voting-engine"
	"ballotbox/contexts/elections/voting-engine/adapters/memory"
	"ballotbox/contexts/elections/voting-engine/application/commands"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	httptransport "ballotbox/contexts/elections/voting-engine/transport/http"
)

const (
	electionID      = "c5a8c6de-9e13-4b2f-8a6a-4f2e62c1d9a1"
	otherElectionID = "d6b9d7ef-af24-4c3a-9b7b-5a3f73d2eab2"
	candidateAlice  = "0d4f7a36-58f5-4f44-9a3e-6a1f0f6f2b11"
	candidateBob    = "1e5c8b47-69a6-4c55-8b4f-7b2a1a7a3c22"
	candidateCara   = "2f6d9c58-7ab7-4d66-9c5a-8c3b2b8b4d33"
	candidateDiego  = "6daebaec-bbfb-41aa-9a9e-ca7f6fcf8a77"
	voterOne        = "3a7eadb9-8bc8-4e77-8d6b-9d4c3c9c5e44"
	voterTwo        = "4b8fbeca-9cd9-4f88-9e7c-ae5d4dad6f55"
	adminUser       = "5c9acfdb-aaea-4099-8f8d-bf6e5ebe7a66"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now.UTC()
}

// newVotingModule seeds one open election with two President candidates and
// one Secretary candidate.
func newVotingModule(seed []entities.Ballot) votingengine.Module {
	module := votingengine.NewInMemoryModule(seed, nil)
	now := time.Now().UTC()
	module.Store.SetElection(entities.Election{
		ElectionID:     electionID,
		Title:          "Student Council 2026",
		IsActive:       true,
		StartsAt:       now.Add(-24 * time.Hour),
		EndsAt:         now.Add(24 * time.Hour),
		EligibleVoters: 200,
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: candidateAlice,
		ElectionID:  electionID,
		Name:        "Alice Mwangi",
		Position:    "President",
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: candidateBob,
		ElectionID:  electionID,
		Name:        "Bob Otieno",
		Position:    "President",
	})
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: candidateCara,
		ElectionID:  electionID,
		Name:        "Cara Njeri",
		Position:    "Secretary",
	})
	return module
}

func TestVotingCastBallotReturnsReceipt(t *testing.T) {
	module := newVotingModule(nil)
	ctx := context.Background()

	receipt, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
		CandidateID: candidateAlice,
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if receipt.BallotID == "" {
		t.Fatalf("expected ballot id on receipt")
	}
	if receipt.Election.Title != "Student Council 2026" {
		t.Fatalf("unexpected election title %q", receipt.Election.Title)
	}
	if receipt.Candidate.Name != "Alice Mwangi" || receipt.Candidate.Position != "President" {
		t.Fatalf("unexpected candidate on receipt: %+v", receipt.Candidate)
	}
	if receipt.Candidate.Votes != 1 {
		t.Fatalf("expected vote count 1 on receipt, got %d", receipt.Candidate.Votes)
	}

	mine, err := module.Handler.MyVotesHandler(ctx, electionID, voterOne, "voter")
	if err != nil {
		t.Fatalf("my votes failed: %v", err)
	}
	if len(mine.Ballots) != 1 {
		t.Fatalf("expected 1 ballot for voter, got %d", len(mine.Ballots))
	}
	if mine.Ballots[0].BallotID != receipt.BallotID {
		t.Fatalf("expected ballot %s, got %s", receipt.BallotID, mine.Ballots[0].BallotID)
	}
}

func TestVotingDuplicatePositionReportsFirstChoice(t *testing.T) {
	module := newVotingModule(nil)
	ctx := context.Background()

	if _, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
		CandidateID: candidateAlice,
	}); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
		CandidateID: candidateBob,
	})
	if err == nil {
		t.Fatalf("expected duplicate ballot rejection")
	}
	if !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot sentinel, got %v", err)
	}
	var duplicate *domainerrors.DuplicateBallotError
	if !errors.As(err, &duplicate) {
		t.Fatalf("expected duplicate ballot detail, got %v", err)
	}
	if duplicate.Position != "President" {
		t.Fatalf("unexpected duplicate position %q", duplicate.Position)
	}
	if duplicate.CandidateID != candidateAlice || duplicate.CandidateName != "Alice Mwangi" {
		t.Fatalf("expected first choice in duplicate detail, got %+v", duplicate)
	}

	// A different position is still open for the same voter.
	if _, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
		CandidateID: candidateCara,
	}); err != nil {
		t.Fatalf("secretary cast failed: %v", err)
	}
	mine, err := module.Handler.MyVotesHandler(ctx, electionID, voterOne, "voter")
	if err != nil {
		t.Fatalf("my votes failed: %v", err)
	}
	if len(mine.Ballots) != 2 {
		t.Fatalf("expected 2 ballots across positions, got %d", len(mine.Ballots))
	}
	if len(mine.PositionsVoted) != 2 || mine.PositionsVoted[0] != "President" || mine.PositionsVoted[1] != "Secretary" {
		t.Fatalf("expected sorted positions voted, got %v", mine.PositionsVoted)
	}
}

func TestVotingCastStampsBallotWithClock(t *testing.T) {
	castAt := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	store := memory.NewStore(nil)
	store.SetElection(entities.Election{
		ElectionID: electionID,
		Title:      "Student Council 2026",
		IsActive:   true,
	})
	store.SetCandidate(entities.Candidate{
		CandidateID: candidateAlice,
		ElectionID:  electionID,
		Name:        "Alice Mwangi",
		Position:    "President",
	})

	useCase := commands.CastVoteUseCase{
		Elections:  store,
		Candidates: store,
		Ballots:    store,
		Tally:      tally.Reconciler{Ballots: store, Candidates: store},
		Clock:      fixedClock{now: castAt},
		IDGen:      store,
	}
	result, err := useCase.CastVote(context.Background(), commands.CastVoteCommand{
		ElectionID:  electionID,
		CandidateID: candidateAlice,
		Voter:       entities.VoterIdentity{VoterID: voterOne, Role: entities.RoleVoter},
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if !result.Ballot.CastAt.Equal(castAt) {
		t.Fatalf("expected cast time %v, got %v", castAt, result.Ballot.CastAt)
	}
	if result.Ballot.Position != "President" {
		t.Fatalf("expected position copied from candidate, got %q", result.Ballot.Position)
	}
}

func TestVotingCastRejectsAdmins(t *testing.T) {
	module := newVotingModule(nil)

	_, err := module.Handler.CastVoteHandler(context.Background(), electionID, adminUser, "admin", httptransport.CastVoteRequest{
		CandidateID: candidateAlice,
	})
	if !errors.Is(err, domainerrors.ErrAdminVoteForbidden) {
		t.Fatalf("expected admin vote rejection, got %v", err)
	}
}

func TestVotingCastGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed election id", func(t *testing.T) {
		module := newVotingModule(nil)
		_, err := module.Handler.CastVoteHandler(ctx, "not-a-uuid", voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateAlice,
		})
		if !errors.Is(err, domainerrors.ErrInvalidIdentifier) {
			t.Fatalf("expected invalid identifier, got %v", err)
		}
	})

	t.Run("unknown election", func(t *testing.T) {
		module := newVotingModule(nil)
		_, err := module.Handler.CastVoteHandler(ctx, otherElectionID, voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateAlice,
		})
		if !errors.Is(err, domainerrors.ErrElectionNotFound) {
			t.Fatalf("expected election not found, got %v", err)
		}
	})

	t.Run("unknown candidate", func(t *testing.T) {
		module := newVotingModule(nil)
		_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateDiego,
		})
		if !errors.Is(err, domainerrors.ErrCandidateNotFound) {
			t.Fatalf("expected candidate not found, got %v", err)
		}
	})

	t.Run("candidate from another election", func(t *testing.T) {
		module := newVotingModule(nil)
		module.Store.SetElection(entities.Election{
			ElectionID: otherElectionID,
			Title:      "Hall Elections",
			IsActive:   true,
		})
		module.Store.SetCandidate(entities.Candidate{
			CandidateID: candidateDiego,
			ElectionID:  otherElectionID,
			Name:        "Diego Ruiz",
			Position:    "President",
		})
		_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateDiego,
		})
		if !errors.Is(err, domainerrors.ErrCandidateElectionMismatch) {
			t.Fatalf("expected candidate election mismatch, got %v", err)
		}
	})

	t.Run("deactivated election", func(t *testing.T) {
		module := newVotingModule(nil)
		module.Store.SetElection(entities.Election{
			ElectionID: electionID,
			Title:      "Student Council 2026",
			IsActive:   false,
		})
		_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateAlice,
		})
		if !errors.Is(err, domainerrors.ErrElectionNotActive) {
			t.Fatalf("expected election not active, got %v", err)
		}
	})

	t.Run("voting window ended", func(t *testing.T) {
		module := newVotingModule(nil)
		now := time.Now().UTC()
		module.Store.SetElection(entities.Election{
			ElectionID: electionID,
			Title:      "Student Council 2026",
			IsActive:   true,
			StartsAt:   now.Add(-48 * time.Hour),
			EndsAt:     now.Add(-24 * time.Hour),
		})
		_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
			CandidateID: candidateAlice,
		})
		if !errors.Is(err, domainerrors.ErrElectionNotActive) {
			t.Fatalf("expected election not active, got %v", err)
		}
	})
}
