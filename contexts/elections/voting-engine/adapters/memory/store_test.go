package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"
)

func TestInsertBallotEnforcesIdentityConstraint(t *testing.T) {
	store := NewStore(nil)
	castAt := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	first := entities.Ballot{
		BallotID:    "ballot-1",
		ElectionID:  "election-1",
		CandidateID: "candidate-1",
		VoterID:     "voter-1",
		Position:    "President",
		CastAt:      castAt,
	}
	if err := store.InsertBallot(context.Background(), first); err != nil {
		t.Fatalf("insert ballot failed: %v", err)
	}

	// Same voter, same position, different candidate.
	err := store.InsertBallot(context.Background(), entities.Ballot{
		BallotID:    "ballot-2",
		ElectionID:  "election-1",
		CandidateID: "candidate-2",
		VoterID:     "voter-1",
		Position:    "President",
		CastAt:      castAt,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot, got %v", err)
	}

	// Same voter, different position.
	if err := store.InsertBallot(context.Background(), entities.Ballot{
		BallotID:    "ballot-3",
		ElectionID:  "election-1",
		CandidateID: "candidate-3",
		VoterID:     "voter-1",
		Position:    "Secretary",
		CastAt:      castAt.Add(time.Minute),
	}); err != nil {
		t.Fatalf("insert for second position failed: %v", err)
	}

	prior, found, err := store.GetBallotByIdentity(context.Background(), "election-1", "voter-1", "President")
	if err != nil || !found {
		t.Fatalf("expected prior ballot, found=%v err=%v", found, err)
	}
	if prior.BallotID != "ballot-1" {
		t.Fatalf("expected first ballot preserved, got %s", prior.BallotID)
	}

	mine, err := store.ListBallotsByVoter(context.Background(), "election-1", "voter-1")
	if err != nil {
		t.Fatalf("list ballots failed: %v", err)
	}
	if len(mine) != 2 || mine[0].BallotID != "ballot-1" {
		t.Fatalf("expected 2 ballots ordered by cast time, got %+v", mine)
	}
}

func TestCountBallotsAndDistinctVoters(t *testing.T) {
	castAt := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	store := NewStore([]entities.Ballot{
		{BallotID: "b1", ElectionID: "election-1", CandidateID: "candidate-1", VoterID: "voter-1", Position: "President", CastAt: castAt},
		{BallotID: "b2", ElectionID: "election-1", CandidateID: "candidate-1", VoterID: "voter-2", Position: "President", CastAt: castAt},
		{BallotID: "b3", ElectionID: "election-1", CandidateID: "candidate-2", VoterID: "voter-1", Position: "Secretary", CastAt: castAt},
		{BallotID: "b4", ElectionID: "election-2", CandidateID: "candidate-9", VoterID: "voter-1", Position: "President", CastAt: castAt},
	})

	count, err := store.CountBallots(context.Background(), ports.BallotFilter{CandidateID: "candidate-1"})
	if err != nil {
		t.Fatalf("count ballots failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ballots for candidate, got %d", count)
	}

	count, err = store.CountBallots(context.Background(), ports.BallotFilter{ElectionID: "election-1", Position: "Secretary"})
	if err != nil {
		t.Fatalf("count ballots failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 secretary ballot, got %d", count)
	}

	voters, err := store.DistinctVoters(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("distinct voters failed: %v", err)
	}
	if len(voters) != 2 || voters[0] != "voter-1" || voters[1] != "voter-2" {
		t.Fatalf("expected sorted distinct voters, got %v", voters)
	}
}

func TestCandidateLookupsAndCounterUpdates(t *testing.T) {
	store := NewStore(nil)
	store.SetCandidate(entities.Candidate{
		CandidateID: "candidate-1",
		ElectionID:  "election-1",
		Name:        "Alice",
		Position:    "President",
	})

	if _, err := store.GetCandidate(context.Background(), "candidate-9"); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected candidate not found, got %v", err)
	}

	if err := store.IncrementVotes(context.Background(), "candidate-1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := store.SetVotes(context.Background(), "candidate-1", 5); err != nil {
		t.Fatalf("set votes failed: %v", err)
	}
	candidate, err := store.GetCandidate(context.Background(), "candidate-1")
	if err != nil {
		t.Fatalf("get candidate failed: %v", err)
	}
	if candidate.Votes != 5 {
		t.Fatalf("expected counter 5, got %d", candidate.Votes)
	}
}

func TestSaveDeclarationMarksElection(t *testing.T) {
	store := NewStore(nil)
	store.SetElection(entities.Election{ElectionID: "election-1", Title: "Council", IsActive: true})

	declaredAt := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	err := store.SaveDeclaration(context.Background(), "election-1", entities.WinnerDeclaration{
		Winners:    []entities.DeclaredWinner{{Position: "President", CandidateID: "candidate-1", Name: "Alice", Votes: 3}},
		DeclaredAt: declaredAt,
		DeclaredBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("save declaration failed: %v", err)
	}

	election, err := store.GetElection(context.Background(), "election-1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if !election.WinnersDeclared || election.Declaration == nil {
		t.Fatalf("expected declaration stored")
	}
	if !election.UpdatedAt.Equal(declaredAt) {
		t.Fatalf("expected updated_at stamped with declaration time")
	}

	if err := store.SaveDeclaration(context.Background(), "election-9", entities.WinnerDeclaration{}); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
}
