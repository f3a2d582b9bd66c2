package unit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
)

func seedBallots(candidateID string, position string, count int, voterOffset int) []entities.Ballot {
	castAt := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	ballots := make([]entities.Ballot, 0, count)
	for i := 0; i < count; i++ {
		voter := voterOffset + i
		ballots = append(ballots, entities.Ballot{
			BallotID:    fmt.Sprintf("ballot-%s-%03d", position, voter),
			ElectionID:  electionID,
			CandidateID: candidateID,
			VoterID:     fmt.Sprintf("voter-%03d", voter),
			Position:    position,
			CastAt:      castAt,
		})
	}
	return ballots
}

func TestResultsTieLeavesNoWinner(t *testing.T) {
	seed := seedBallots(candidateAlice, "President", 10, 0)
	seed = append(seed, seedBallots(candidateBob, "President", 10, 10)...)
	seed = append(seed, seedBallots(candidateDiego, "President", 7, 20)...)

	module := newVotingModule(seed)
	module.Store.SetCandidate(entities.Candidate{
		CandidateID: candidateDiego,
		ElectionID:  electionID,
		Name:        "Diego Ruiz",
		Position:    "President",
	})

	final, err := module.Handler.FinalResultsHandler(context.Background(), electionID)
	if err != nil {
		t.Fatalf("final results failed: %v", err)
	}

	president, ok := final.Positions["President"]
	if !ok {
		t.Fatalf("expected President position")
	}
	if president.TotalVotes != 27 {
		t.Fatalf("expected 27 president ballots, got %d", president.TotalVotes)
	}
	if president.Winner != nil {
		t.Fatalf("expected no winner on a tie, got %+v", president.Winner)
	}
	if !president.IsTie {
		t.Fatalf("expected tie flag")
	}
	if len(president.TiedCandidates) != 2 {
		t.Fatalf("expected 2 tied candidates, got %d", len(president.TiedCandidates))
	}
	if president.TiedCandidates[0].Name != "Alice Mwangi" || president.TiedCandidates[1].Name != "Bob Otieno" {
		t.Fatalf("expected tied candidates ordered by name, got %+v", president.TiedCandidates)
	}

	// Standings order is votes descending, then name.
	if president.Candidates[0].Name != "Alice Mwangi" ||
		president.Candidates[1].Name != "Bob Otieno" ||
		president.Candidates[2].Name != "Diego Ruiz" {
		t.Fatalf("unexpected standings order: %+v", president.Candidates)
	}
	if president.Candidates[0].Percentage != 37.04 {
		t.Fatalf("expected 37.04 percent for 10/27, got %v", president.Candidates[0].Percentage)
	}
	if president.Candidates[2].Percentage != 25.93 {
		t.Fatalf("expected 25.93 percent for 7/27, got %v", president.Candidates[2].Percentage)
	}
}

func TestResultsZeroBallotPositionHasZeroPercentages(t *testing.T) {
	module := newVotingModule(seedBallots(candidateAlice, "President", 3, 0))

	final, err := module.Handler.FinalResultsHandler(context.Background(), electionID)
	if err != nil {
		t.Fatalf("final results failed: %v", err)
	}

	secretary, ok := final.Positions["Secretary"]
	if !ok {
		t.Fatalf("expected Secretary position")
	}
	if secretary.TotalVotes != 0 {
		t.Fatalf("expected 0 secretary ballots, got %d", secretary.TotalVotes)
	}
	if secretary.Winner != nil || secretary.IsTie {
		t.Fatalf("expected no winner and no tie for zero-ballot position")
	}
	for _, standing := range secretary.Candidates {
		if standing.Percentage != 0 {
			t.Fatalf("expected 0 percent with zero ballots, got %v", standing.Percentage)
		}
	}

	president := final.Positions["President"]
	if president.Winner == nil || president.Winner.Name != "Alice Mwangi" {
		t.Fatalf("expected Alice Mwangi as president winner, got %+v", president.Winner)
	}
}

func TestResultsTurnoutFromDistinctVoters(t *testing.T) {
	// Same three voters cast for two positions: unique voters stays 3.
	seed := seedBallots(candidateAlice, "President", 3, 0)
	seed = append(seed, seedBallots(candidateCara, "Secretary", 3, 0)...)
	module := newVotingModule(seed)

	final, err := module.Handler.FinalResultsHandler(context.Background(), electionID)
	if err != nil {
		t.Fatalf("final results failed: %v", err)
	}
	if final.TotalVotes != 6 {
		t.Fatalf("expected 6 total ballots, got %d", final.TotalVotes)
	}
	if final.Summary.UniqueVoters != 3 {
		t.Fatalf("expected 3 unique voters, got %d", final.Summary.UniqueVoters)
	}
	if final.Summary.EligibleVoters != 200 {
		t.Fatalf("expected 200 eligible voters, got %d", final.Summary.EligibleVoters)
	}
	if final.Summary.TurnoutRate != 1.5 {
		t.Fatalf("expected 1.5 percent turnout, got %v", final.Summary.TurnoutRate)
	}
	if final.Status != "active" {
		t.Fatalf("expected active status, got %q", final.Status)
	}
}

func TestResultsZeroEligibleVotersYieldZeroTurnout(t *testing.T) {
	module := newVotingModule(seedBallots(candidateAlice, "President", 2, 0))
	module.Store.SetElection(entities.Election{
		ElectionID: electionID,
		Title:      "Student Council 2026",
		IsActive:   true,
	})

	final, err := module.Handler.FinalResultsHandler(context.Background(), electionID)
	if err != nil {
		t.Fatalf("final results failed: %v", err)
	}
	if final.Summary.TurnoutRate != 0 {
		t.Fatalf("expected 0 turnout with zero eligible voters, got %v", final.Summary.TurnoutRate)
	}
}
