package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	httptransport "ballotbox/contexts/elections/voting-engine/transport/http"
)

func TestVotingConcurrentCastsKeepOnePresidentBallot(t *testing.T) {
	module := newVotingModule(nil)
	ctx := context.Background()

	const attempts = 16
	candidates := []string{candidateAlice, candidateBob}

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(candidateID string) {
			defer wg.Done()
			_, err := module.Handler.CastVoteHandler(ctx, electionID, voterOne, "voter", httptransport.CastVoteRequest{
				CandidateID: candidateID,
			})
			results <- err
		}(candidates[i%len(candidates)])
	}
	wg.Wait()
	close(results)

	successes := 0
	duplicates := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domainerrors.ErrDuplicateBallot):
			duplicates++
		default:
			t.Fatalf("unexpected cast error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful cast, got %d", successes)
	}
	if duplicates != attempts-1 {
		t.Fatalf("expected %d duplicate rejections, got %d", attempts-1, duplicates)
	}

	final, err := module.Handler.FinalResultsHandler(ctx, electionID)
	if err != nil {
		t.Fatalf("final results failed: %v", err)
	}
	president, ok := final.Positions["President"]
	if !ok {
		t.Fatalf("expected President position in results")
	}
	if president.TotalVotes != 1 {
		t.Fatalf("expected 1 reconciled ballot for President, got %d", president.TotalVotes)
	}
	if final.Summary.UniqueVoters != 1 {
		t.Fatalf("expected 1 unique voter, got %d", final.Summary.UniqueVoters)
	}
}
