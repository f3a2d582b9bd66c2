package tally

import (
	"context"
	"log/slog"

	application "ballotbox/contexts/elections/voting-engine/application"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	"ballotbox/contexts/elections/voting-engine/ports"
)

// Reconciler keeps Candidate.Votes consistent with the ballot log. The cached
// counter is a read optimization; the log is the single source of truth, so
// reconciliation always recomputes from an exact count and is idempotent.
type Reconciler struct {
	Ballots    ports.BallotRepository
	Candidates ports.CandidateRepository
	Logger     *slog.Logger
}

// Reconcile returns the authoritative ballot count for the candidate and
// overwrites the cached counter only when it has drifted.
func (r Reconciler) Reconcile(ctx context.Context, candidate entities.Candidate) (int, error) {
	count, err := r.Ballots.CountBallots(ctx, ports.BallotFilter{CandidateID: candidate.CandidateID})
	if err != nil {
		return 0, err
	}
	if count == candidate.Votes {
		return count, nil
	}
	logger := application.ResolveLogger(r.Logger)
	logger.Warn("tally drift repaired",
		"event", "tally_drift_repaired",
		"module", "elections/voting-engine",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"cached", candidate.Votes,
		"authoritative", count,
	)
	if err := r.Candidates.SetVotes(ctx, candidate.CandidateID, count); err != nil {
		return 0, err
	}
	return count, nil
}

// Increment bumps the cached counter after a successful ballot write. It is an
// optimization only: a lost increment is healed by the next Reconcile, so
// callers must not fail a cast over an increment error.
func (r Reconciler) Increment(ctx context.Context, candidateID string) error {
	return r.Candidates.IncrementVotes(ctx, candidateID)
}

// ReconcileElection reconciles every candidate of the election and returns the
// candidate list with authoritative counts. Every read path that reports vote
// counts goes through here.
func (r Reconciler) ReconcileElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	candidates, err := r.Candidates.ListCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		count, err := r.Reconcile(ctx, candidates[i])
		if err != nil {
			return nil, err
		}
		candidates[i].Votes = count
	}
	return candidates, nil
}
