package workers

import (
	"context"
	"log/slog"

	application "ballotbox/contexts/elections/voting-engine/application"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/ports"
)

// TallySweeper periodically reconciles candidate counters for every active
// election. Cast requests already heal counters on the read path; the sweeper
// bounds how long drift from a crashed increment can survive between reads.
type TallySweeper struct {
	Elections ports.ElectionRepository
	Tally     tally.Reconciler
	Logger    *slog.Logger
}

// RunOnce reconciles one sweep cycle. It stops on the first failure so the
// ticker loop can retry the remaining elections next cycle.
func (s TallySweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)

	elections, err := s.Elections.ListActiveElections(ctx)
	if err != nil {
		logger.Error("tally sweep election listing failed",
			"event", "tally_sweep_list_failed",
			"module", "elections/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(elections) == 0 {
		logger.Debug("tally sweep found no active elections",
			"event", "tally_sweep_noop",
			"module", "elections/voting-engine",
			"layer", "worker",
		)
		return nil
	}

	reconciled := 0
	for _, election := range elections {
		candidates, err := s.Tally.ReconcileElection(ctx, election.ElectionID)
		if err != nil {
			logger.Error("tally sweep reconciliation failed",
				"event", "tally_sweep_reconcile_failed",
				"module", "elections/voting-engine",
				"layer", "worker",
				"election_id", election.ElectionID,
				"error", err.Error(),
			)
			return err
		}
		reconciled += len(candidates)
	}

	logger.Info("tally sweep cycle completed",
		"event", "tally_sweep_completed",
		"module", "elections/voting-engine",
		"layer", "worker",
		"elections", len(elections),
		"candidates", reconciled,
	)
	return nil
}
