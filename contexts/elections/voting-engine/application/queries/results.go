package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/elections/voting-engine/application"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"
)

// ResultsUseCase aggregates ballots into per-position rankings, ties, and
// summary statistics. Every read reconciles candidate counters first so the
// output reflects the authoritative ballot log even after counter drift.
type ResultsUseCase struct {
	Elections ports.ElectionRepository
	Ballots   ports.BallotRepository
	Tally     tally.Reconciler
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc ResultsUseCase) ElectionResults(ctx context.Context, electionID string) (entities.ElectionResults, error) {
	logger := application.ResolveLogger(uc.Logger)

	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.ElectionResults{}, domainerrors.ErrInvalidIdentifier
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.ElectionResults{}, err
	}

	candidates, err := uc.Tally.ReconcileElection(ctx, electionID)
	if err != nil {
		return entities.ElectionResults{}, err
	}
	positions := entities.RankPositions(candidates)

	total := 0
	for _, position := range positions {
		total += position.TotalVotes
	}

	voters, err := uc.Ballots.DistinctVoters(ctx, electionID)
	if err != nil {
		return entities.ElectionResults{}, err
	}

	logger.Debug("election results aggregated",
		"event", "results_aggregated",
		"module", "elections/voting-engine",
		"layer", "application",
		"election_id", electionID,
		"positions", len(positions),
		"total_votes", total,
	)
	return entities.ElectionResults{
		ElectionID: election.ElectionID,
		Title:      election.Title,
		Status:     election.Status(uc.now()),
		TotalVotes: total,
		Positions:  positions,
		Summary: entities.ElectionSummary{
			TotalVotes:     total,
			UniqueVoters:   len(voters),
			EligibleVoters: election.EligibleVoters,
			TurnoutRate:    entities.TurnoutRate(len(voters), election.EligibleVoters),
		},
	}, nil
}

func (uc ResultsUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
