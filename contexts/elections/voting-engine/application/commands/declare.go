package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/elections/voting-engine/application"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"
)

// DeclareWinnersCommand requests an admin-gated winner declaration. Confirm
// acknowledges previously reported warnings and allows persisting anyway.
type DeclareWinnersCommand struct {
	ElectionID string
	Admin      entities.VoterIdentity
	Confirm    bool
}

// DeclareWinnersResult is either a confirmation-required payload (warnings set,
// nothing persisted) or the persisted declaration.
type DeclareWinnersResult struct {
	RequiresConfirmation bool
	Warnings             []string
	Winners              []entities.DeclaredWinner
	Ties                 []entities.PositionTie
	Summary              entities.ElectionSummary
	Declaration          *entities.WinnerDeclaration
}

// DeclareWinnersUseCase recomputes results from the authoritative ballot log
// and persists a winners/ties snapshot onto the election. Declaration is
// idempotent: re-running recomputes fresh and overwrites the snapshot. It does
// not close the election against further ballots; a warning flags that gap
// when the election is still accepting ballots.
type DeclareWinnersUseCase struct {
	Elections ports.ElectionRepository
	Ballots   ports.BallotRepository
	Tally     tally.Reconciler
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc DeclareWinnersUseCase) DeclareWinners(ctx context.Context, cmd DeclareWinnersCommand) (DeclareWinnersResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	electionID := strings.TrimSpace(cmd.ElectionID)
	adminID := strings.TrimSpace(cmd.Admin.VoterID)
	if electionID == "" || adminID == "" {
		return DeclareWinnersResult{}, domainerrors.ErrInvalidIdentifier
	}
	if cmd.Admin.Role != entities.RoleAdmin {
		return DeclareWinnersResult{}, domainerrors.ErrAdminRequired
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return DeclareWinnersResult{}, err
	}

	candidates, err := uc.Tally.ReconcileElection(ctx, electionID)
	if err != nil {
		return DeclareWinnersResult{}, err
	}
	positions := entities.RankPositions(candidates)

	winners := make([]entities.DeclaredWinner, 0, len(positions))
	ties := make([]entities.PositionTie, 0)
	warnings := make([]string, 0)
	total := 0
	for _, position := range positions {
		total += position.TotalVotes
		switch {
		case position.IsTie:
			ties = append(ties, entities.PositionTie{
				Position:   position.Position,
				Votes:      position.TiedCandidates[0].Votes,
				Candidates: position.TiedCandidates,
			})
			warnings = append(warnings, fmt.Sprintf("position %q is tied among %d candidates with %d votes; no winner can be declared",
				position.Position, len(position.TiedCandidates), position.TiedCandidates[0].Votes))
		case position.Winner == nil:
			warnings = append(warnings, fmt.Sprintf("position %q received no ballots", position.Position))
		default:
			winners = append(winners, entities.DeclaredWinner{
				Position:    position.Position,
				CandidateID: position.Winner.CandidateID,
				Name:        position.Winner.Name,
				Votes:       position.Winner.Votes,
			})
		}
	}

	now := uc.now()
	if election.AcceptsBallots(now) {
		warnings = append(warnings, "election is still accepting ballots; declared results may change")
	}

	voters, err := uc.Ballots.DistinctVoters(ctx, electionID)
	if err != nil {
		return DeclareWinnersResult{}, err
	}
	summary := entities.ElectionSummary{
		TotalVotes:     total,
		UniqueVoters:   len(voters),
		EligibleVoters: election.EligibleVoters,
		TurnoutRate:    entities.TurnoutRate(len(voters), election.EligibleVoters),
	}

	if len(warnings) > 0 && !cmd.Confirm {
		logger.Info("winner declaration needs confirmation",
			"event", "declaration_confirmation_required",
			"module", "elections/voting-engine",
			"layer", "application",
			"election_id", electionID,
			"warnings", len(warnings),
		)
		return DeclareWinnersResult{
			RequiresConfirmation: true,
			Warnings:             warnings,
			Winners:              winners,
			Ties:                 ties,
			Summary:              summary,
		}, nil
	}

	declaration := entities.WinnerDeclaration{
		Winners:    winners,
		Ties:       ties,
		DeclaredAt: now,
		DeclaredBy: adminID,
	}
	if err := uc.Elections.SaveDeclaration(ctx, electionID, declaration); err != nil {
		return DeclareWinnersResult{}, err
	}

	logger.Info("winners declared",
		"event", "winners_declared",
		"module", "elections/voting-engine",
		"layer", "application",
		"election_id", electionID,
		"declared_by", adminID,
		"winners", len(winners),
		"ties", len(ties),
	)
	return DeclareWinnersResult{
		Warnings:    warnings,
		Winners:     winners,
		Ties:        ties,
		Summary:     summary,
		Declaration: &declaration,
	}, nil
}

func (uc DeclareWinnersUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
