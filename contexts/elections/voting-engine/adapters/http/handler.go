package httpadapter

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"ballotbox/contexts/elections/voting-engine/application/commands"
	"ballotbox/contexts/elections/voting-engine/application/queries"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	httptransport "ballotbox/contexts/elections/voting-engine/transport/http"

	"github.com/google/uuid"
)

type Handler struct {
	Casting      commands.CastVoteUseCase
	Declarations commands.DeclareWinnersUseCase
	Results      queries.ResultsUseCase
	Exports      queries.ExportUseCase
	Logger       *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	electionID string,
	voterID string,
	voterRole string,
	req httptransport.CastVoteRequest,
) (httptransport.BallotReceiptResponse, error) {
	if err := validateIdentifiers(electionID, req.CandidateID, voterID); err != nil {
		return httptransport.BallotReceiptResponse{}, err
	}
	result, err := h.Casting.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:  electionID,
		CandidateID: req.CandidateID,
		Voter:       voterIdentity(voterID, voterRole),
	})
	if err != nil {
		return httptransport.BallotReceiptResponse{}, err
	}
	return httptransport.BallotReceiptResponse{
		BallotID: result.Ballot.BallotID,
		Election: httptransport.ElectionRef{
			ElectionID: result.Ballot.ElectionID,
			Title:      result.ElectionTitle,
		},
		Candidate: httptransport.CandidateRef{
			CandidateID: result.Ballot.CandidateID,
			Name:        result.CandidateName,
			Position:    result.Ballot.Position,
			Votes:       result.CandidateVotes,
		},
		CastAt: result.Ballot.CastAt,
	}, nil
}

func (h Handler) MyVotesHandler(
	ctx context.Context,
	electionID string,
	voterID string,
	voterRole string,
) (httptransport.MyVotesResponse, error) {
	if err := validateIdentifiers(electionID, voterID); err != nil {
		return httptransport.MyVotesResponse{}, err
	}
	ballots, err := h.Casting.MyBallots(ctx, electionID, voterIdentity(voterID, voterRole))
	if err != nil {
		return httptransport.MyVotesResponse{}, err
	}
	items := make([]httptransport.BallotItem, 0, len(ballots))
	positions := make([]string, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, httptransport.BallotItem{
			BallotID:    ballot.BallotID,
			CandidateID: ballot.CandidateID,
			Position:    ballot.Position,
			CastAt:      ballot.CastAt,
		})
		positions = append(positions, ballot.Position)
	}
	sort.Strings(positions)
	return httptransport.MyVotesResponse{
		ElectionID:     strings.TrimSpace(electionID),
		Ballots:        items,
		PositionsVoted: positions,
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, electionID string) (httptransport.ResultsResponse, error) {
	if err := validateIdentifiers(electionID); err != nil {
		return httptransport.ResultsResponse{}, err
	}
	results, err := h.Results.ElectionResults(ctx, electionID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	positions := make(map[string]httptransport.PositionResultPayload, len(results.Positions))
	for _, position := range results.Positions {
		positions[position.Position] = httptransport.PositionResultPayload{
			TotalVotes: position.TotalVotes,
			Candidates: mapStandings(position.Candidates),
		}
	}
	return httptransport.ResultsResponse{
		ElectionID: results.ElectionID,
		Title:      results.Title,
		Status:     string(results.Status),
		TotalVotes: results.TotalVotes,
		Positions:  positions,
	}, nil
}

func (h Handler) FinalResultsHandler(ctx context.Context, electionID string) (httptransport.FinalResultsResponse, error) {
	if err := validateIdentifiers(electionID); err != nil {
		return httptransport.FinalResultsResponse{}, err
	}
	results, err := h.Results.ElectionResults(ctx, electionID)
	if err != nil {
		return httptransport.FinalResultsResponse{}, err
	}
	positions := make(map[string]httptransport.FinalPositionPayload, len(results.Positions))
	for _, position := range results.Positions {
		payload := httptransport.FinalPositionPayload{
			TotalVotes: position.TotalVotes,
			Candidates: mapStandings(position.Candidates),
			IsTie:      position.IsTie,
		}
		if position.Winner != nil {
			winner := mapStanding(*position.Winner)
			payload.Winner = &winner
		}
		if position.IsTie {
			payload.TiedCandidates = mapStandings(position.TiedCandidates)
		}
		positions[position.Position] = payload
	}
	return httptransport.FinalResultsResponse{
		ElectionID: results.ElectionID,
		Title:      results.Title,
		Status:     string(results.Status),
		TotalVotes: results.TotalVotes,
		Positions:  positions,
		Summary:    mapSummary(results.Summary),
	}, nil
}

func (h Handler) DeclareWinnersHandler(
	ctx context.Context,
	electionID string,
	adminID string,
	adminRole string,
	req httptransport.DeclareWinnersRequest,
) (httptransport.DeclareWinnersResponse, error) {
	if err := validateIdentifiers(electionID, adminID); err != nil {
		return httptransport.DeclareWinnersResponse{}, err
	}
	result, err := h.Declarations.DeclareWinners(ctx, commands.DeclareWinnersCommand{
		ElectionID: electionID,
		Admin:      voterIdentity(adminID, adminRole),
		Confirm:    req.ConfirmDeclaration,
	})
	if err != nil {
		return httptransport.DeclareWinnersResponse{}, err
	}

	winners := make([]httptransport.DeclaredWinnerPayload, 0, len(result.Winners))
	for _, winner := range result.Winners {
		winners = append(winners, httptransport.DeclaredWinnerPayload{
			Position:    winner.Position,
			CandidateID: winner.CandidateID,
			Name:        winner.Name,
			Votes:       winner.Votes,
		})
	}
	ties := make([]httptransport.PositionTiePayload, 0, len(result.Ties))
	for _, tie := range result.Ties {
		ties = append(ties, httptransport.PositionTiePayload{
			Position:   tie.Position,
			Votes:      tie.Votes,
			Candidates: mapStandings(tie.Candidates),
		})
	}
	resp := httptransport.DeclareWinnersResponse{
		RequiresConfirmation: result.RequiresConfirmation,
		Warnings:             result.Warnings,
		Winners:              winners,
		Ties:                 ties,
		Summary:              mapSummary(result.Summary),
	}
	if result.Declaration != nil {
		resp.Declaration = &httptransport.DeclarationPayload{
			DeclaredAt: result.Declaration.DeclaredAt,
			DeclaredBy: result.Declaration.DeclaredBy,
		}
	}
	return resp, nil
}

func (h Handler) ExportResultsHandler(
	ctx context.Context,
	electionID string,
	format string,
) ([]byte, string, error) {
	if err := validateIdentifiers(electionID); err != nil {
		return nil, "", err
	}
	return h.Exports.Export(ctx, electionID, queries.ExportFormat(format))
}

func voterIdentity(voterID string, role string) entities.VoterIdentity {
	return entities.VoterIdentity{
		VoterID: strings.TrimSpace(voterID),
		Role:    entities.VoterRole(strings.ToLower(strings.TrimSpace(role))),
	}
}

// validateIdentifiers rejects malformed ids before any store access.
func validateIdentifiers(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
			return domainerrors.ErrInvalidIdentifier
		}
	}
	return nil
}

func mapStanding(standing entities.CandidateStanding) httptransport.CandidateResultItem {
	return httptransport.CandidateResultItem{
		CandidateID: standing.CandidateID,
		Name:        standing.Name,
		Votes:       standing.Votes,
		Percentage:  standing.Percentage,
	}
}

func mapStandings(standings []entities.CandidateStanding) []httptransport.CandidateResultItem {
	items := make([]httptransport.CandidateResultItem, 0, len(standings))
	for _, standing := range standings {
		items = append(items, mapStanding(standing))
	}
	return items
}

func mapSummary(summary entities.ElectionSummary) httptransport.SummaryPayload {
	return httptransport.SummaryPayload{
		TotalVotes:     summary.TotalVotes,
		UniqueVoters:   summary.UniqueVoters,
		EligibleVoters: summary.EligibleVoters,
		TurnoutRate:    summary.TurnoutRate,
	}
}
