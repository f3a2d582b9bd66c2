package queries

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	contractsv1 "ballotbox/contracts/gen/results/v1"
)

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatText ExportFormat = "text"
)

// ExportUseCase serializes aggregated results. It is a formatting transform
// over ResultsUseCase output, not a second tabulation.
type ExportUseCase struct {
	Results ResultsUseCase
}

// Export renders the election's final results in the requested format and
// returns the payload with its content type.
func (uc ExportUseCase) Export(ctx context.Context, electionID string, format ExportFormat) ([]byte, string, error) {
	normalized := ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if normalized == "" {
		normalized = ExportFormatJSON
	}
	switch normalized {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatText:
	default:
		return nil, "", domainerrors.ErrUnsupportedExportFormat
	}

	results, err := uc.Results.ElectionResults(ctx, electionID)
	if err != nil {
		return nil, "", err
	}

	switch normalized {
	case ExportFormatCSV:
		payload, err := exportCSV(results)
		return payload, "text/csv", err
	case ExportFormatText:
		return exportText(results), "text/plain; charset=utf-8", nil
	default:
		payload, err := json.MarshalIndent(uc.exportContract(results), "", "  ")
		return payload, "application/json", err
	}
}

// exportContract maps domain results onto the versioned wire contract so the
// JSON export stays stable across internal refactors.
func (uc ExportUseCase) exportContract(results entities.ElectionResults) contractsv1.ResultsExport {
	export := contractsv1.ResultsExport{
		SchemaVersion: 1,
		GeneratedAt:   uc.Results.now(),
		ElectionID:    results.ElectionID,
		Title:         results.Title,
		Status:        string(results.Status),
		TotalVotes:    results.TotalVotes,
		Positions:     make([]contractsv1.PositionSlice, 0, len(results.Positions)),
		Summary: contractsv1.TurnoutSummary{
			TotalVotes:     results.Summary.TotalVotes,
			UniqueVoters:   results.Summary.UniqueVoters,
			EligibleVoters: results.Summary.EligibleVoters,
			TurnoutRate:    results.Summary.TurnoutRate,
		},
	}
	for _, position := range results.Positions {
		slice := contractsv1.PositionSlice{
			Position:       position.Position,
			TotalVotes:     position.TotalVotes,
			Candidates:     contractStandings(position.Candidates),
			IsTie:          position.IsTie,
			TiedCandidates: contractStandings(position.TiedCandidates),
		}
		if position.Winner != nil {
			winner := contractStanding(*position.Winner)
			slice.Winner = &winner
		}
		export.Positions = append(export.Positions, slice)
	}
	return export
}

func contractStandings(standings []entities.CandidateStanding) []contractsv1.CandidateStanding {
	if len(standings) == 0 {
		return nil
	}
	out := make([]contractsv1.CandidateStanding, 0, len(standings))
	for _, standing := range standings {
		out = append(out, contractStanding(standing))
	}
	return out
}

func contractStanding(standing entities.CandidateStanding) contractsv1.CandidateStanding {
	return contractsv1.CandidateStanding{
		CandidateID: standing.CandidateID,
		Name:        standing.Name,
		Votes:       standing.Votes,
		Percentage:  standing.Percentage,
	}
}

func exportCSV(results entities.ElectionResults) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"position", "candidate_id", "candidate", "votes", "percentage", "winner", "tied"})
	for _, position := range results.Positions {
		for _, standing := range position.Candidates {
			record := []string{
				position.Position,
				standing.CandidateID,
				standing.Name,
				strconv.Itoa(standing.Votes),
				strconv.FormatFloat(standing.Percentage, 'f', 2, 64),
				strconv.FormatBool(position.Winner != nil && position.Winner.CandidateID == standing.CandidateID),
				strconv.FormatBool(position.IsTie && standing.Votes == topVotes(position)),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportText(results entities.ElectionResults) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "Election: %s (%s)\n", results.Title, results.Status)
	fmt.Fprintf(buf, "Total votes: %d, unique voters: %d, turnout: %.2f%%\n",
		results.TotalVotes, results.Summary.UniqueVoters, results.Summary.TurnoutRate)
	for _, position := range results.Positions {
		fmt.Fprintf(buf, "\n%s (%d votes)\n", position.Position, position.TotalVotes)
		for _, standing := range position.Candidates {
			marker := ""
			if position.Winner != nil && position.Winner.CandidateID == standing.CandidateID {
				marker = "  [winner]"
			} else if position.IsTie && standing.Votes == topVotes(position) {
				marker = "  [tied]"
			}
			fmt.Fprintf(buf, "  %-30s %6d  %6.2f%%%s\n", standing.Name, standing.Votes, standing.Percentage, marker)
		}
	}
	return buf.Bytes()
}

func topVotes(position entities.PositionResult) int {
	if len(position.Candidates) == 0 {
		return 0
	}
	return position.Candidates[0].Votes
}
