package entities

import (
	"math"
	"sort"
	"strings"
)

// RankPositions partitions candidates by position and ranks each contest.
// Positions are ordered alphabetically and candidates by votes descending,
// then name, so output is stable across runs. Position labels are grouped
// verbatim after trimming; no case folding is applied.
func RankPositions(candidates []Candidate) []PositionResult {
	grouped := make(map[string][]Candidate)
	for _, candidate := range candidates {
		position := strings.TrimSpace(candidate.Position)
		grouped[position] = append(grouped[position], candidate)
	}

	names := make([]string, 0, len(grouped))
	for position := range grouped {
		names = append(names, position)
	}
	sort.Strings(names)

	results := make([]PositionResult, 0, len(names))
	for _, position := range names {
		results = append(results, rankPosition(position, grouped[position]))
	}
	return results
}

func rankPosition(position string, candidates []Candidate) PositionResult {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes == candidates[j].Votes {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].Votes > candidates[j].Votes
	})

	total := 0
	for _, candidate := range candidates {
		total += candidate.Votes
	}

	standings := make([]CandidateStanding, 0, len(candidates))
	for _, candidate := range candidates {
		percentage := 0.0
		if total > 0 {
			percentage = roundTo2(float64(candidate.Votes) / float64(total) * 100)
		}
		standings = append(standings, CandidateStanding{
			CandidateID: candidate.CandidateID,
			Name:        candidate.Name,
			Votes:       candidate.Votes,
			Percentage:  percentage,
		})
	}

	result := PositionResult{
		Position:   position,
		TotalVotes: total,
		Candidates: standings,
	}
	if len(standings) == 0 || standings[0].Votes == 0 {
		return result
	}

	top := standings[0].Votes
	tied := make([]CandidateStanding, 0, 2)
	for _, standing := range standings {
		if standing.Votes == top {
			tied = append(tied, standing)
		}
	}
	if len(tied) > 1 {
		result.IsTie = true
		result.TiedCandidates = tied
		return result
	}
	winner := standings[0]
	result.Winner = &winner
	return result
}

// TurnoutRate is the share of eligible voters who cast at least one ballot,
// rounded to two decimals. Zero eligible voters yields zero, not a division
// error.
func TurnoutRate(uniqueVoters int, eligibleVoters int) float64 {
	if eligibleVoters <= 0 {
		return 0
	}
	return roundTo2(float64(uniqueVoters) / float64(eligibleVoters) * 100)
}

func roundTo2(value float64) float64 {
	return math.Round(value*100) / 100
}
