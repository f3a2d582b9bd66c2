package v1

import "time"

// ResultsExport is the canonical, versioned results snapshot for cross-runtime
// consumers. This package is generated-contract-only and must stay backward
// compatible.
type ResultsExport struct {
	SchemaVersion int             `json:"schema_version"`
	GeneratedAt   time.Time       `json:"generated_at"`
	ElectionID    string          `json:"election_id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	TotalVotes    int             `json:"total_votes"`
	Positions     []PositionSlice `json:"positions"`
	Summary       TurnoutSummary  `json:"summary"`
}

// PositionSlice carries the ranked standings for one contested position.
// Winner is omitted while the top non-zero count is shared.
type PositionSlice struct {
	Position       string              `json:"position"`
	TotalVotes     int                 `json:"total_votes"`
	Candidates     []CandidateStanding `json:"candidates"`
	Winner         *CandidateStanding  `json:"winner,omitempty"`
	IsTie          bool                `json:"is_tie"`
	TiedCandidates []CandidateStanding `json:"tied_candidates,omitempty"`
}

type CandidateStanding struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

type TurnoutSummary struct {
	TotalVotes     int     `json:"total_votes"`
	UniqueVoters   int     `json:"unique_voters"`
	EligibleVoters int     `json:"eligible_voters"`
	TurnoutRate    float64 `json:"turnout_rate"`
}
