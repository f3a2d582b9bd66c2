package entities

import "time"

// CandidateStanding is one candidate's reconciled tally within a position.
type CandidateStanding struct {
	CandidateID string
	Name        string
	Votes       int
	Percentage  float64
}

// PositionResult ranks the candidates contesting one position. Winner stays
// nil while the top non-zero count is shared by two or more candidates.
type PositionResult struct {
	Position       string
	TotalVotes     int
	Candidates     []CandidateStanding
	Winner         *CandidateStanding
	IsTie          bool
	TiedCandidates []CandidateStanding
}

type ElectionSummary struct {
	TotalVotes     int
	UniqueVoters   int
	EligibleVoters int
	TurnoutRate    float64
}

type ElectionResults struct {
	ElectionID string
	Title      string
	Status     ElectionStatus
	TotalVotes int
	Positions  []PositionResult
	Summary    ElectionSummary
}

type DeclaredWinner struct {
	Position    string
	CandidateID string
	Name        string
	Votes       int
}

type PositionTie struct {
	Position   string
	Votes      int
	Candidates []CandidateStanding
}

// WinnerDeclaration is the snapshot persisted onto an election when an admin
// declares results.
type WinnerDeclaration struct {
	Winners    []DeclaredWinner
	Ties       []PositionTie
	DeclaredAt time.Time
	DeclaredBy string
}
