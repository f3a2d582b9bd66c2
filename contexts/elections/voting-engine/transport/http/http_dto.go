package http

import "time"

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details *DuplicateBallotDetail `json:"details,omitempty"`
}

// DuplicateBallotDetail echoes back what the voter already chose so the UI can
// explain the rejection.
type DuplicateBallotDetail struct {
	Position      string    `json:"position"`
	CandidateID   string    `json:"candidate_id,omitempty"`
	CandidateName string    `json:"candidate_name,omitempty"`
	CastAt        time.Time `json:"cast_at"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

type ElectionRef struct {
	ElectionID string `json:"id"`
	Title      string `json:"title"`
}

type CandidateRef struct {
	CandidateID string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	Votes       int    `json:"votes"`
}

type BallotReceiptResponse struct {
	BallotID  string       `json:"ballot_id"`
	Election  ElectionRef  `json:"election"`
	Candidate CandidateRef `json:"candidate"`
	CastAt    time.Time    `json:"cast_at"`
}

type BallotItem struct {
	BallotID    string    `json:"ballot_id"`
	CandidateID string    `json:"candidate_id"`
	Position    string    `json:"position"`
	CastAt      time.Time `json:"cast_at"`
}

type MyVotesResponse struct {
	ElectionID     string       `json:"election_id"`
	Ballots        []BallotItem `json:"ballots"`
	PositionsVoted []string     `json:"positions_voted"`
}

type CandidateResultItem struct {
	CandidateID string  `json:"id"`
	Name        string  `json:"name"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

type PositionResultPayload struct {
	TotalVotes int                   `json:"total_votes"`
	Candidates []CandidateResultItem `json:"candidates"`
}

// ResultsResponse keys positions by name; encoding/json renders map keys in
// sorted order, which keeps the payload stable.
type ResultsResponse struct {
	ElectionID string                           `json:"election_id"`
	Title      string                           `json:"title"`
	Status     string                           `json:"status"`
	TotalVotes int                              `json:"total_votes"`
	Positions  map[string]PositionResultPayload `json:"positions"`
}

type FinalPositionPayload struct {
	TotalVotes     int                   `json:"total_votes"`
	Candidates     []CandidateResultItem `json:"candidates"`
	Winner         *CandidateResultItem  `json:"winner,omitempty"`
	IsTie          bool                  `json:"is_tie"`
	TiedCandidates []CandidateResultItem `json:"tied_candidates,omitempty"`
}

type SummaryPayload struct {
	TotalVotes     int     `json:"total_votes"`
	UniqueVoters   int     `json:"unique_voters"`
	EligibleVoters int     `json:"eligible_voters"`
	TurnoutRate    float64 `json:"turnout_rate"`
}

type FinalResultsResponse struct {
	ElectionID string                          `json:"election_id"`
	Title      string                          `json:"title"`
	Status     string                          `json:"status"`
	TotalVotes int                             `json:"total_votes"`
	Positions  map[string]FinalPositionPayload `json:"positions"`
	Summary    SummaryPayload                  `json:"summary"`
}

type DeclareWinnersRequest struct {
	ConfirmDeclaration bool `json:"confirm_declaration"`
}

type DeclaredWinnerPayload struct {
	Position    string `json:"position"`
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

type PositionTiePayload struct {
	Position   string                `json:"position"`
	Votes      int                   `json:"votes"`
	Candidates []CandidateResultItem `json:"candidates"`
}

type DeclarationPayload struct {
	DeclaredAt time.Time `json:"declared_at"`
	DeclaredBy string    `json:"declared_by"`
}

type DeclareWinnersResponse struct {
	RequiresConfirmation bool                    `json:"requires_confirmation"`
	Warnings             []string                `json:"warnings,omitempty"`
	Winners              []DeclaredWinnerPayload `json:"winners"`
	Ties                 []PositionTiePayload    `json:"ties"`
	Summary              SummaryPayload          `json:"summary"`
	Declaration          *DeclarationPayload     `json:"declaration,omitempty"`
}
