package entities

import "time"

type VoterRole string

const (
	RoleVoter VoterRole = "voter"
	RoleAdmin VoterRole = "admin"
)

// VoterIdentity is the authenticated caller as seen by the core. It arrives as
// an explicit parameter so the use cases stay independent of any request
// context mechanism.
type VoterIdentity struct {
	VoterID string
	Role    VoterRole
}

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
)

type Election struct {
	ElectionID      string
	Title           string
	Description     string
	StartsAt        time.Time
	EndsAt          time.Time
	IsActive        bool
	EligibleVoters  int
	WinnersDeclared bool
	Declaration     *WinnerDeclaration
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AcceptsBallots reports whether a ballot may be cast at the given instant.
// Zero-value window bounds are treated as open.
func (e Election) AcceptsBallots(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if !e.StartsAt.IsZero() && now.Before(e.StartsAt) {
		return false
	}
	if !e.EndsAt.IsZero() && now.After(e.EndsAt) {
		return false
	}
	return true
}

// Status derives the lifecycle phase from the activation flag and window.
func (e Election) Status(now time.Time) ElectionStatus {
	if !e.StartsAt.IsZero() && now.Before(e.StartsAt) {
		return ElectionStatusUpcoming
	}
	if e.AcceptsBallots(now) {
		return ElectionStatusActive
	}
	return ElectionStatusCompleted
}

type Candidate struct {
	CandidateID string
	ElectionID  string
	Name        string
	Position    string
	Department  string
	Manifesto   string
	// Votes is a cached projection of the ballot count for this candidate.
	// The ballot log is authoritative; reconciliation repairs drift.
	Votes     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ballot is one immutable cast-vote record. Position is copied from the
// candidate at cast time and never re-derived.
type Ballot struct {
	BallotID    string
	ElectionID  string
	CandidateID string
	VoterID     string
	Position    string
	CastAt      time.Time
}
