package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used for unit tests and local wiring. It
// implements every port of the module, including the ballot identity
// constraint: the duplicate check and insert happen under one lock, so the
// uniqueness guarantee holds for concurrent casts just as it does in Postgres.
type Store struct {
	mu sync.RWMutex

	elections  map[string]entities.Election
	candidates map[string]entities.Candidate
	ballots    map[string]entities.Ballot
	identity   map[string]string // (election, voter, position) -> ballot id
}

func NewStore(seed []entities.Ballot) *Store {
	store := &Store{
		elections:  make(map[string]entities.Election),
		candidates: make(map[string]entities.Candidate),
		ballots:    make(map[string]entities.Ballot, len(seed)),
		identity:   make(map[string]string, len(seed)),
	}
	for _, ballot := range seed {
		store.ballots[ballot.BallotID] = ballot
		store.identity[identityKey(ballot.ElectionID, ballot.VoterID, ballot.Position)] = ballot.BallotID
	}
	return store
}

func (s *Store) SetElection(election entities.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[strings.TrimSpace(election.ElectionID)] = election
}

func (s *Store) SetCandidate(candidate entities.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[strings.TrimSpace(candidate.CandidateID)] = candidate
}

func (s *Store) InsertBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey(ballot.ElectionID, ballot.VoterID, ballot.Position)
	if _, exists := s.identity[key]; exists {
		return domainerrors.ErrDuplicateBallot
	}
	s.ballots[ballot.BallotID] = ballot
	s.identity[key] = ballot.BallotID
	return nil
}

func (s *Store) GetBallotByIdentity(
	_ context.Context,
	electionID string,
	voterID string,
	position string,
) (entities.Ballot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballotID, ok := s.identity[identityKey(electionID, voterID, position)]
	if !ok {
		return entities.Ballot{}, false, nil
	}
	return s.ballots[ballotID], true, nil
}

func (s *Store) ListBallotsByVoter(_ context.Context, electionID string, voterID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0)
	for _, ballot := range s.ballots {
		if ballot.ElectionID == strings.TrimSpace(electionID) && ballot.VoterID == strings.TrimSpace(voterID) {
			items = append(items, ballot)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) CountBallots(_ context.Context, filter ports.BallotFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ballot := range s.ballots {
		if matchesFilter(ballot, filter) {
			count++
		}
	}
	return count, nil
}

func (s *Store) DistinctVoters(_ context.Context, electionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ballot := range s.ballots {
		if ballot.ElectionID == strings.TrimSpace(electionID) {
			seen[ballot.VoterID] = struct{}{}
		}
	}
	voters := make([]string, 0, len(seen))
	for voterID := range seen {
		voters = append(voters, voterID)
	}
	sort.Strings(voters)
	return voters, nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) ListCandidatesByElection(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].Name < items[j].Name
		}
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func (s *Store) IncrementVotes(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	candidate.Votes++
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) SetVotes(_ context.Context, candidateID string, votes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	candidate.Votes = votes
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListActiveElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0)
	for _, election := range s.elections {
		if election.IsActive {
			items = append(items, election)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ElectionID < items[j].ElectionID
	})
	return items, nil
}

func (s *Store) SaveDeclaration(_ context.Context, electionID string, declaration entities.WinnerDeclaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	election.WinnersDeclared = true
	election.Declaration = &declaration
	election.UpdatedAt = declaration.DeclaredAt
	s.elections[election.ElectionID] = election
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func identityKey(electionID string, voterID string, position string) string {
	return strings.TrimSpace(electionID) + "|" + strings.TrimSpace(voterID) + "|" + strings.TrimSpace(position)
}

func matchesFilter(ballot entities.Ballot, filter ports.BallotFilter) bool {
	if id := strings.TrimSpace(filter.ElectionID); id != "" && ballot.ElectionID != id {
		return false
	}
	if id := strings.TrimSpace(filter.CandidateID); id != "" && ballot.CandidateID != id {
		return false
	}
	if position := strings.TrimSpace(filter.Position); position != "" && ballot.Position != position {
		return false
	}
	return true
}

var _ ports.BallotRepository = (*Store)(nil)
var _ ports.CandidateRepository = (*Store)(nil)
var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
