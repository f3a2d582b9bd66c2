package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/elections/voting-engine/domain/entities"
	domainerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	"ballotbox/contexts/elections/voting-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the elections schema, including the composite unique index
// on ballots that backs the one-vote-per-voter-per-position invariant.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&electionModel{}, &candidateModel{}, &ballotModel{})
}

func (r *Repository) InsertBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateBallot
		}
		return r.fail("voting_repo_insert_ballot_failed", err,
			"ballot_id", row.ID,
			"election_id", row.ElectionID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

func (r *Repository) GetBallotByIdentity(
	ctx context.Context,
	electionID string,
	voterID string,
	position string,
) (entities.Ballot, bool, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Where("position = ?", strings.TrimSpace(position)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, false, nil
		}
		return entities.Ballot{}, false, r.fail("voting_repo_get_ballot_by_identity_failed", err,
			"election_id", strings.TrimSpace(electionID),
			"voter_id", strings.TrimSpace(voterID),
			"position", strings.TrimSpace(position),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListBallotsByVoter(ctx context.Context, electionID string, voterID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.fail("voting_repo_list_ballots_by_voter_failed", err,
			"election_id", strings.TrimSpace(electionID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountBallots(ctx context.Context, filter ports.BallotFilter) (int, error) {
	tx := r.db.WithContext(ctx).Model(&ballotModel{})
	if strings.TrimSpace(filter.ElectionID) != "" {
		tx = tx.Where("election_id = ?", strings.TrimSpace(filter.ElectionID))
	}
	if strings.TrimSpace(filter.CandidateID) != "" {
		tx = tx.Where("candidate_id = ?", strings.TrimSpace(filter.CandidateID))
	}
	if strings.TrimSpace(filter.Position) != "" {
		tx = tx.Where("position = ?", strings.TrimSpace(filter.Position))
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, r.fail("voting_repo_count_ballots_failed", err,
			"election_id", strings.TrimSpace(filter.ElectionID),
			"candidate_id", strings.TrimSpace(filter.CandidateID),
		)
	}
	return int(count), nil
}

func (r *Repository) DistinctVoters(ctx context.Context, electionID string) ([]string, error) {
	var voters []string
	if err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Distinct().
		Order("voter_id ASC").
		Pluck("voter_id", &voters).Error; err != nil {
		return nil, r.fail("voting_repo_distinct_voters_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return voters, nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.fail("voting_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("position ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.fail("voting_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) IncrementVotes(ctx context.Context, candidateID string) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", strings.TrimSpace(candidateID)).
		UpdateColumn("votes", gorm.Expr("votes + ?", 1))
	if result.Error != nil {
		return r.fail("voting_repo_increment_votes_failed", result.Error,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) SetVotes(ctx context.Context, candidateID string, votes int) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", strings.TrimSpace(candidateID)).
		UpdateColumn("votes", votes)
	if result.Error != nil {
		return r.fail("voting_repo_set_votes_failed", result.Error,
			"candidate_id", strings.TrimSpace(candidateID),
			"votes", votes,
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.fail("voting_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity()
}

func (r *Repository) ListActiveElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.fail("voting_repo_list_active_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		election, err := row.toEntity()
		if err != nil {
			return nil, r.fail("voting_repo_decode_election_failed", err, "election_id", row.ID)
		}
		items = append(items, election)
	}
	return items, nil
}

func (r *Repository) SaveDeclaration(ctx context.Context, electionID string, declaration entities.WinnerDeclaration) error {
	payload, err := json.Marshal(declaration)
	if err != nil {
		return r.fail("voting_repo_encode_declaration_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	declaredAt := declaration.DeclaredAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&electionModel{}).
		Where("id = ?", strings.TrimSpace(electionID)).
		Updates(map[string]any{
			"winners_declared": true,
			"declaration":      payload,
			"declared_at":      declaredAt,
			"declared_by":      strings.TrimSpace(declaration.DeclaredBy),
			"updated_at":       declaredAt,
		})
	if result.Error != nil {
		return r.fail("voting_repo_save_declaration_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrElectionNotFound
	}
	return nil
}

// SaveElection upserts an election row. Used by seeding and operational
// tooling; the core never creates elections on the request path.
func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row, err := electionModelFromEntity(election)
	if err != nil {
		return r.fail("voting_repo_encode_election_failed", err, "election_id", election.ElectionID)
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":           row.Title,
			"description":     row.Description,
			"starts_at":       row.StartsAt,
			"ends_at":         row.EndsAt,
			"is_active":       row.IsActive,
			"eligible_voters": row.EligibleVoters,
			"updated_at":      row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.fail("voting_repo_save_election_failed", create.Error, "election_id", row.ID)
	}
	return nil
}

// SaveCandidate upserts a candidate row without touching the votes counter.
func (r *Repository) SaveCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"election_id": row.ElectionID,
			"name":        row.Name,
			"position":    row.Position,
			"department":  row.Department,
			"manifesto":   row.Manifesto,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.fail("voting_repo_save_candidate_failed", create.Error, "candidate_id", row.ID)
	}
	return nil
}

func (r *Repository) fail(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "elections/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

type electionModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Title           string     `gorm:"column:title"`
	Description     string     `gorm:"column:description"`
	StartsAt        time.Time  `gorm:"column:starts_at"`
	EndsAt          time.Time  `gorm:"column:ends_at"`
	IsActive        bool       `gorm:"column:is_active"`
	EligibleVoters  int        `gorm:"column:eligible_voters"`
	WinnersDeclared bool       `gorm:"column:winners_declared"`
	Declaration     []byte     `gorm:"column:declaration;type:jsonb"`
	DeclaredAt      *time.Time `gorm:"column:declared_at"`
	DeclaredBy      string     `gorm:"column:declared_by"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) (electionModel, error) {
	row := electionModel{
		ID:              strings.TrimSpace(election.ElectionID),
		Title:           strings.TrimSpace(election.Title),
		Description:     election.Description,
		StartsAt:        election.StartsAt.UTC(),
		EndsAt:          election.EndsAt.UTC(),
		IsActive:        election.IsActive,
		EligibleVoters:  election.EligibleVoters,
		WinnersDeclared: election.WinnersDeclared,
		CreatedAt:       election.CreatedAt.UTC(),
		UpdatedAt:       election.UpdatedAt.UTC(),
	}
	if election.Declaration != nil {
		payload, err := json.Marshal(election.Declaration)
		if err != nil {
			return electionModel{}, err
		}
		row.Declaration = payload
		declaredAt := election.Declaration.DeclaredAt.UTC()
		row.DeclaredAt = &declaredAt
		row.DeclaredBy = election.Declaration.DeclaredBy
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m electionModel) toEntity() (entities.Election, error) {
	election := entities.Election{
		ElectionID:      m.ID,
		Title:           m.Title,
		Description:     m.Description,
		StartsAt:        m.StartsAt.UTC(),
		EndsAt:          m.EndsAt.UTC(),
		IsActive:        m.IsActive,
		EligibleVoters:  m.EligibleVoters,
		WinnersDeclared: m.WinnersDeclared,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if len(m.Declaration) > 0 {
		var declaration entities.WinnerDeclaration
		if err := json.Unmarshal(m.Declaration, &declaration); err != nil {
			return entities.Election{}, err
		}
		election.Declaration = &declaration
	}
	return election, nil
}

type candidateModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;index"`
	Name       string    `gorm:"column:name"`
	Position   string    `gorm:"column:position"`
	Department string    `gorm:"column:department"`
	Manifesto  string    `gorm:"column:manifesto"`
	Votes      int       `gorm:"column:votes"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	row := candidateModel{
		ID:         strings.TrimSpace(candidate.CandidateID),
		ElectionID: strings.TrimSpace(candidate.ElectionID),
		Name:       strings.TrimSpace(candidate.Name),
		Position:   strings.TrimSpace(candidate.Position),
		Department: strings.TrimSpace(candidate.Department),
		Manifesto:  candidate.Manifesto,
		Votes:      candidate.Votes,
		CreatedAt:  candidate.CreatedAt.UTC(),
		UpdatedAt:  candidate.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID: m.ID,
		ElectionID:  m.ElectionID,
		Name:        m.Name,
		Position:    m.Position,
		Department:  m.Department,
		Manifesto:   m.Manifesto,
		Votes:       m.Votes,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type ballotModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	ElectionID  string    `gorm:"column:election_id;uniqueIndex:idx_ballots_identity"`
	VoterID     string    `gorm:"column:voter_id;uniqueIndex:idx_ballots_identity"`
	Position    string    `gorm:"column:position;uniqueIndex:idx_ballots_identity"`
	CandidateID string    `gorm:"column:candidate_id;index"`
	CastAt      time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		ID:          strings.TrimSpace(ballot.BallotID),
		ElectionID:  strings.TrimSpace(ballot.ElectionID),
		VoterID:     strings.TrimSpace(ballot.VoterID),
		Position:    strings.TrimSpace(ballot.Position),
		CandidateID: strings.TrimSpace(ballot.CandidateID),
		CastAt:      ballot.CastAt.UTC(),
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:    m.ID,
		ElectionID:  m.ElectionID,
		CandidateID: m.CandidateID,
		VoterID:     m.VoterID,
		Position:    m.Position,
		CastAt:      m.CastAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.CandidateRepository = (*Repository)(nil)
var _ ports.ElectionRepository = (*Repository)(nil)
