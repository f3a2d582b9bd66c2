package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	votingengine "ballotbox/contexts/elections/voting-engine"
	postgresadapter "ballotbox/contexts/elections/voting-engine/adapters/postgres"
	workerapp "ballotbox/contexts/elections/voting-engine/application/workers"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/db"
	"ballotbox/internal/platform/httpserver"
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	sweeper      workerapp.TallySweeper
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgresadapter.Migrate(pg.DB); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.SeedFile != "" {
		if err := seedStore(repo, cfg.SeedFile, logger); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}
	module := votingengine.NewModule(votingengine.Dependencies{
		Elections:  repo,
		Candidates: repo,
		Ballots:    repo,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Logger:     logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := votingengine.NewModule(votingengine.Dependencies{
		Elections:  repo,
		Candidates: repo,
		Ballots:    repo,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Logger:     logger,
	})

	return &WorkerApp{
		postgres: pg,
		sweeper: workerapp.TallySweeper{
			Elections: repo,
			Tally:     module.Tally,
			Logger:    logger,
		},
		pollInterval: cfg.SweepInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.sweeper.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

type seedFixture struct {
	Elections []struct {
		ElectionID     string    `json:"election_id"`
		Title          string    `json:"title"`
		Description    string    `json:"description"`
		StartsAt       time.Time `json:"starts_at"`
		EndsAt         time.Time `json:"ends_at"`
		IsActive       bool      `json:"is_active"`
		EligibleVoters int       `json:"eligible_voters"`
	} `json:"elections"`
	Candidates []struct {
		CandidateID string `json:"candidate_id"`
		ElectionID  string `json:"election_id"`
		Name        string `json:"name"`
		Position    string `json:"position"`
		Department  string `json:"department"`
		Manifesto   string `json:"manifesto"`
	} `json:"candidates"`
}

// seedStore upserts elections and candidates from a JSON fixture. Ballot data
// is never seeded; the ballot log only grows through casts.
func seedStore(repo *postgresadapter.Repository, path string, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var fixture seedFixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}

	ctx := context.Background()
	for _, e := range fixture.Elections {
		err := repo.SaveElection(ctx, entities.Election{
			ElectionID:     e.ElectionID,
			Title:          e.Title,
			Description:    e.Description,
			StartsAt:       e.StartsAt,
			EndsAt:         e.EndsAt,
			IsActive:       e.IsActive,
			EligibleVoters: e.EligibleVoters,
		})
		if err != nil {
			return err
		}
	}
	for _, c := range fixture.Candidates {
		err := repo.SaveCandidate(ctx, entities.Candidate{
			CandidateID: c.CandidateID,
			ElectionID:  c.ElectionID,
			Name:        c.Name,
			Position:    c.Position,
			Department:  c.Department,
			Manifesto:   c.Manifesto,
		})
		if err != nil {
			return err
		}
	}

	logger.Info("seed fixture applied",
		"event", "bootstrap_seed_applied",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"elections", len(fixture.Elections),
		"candidates", len(fixture.Candidates),
	)
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
