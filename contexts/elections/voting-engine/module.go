package votingengine

import (
	"log/slog"

	httpadapter "ballotbox/contexts/elections/voting-engine/adapters/http"
	"ballotbox/contexts/elections/voting-engine/adapters/memory"
	"ballotbox/contexts/elections/voting-engine/application/commands"
	"ballotbox/contexts/elections/voting-engine/application/queries"
	"ballotbox/contexts/elections/voting-engine/application/tally"
	"ballotbox/contexts/elections/voting-engine/domain/entities"
	"ballotbox/contexts/elections/voting-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Tally   tally.Reconciler
	Store   *memory.Store
}

type Dependencies struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Ballots    ports.BallotRepository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	reconciler := tally.Reconciler{
		Ballots:    deps.Ballots,
		Candidates: deps.Candidates,
		Logger:     deps.Logger,
	}
	castUseCase := commands.CastVoteUseCase{
		Elections:  deps.Elections,
		Candidates: deps.Candidates,
		Ballots:    deps.Ballots,
		Tally:      reconciler,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	declareUseCase := commands.DeclareWinnersUseCase{
		Elections: deps.Elections,
		Ballots:   deps.Ballots,
		Tally:     reconciler,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Elections: deps.Elections,
		Ballots:   deps.Ballots,
		Tally:     reconciler,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Casting:      castUseCase,
			Declarations: declareUseCase,
			Results:      resultsUseCase,
			Exports:      queries.ExportUseCase{Results: resultsUseCase},
			Logger:       deps.Logger,
		},
		Tally: reconciler,
	}
}

func NewInMemoryModule(seed []entities.Ballot, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Elections:  store,
		Candidates: store,
		Ballots:    store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
