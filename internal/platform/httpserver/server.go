package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	votingengine "ballotbox/contexts/elections/voting-engine"
	votingerrors "ballotbox/contexts/elections/voting-engine/domain/errors"
	votinghttp "ballotbox/contexts/elections/voting-engine/transport/http"
	_ "ballotbox/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	voting votingengine.Module
}

func New(voting votingengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		voting: voting,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/elections/{election_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/votes/mine", s.handleMyVotes)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/results", s.handleResults)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/results/final", s.handleFinalResults)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/results/export", s.handleExportResults)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/winners/declare", s.handleDeclareWinners)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-User-Id")
	if voterID == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req votinghttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.voting.Handler.CastVoteHandler(
		r.Context(),
		r.PathValue("election_id"),
		voterID,
		r.Header.Get("X-User-Role"),
		req,
	)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMyVotes(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-User-Id")
	if voterID == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.voting.Handler.MyVotesHandler(
		r.Context(),
		r.PathValue("election_id"),
		voterID,
		r.Header.Get("X-User-Role"),
	)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.ResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.FinalResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportResults(w http.ResponseWriter, r *http.Request) {
	payload, contentType, err := s.voting.Handler.ExportResultsHandler(
		r.Context(),
		r.PathValue("election_id"),
		r.URL.Query().Get("format"),
	)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleDeclareWinners(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-User-Id")
	if adminID == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req votinghttp.DeclareWinnersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.voting.Handler.DeclareWinnersHandler(
		r.Context(),
		r.PathValue("election_id"),
		adminID,
		r.Header.Get("X-User-Role"),
		req,
	)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	var duplicate *votingerrors.DuplicateBallotError
	if errors.As(err, &duplicate) {
		writeJSON(w, http.StatusConflict, votinghttp.ErrorResponse{
			Code:    "duplicate_ballot",
			Message: err.Error(),
			Details: &votinghttp.DuplicateBallotDetail{
				Position:      duplicate.Position,
				CandidateID:   duplicate.CandidateID,
				CandidateName: duplicate.CandidateName,
				CastAt:        duplicate.CastAt,
			},
		})
		return
	}

	switch {
	case errors.Is(err, votingerrors.ErrInvalidIdentifier):
		writeVotingError(w, http.StatusBadRequest, "invalid_identifier", err.Error())
	case errors.Is(err, votingerrors.ErrAdminVoteForbidden):
		writeVotingError(w, http.StatusForbidden, "admin_vote_forbidden", err.Error())
	case errors.Is(err, votingerrors.ErrAdminRequired):
		writeVotingError(w, http.StatusForbidden, "admin_required", err.Error())
	case errors.Is(err, votingerrors.ErrElectionNotFound):
		writeVotingError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrCandidateNotFound):
		writeVotingError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrElectionNotActive):
		writeVotingError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, votingerrors.ErrCandidateElectionMismatch):
		writeVotingError(w, http.StatusUnprocessableEntity, "candidate_election_mismatch", err.Error())
	case errors.Is(err, votingerrors.ErrDuplicateBallot):
		writeVotingError(w, http.StatusConflict, "duplicate_ballot", err.Error())
	case errors.Is(err, votingerrors.ErrUnsupportedExportFormat):
		writeVotingError(w, http.StatusBadRequest, "unsupported_export_format", err.Error())
	case errors.Is(err, votingerrors.ErrStoreUnavailable):
		writeVotingError(w, http.StatusServiceUnavailable, "store_unavailable", "persistence store unavailable, retry later")
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
