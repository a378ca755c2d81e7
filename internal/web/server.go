// Package web exposes the review engine over a small JSON API. It is a
// renderer for session outcomes; all protocol state lives in the review
// service.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fennar/vokab/internal/domain"
	"github.com/fennar/vokab/internal/review"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	svc    *review.Service
	router *http.ServeMux
	logger *slog.Logger
}

// NewServer creates and configures a new server around the engine.
func NewServer(svc *review.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		router: http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("POST /phrases", s.handleIntake())
	s.router.HandleFunc("GET /phrases", s.handleVocabulary())
	s.router.HandleFunc("GET /stats", s.handleStats())
	s.router.HandleFunc("POST /review/next", s.handleReviewNext())
	s.router.HandleFunc("POST /review/rate", s.handleReviewRate())
	s.router.HandleFunc("POST /review/interrupt", s.handleReviewInterrupt())
}

// intakeRequest accepts a single phrase or a batch; exactly one of the
// two fields should be set.
type intakeRequest struct {
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
}

type intakeResponse struct {
	Phrase  *domain.Phrase  `json:"phrase,omitempty"`
	Phrases []domain.Phrase `json:"phrases,omitempty"`
	Created bool            `json:"created,omitempty"`
}

func (s *Server) handleIntake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		if len(req.Texts) > 0 {
			phrases, err := s.svc.IntakeBatch(req.Texts)
			if err != nil {
				s.writeError(w, err)
				return
			}
			s.writeJSON(w, http.StatusOK, intakeResponse{Phrases: phrases})
			return
		}

		phrase, created, err := s.svc.IntakePhrase(req.Text)
		if err != nil {
			s.writeError(w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		s.writeJSON(w, status, intakeResponse{Phrase: &phrase, Created: created})
	}
}

func (s *Server) handleVocabulary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sortBy := r.URL.Query().Get("sort")
		ascending := r.URL.Query().Get("order") != "desc"

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		phrases, err := s.svc.Vocabulary(sortBy, ascending, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"phrases": phrases})
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.svc.Stats()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) handleReviewNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := s.svc.StartOrContinueReview()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, outcome)
	}
}

type rateRequest struct {
	Rating string `json:"rating"`
}

func (s *Server) handleReviewRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		rating, err := domain.ParseRating(req.Rating)
		if err != nil {
			s.writeError(w, err)
			return
		}

		outcome, err := s.svc.SubmitRating(rating)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) handleReviewInterrupt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.svc.InterruptReview()
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "interrupted"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps engine errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, review.ErrEmptyPhrase):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoActiveReview):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
