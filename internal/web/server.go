// Package web serves the study controllers as a JSON API.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/decks"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/metrics"
	"github.com/conorfennell/langdrill/internal/srs"
	"github.com/conorfennell/langdrill/internal/study"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	decks    *decks.Registry
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
	router   chi.Router
}

// NewServer creates and configures a new server. collector and gatherer may
// be nil, in which case the due gauge and /metrics are not served.
func NewServer(registry *decks.Registry, collector *metrics.Collector, gatherer prometheus.Gatherer, log logrus.FieldLogger) *Server {
	s := &Server{
		decks:    registry,
		metrics:  collector,
		gatherer: gatherer,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)

	if s.gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/due", s.handleGetDue())
		r.Get("/decks", s.handleListDecks())
		r.Route("/decks/{deck}/{direction}", func(r chi.Router) {
			r.Post("/session", s.handleRestart())
			r.Get("/session", s.handleGetSession())
			r.Post("/grade", s.handleGrade())
			r.Post("/practice-ahead", s.handleReplace(decks.Deck.PracticeAhead))
			r.Post("/extra-new", s.handleReplace(decks.Deck.ExtraNew))
			r.Get("/settings", s.handleGetSettings())
			r.Put("/settings", s.handlePutSettings())
			r.Delete("/progress", s.handleClearProgress())
		})
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type deckResponse struct {
	Deck       domain.Deck        `json:"deck"`
	Directions []domain.Direction `json:"directions"`
}

type dueResponse struct {
	Total int              `json:"total"`
	Decks []decks.DueCount `json:"decks"`
}

// sessionResponse is the view plus any rollback notices since the last poll.
type sessionResponse struct {
	study.View[any]
	Notices []study.Notice `json:"notices,omitempty"`
}

type gradeRequest struct {
	Rating fsrs.Rating `json:"rating"`
}

type gradeResponse struct {
	Graded  srs.Card[any]   `json:"graded"`
	Session sessionResponse `json:"session"`
}

type countRequest struct {
	Count int `json:"count"`
}

type countResponse struct {
	Cards   int             `json:"cards"`
	Session sessionResponse `json:"session"`
}

// handleGetDue returns the due badge of every deck/direction.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.decks.DueCounts(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if s.metrics != nil {
			for _, c := range counts {
				s.metrics.SetDue(c.Key, c.Total)
			}
		}
		writeJSON(w, http.StatusOK, dueResponse{Total: decks.TotalDue(counts), Decks: counts})
	}
}

// handleListDecks returns the deck catalogue.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]deckResponse, 0, len(domain.AllDecks))
		for _, d := range domain.AllDecks {
			out = append(out, deckResponse{Deck: d, Directions: d.Directions()})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleRestart rebuilds the scheduled session.
func (s *Server) handleRestart() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		if err := d.Restart(); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session(d))
	})
}

// handleGetSession returns the current card, its interval preview and
// progress.
func (s *Server) handleGetSession() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		writeJSON(w, http.StatusOK, session(d))
	})
}

// handleGrade grades the current card. The rating is a name or its number.
func (s *Server) handleGrade() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		var req gradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.Join(errBadRequest, err))
			return
		}
		graded, err := d.Grade(r.Context(), req.Rating)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gradeResponse{Graded: graded, Session: session(d)})
	})
}

// handleReplace swaps the session for one of the auxiliary modes.
func (s *Server) handleReplace(replace func(decks.Deck, int) (int, error)) http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		var req countRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, errors.Join(errBadRequest, err))
			return
		}
		n, err := replace(d, req.Count)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Cards: n, Session: session(d)})
	})
}

func (s *Server) handleGetSettings() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		writeJSON(w, http.StatusOK, d.Settings())
	})
}

// handlePutSettings saves the settings and rebuilds the session if they
// changed.
func (s *Server) handlePutSettings() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		var settings domain.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			s.writeError(w, errors.Join(errBadRequest, err))
			return
		}
		if err := d.UpdateSettings(r.Context(), settings); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session(d))
	})
}

func (s *Server) handleClearProgress() http.HandlerFunc {
	return s.withDeck(func(w http.ResponseWriter, r *http.Request, d decks.Deck) {
		if err := d.ClearProgress(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session(d))
	})
}

// withDeck resolves the {deck}/{direction} path parameters and opens the
// controller.
func (s *Server) withDeck(next func(http.ResponseWriter, *http.Request, decks.Deck)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := domain.ParseKey(chi.URLParam(r, "deck"), chi.URLParam(r, "direction"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		d, err := s.decks.Deck(r.Context(), key)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, d)
	}
}

func session(d decks.Deck) sessionResponse {
	return sessionResponse{View: d.View(), Notices: d.DrainNotices()}
}

var errBadRequest = errors.New("malformed request body")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownDeck), errors.Is(err, domain.ErrUnknownDirection):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, fsrs.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, study.ErrInvalidArg):
		return http.StatusBadRequest
	case errors.Is(err, study.ErrNoCard), errors.Is(err, study.ErrNotOpen):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
