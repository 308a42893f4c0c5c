package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mbecker/study/internal/engine"
	"github.com/mbecker/study/internal/models"
	"github.com/mbecker/study/internal/report"
	"github.com/mbecker/study/internal/sessions"
	"github.com/mbecker/study/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store     store.Store
	sessions  *sessions.Manager
	reportCfg report.Config
}

// NewServer creates a new API server.
func NewServer(s store.Store, mgr *sessions.Manager, reportCfg report.Config) *Server {
	return &Server{
		store:     s,
		sessions:  mgr,
		reportCfg: reportCfg,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", s.createSession)
	mux.HandleFunc("GET /api/v1/sessions", s.listSessions)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.deleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reanalyze", s.reanalyzeSession)

	mux.HandleFunc("POST /api/v1/analyze", s.analyzeSession)

	mux.HandleFunc("GET /api/v1/report", s.weeklyReport)
	mux.HandleFunc("GET /api/v1/stats", s.stats)
	mux.HandleFunc("GET /api/v1/health", s.health)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAnalysisError maps analysis failures to status codes. Validation
// problems are the caller's fault; everything else is ours.
func writeAnalysisError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// sessionRequest is the JSON body for POST /api/v1/sessions and POST /api/v1/analyze.
// EndTime may be omitted; it is derived from StartTime plus ActualMinutes.
type sessionRequest struct {
	Topic          string         `json:"topic"`
	PlannedMinutes float64        `json:"planned_minutes"`
	ActualMinutes  float64        `json:"actual_minutes"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Breaks         []models.Break `json:"breaks"`
	Notes          []string       `json:"notes"`
	SelfRating     *int           `json:"self_rating"`
}

func (req *sessionRequest) toInput() engine.Input {
	in := engine.Input{
		Topic:          req.Topic,
		PlannedMinutes: req.PlannedMinutes,
		ActualMinutes:  req.ActualMinutes,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Breaks:         req.Breaks,
		Notes:          req.Notes,
		SelfRating:     req.SelfRating,
	}
	if in.EndTime.IsZero() && !in.StartTime.IsZero() {
		in.EndTime = in.StartTime.Add(time.Duration(in.ActualMinutes * float64(time.Minute)))
	}
	return in
}

// --- Sessions ---

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	session, err := s.sessions.Log(r.Context(), req.toInput())
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	filter := store.SessionFilter{Topic: r.URL.Query().Get("topic")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	list, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*models.Session{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reanalyzeSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.sessions.Reanalyze(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// --- Analysis ---

// analyzeSession runs the full analysis without persisting anything.
func (s *Server) analyzeSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	session, err := s.sessions.Preview(r.Context(), req.toInput())
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// --- Report ---

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	reference := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		reference = t
	}

	list, err := s.store.ListSessions(r.Context(), store.SessionFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report.Build(s.reportCfg, list, reference))
}

// --- Stats ---

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSessions(r.Context(), store.SessionFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.BuildStats(list, time.Now().UTC()))
}

// --- Health ---

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
