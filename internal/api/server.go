package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/intake/internal/intake"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/session"
)

// Status is reported by /api/v1/intake/status.
type Status struct {
	Provider string `json:"provider"`
	Policy   string `json:"policy"`
	Store    string `json:"store"`
	Sessions string `json:"sessions"`
}

type Server struct {
	router     *chi.Mux
	http       *http.Server
	intake     *intake.Service
	adminToken string
	status     Status
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewServer(port int, svc *intake.Service, adminToken string, status Status, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:     router,
		intake:     svc,
		adminToken: adminToken,
		status:     status,
		validate:   validator.New(),
		logger:     logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/intake/status", s.statusHandler)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/{id}", s.getSession)
		r.Post("/{id}/messages", s.sendMessage)
		r.Post("/{id}/save", s.saveLead)
	})

	router.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(adminToken))
		r.Get("/leads", s.listLeads)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":  "intake",
		"status": "ok",
		"config": s.status,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceError maps service errors to status codes. Completion failures
// are shown verbatim; store failures show their retryable notice.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var (
		svcErr   *lead.ServiceError
		storeErr *lead.StoreError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, intake.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrEmptyConversation), errors.Is(err, intake.ErrManualSaveOff):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &svcErr):
		writeError(w, http.StatusBadGateway, svcErr.Error())
	case errors.As(err, &storeErr):
		writeError(w, http.StatusBadGateway, storeErr.Notice())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
