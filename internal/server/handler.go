package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/psantana5/factbench/internal/runner"
	"github.com/psantana5/factbench/internal/store"
	"github.com/psantana5/factbench/pkg/logging"
	"github.com/psantana5/factbench/pkg/ratelimit"
)

const defaultListLimit = 20

// Handler exposes runs over HTTP
type Handler struct {
	runner  *runner.Runner
	limiter *ratelimit.Limiter
	keyFunc func(*http.Request) string
	logger  *logging.Logger
}

// NewHandler creates a handler. A nil limiter leaves /run unthrottled.
func NewHandler(r *runner.Runner, limiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		runner:  r,
		limiter: limiter,
		keyFunc: ratelimit.IPKeyFunc,
		logger:  logger,
	}
}

// SetKeyFunc changes how /run clients are told apart. Call before
// RegisterRoutes.
func (h *Handler) SetKeyFunc(fn func(*http.Request) string) {
	if fn != nil {
		h.keyFunc = fn
	}
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	var run http.Handler = http.HandlerFunc(h.Run)
	if h.limiter != nil {
		run = h.limiter.Middleware(h.keyFunc)(run)
	}

	r.Handle("/run", run).Methods("GET", "POST")
	r.HandleFunc("/runs", h.ListRuns).Methods("GET")
	r.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")
	r.Handle("/metrics", h.runner.Metrics().Handler()).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

// NewRouter builds a router with every route registered
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

// Run executes one measured run and returns its result
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context(), nil)
	if err != nil {
		h.logger.Error("Run could not be recorded", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to record run", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// ListRuns returns stored runs, newest first
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	s := h.runner.Store()
	if s == nil {
		http.Error(w, "Run history is not enabled", http.StatusNotFound)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns a single stored run
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	s := h.runner.Store()
	if s == nil {
		http.Error(w, "Run history is not enabled", http.StatusNotFound)
		return
	}

	id := mux.Vars(r)["id"]
	run, err := s.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get run", map[string]interface{}{"run_id": id, "error": err.Error()})
		http.Error(w, "Failed to get run", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// Health reports liveness, and history reachability when configured
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if s := h.runner.Store(); s != nil {
		if err := s.HealthCheck(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("Failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
