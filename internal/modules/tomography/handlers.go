package tomography

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/qtomo/internal/modules/estimation"
	"github.com/aristath/qtomo/internal/modules/measurement"
)

// trendSmoothingPeriod is the SMA window of the fidelity trend endpoint.
const trendSmoothingPeriod = 10

// Handler handles tomography HTTP requests
type Handler struct {
	service  *Service
	repo     *RunRepository
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new tomography handler
func NewHandler(service *Service, repo *RunRepository, defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		repo:     repo,
		defaults: defaults,
		log:      log.With().Str("handler", "tomography").Logger(),
	}
}

// Routes returns the router for /api/tomography.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/run", h.HandleRun)
	r.Get("/runs", h.HandleListRuns)
	r.Get("/runs/{uuid}", h.HandleGetRun)
	r.Get("/trend", h.HandleTrend)
	r.Get("/stream", h.HandleStream)
	return r
}

type runRequest struct {
	NQubits  int       `json:"n_qubits"`
	ShotsX   int       `json:"shots_x"`
	ShotsY   int       `json:"shots_y"`
	ShotsZ   int       `json:"shots_z"`
	Seed     *uint64   `json:"seed"`
	Restarts int       `json:"restarts"`
	Thetas   []float64 `json:"thetas"`
	Phis     []float64 `json:"phis"`
}

// sessionFrom validates a request against server defaults and opens a
// session. Configuration errors surface here, before any simulation.
func (h *Handler) sessionFrom(req runRequest, source string, progress func(int, float64, error)) (*Session, error) {
	if req.NQubits < 1 {
		return nil, fmt.Errorf("n_qubits must be at least 1")
	}
	if h.defaults.MaxQubits > 0 && req.NQubits > h.defaults.MaxQubits {
		return nil, fmt.Errorf("n_qubits must be at most %d", h.defaults.MaxQubits)
	}
	// Only zero/absent shot counts fall back to defaults; a negative value
	// is a caller error, not a request for the default.
	if req.ShotsX < 0 || req.ShotsY < 0 || req.ShotsZ < 0 {
		return nil, fmt.Errorf("shot counts must not be negative, got X=%d Y=%d Z=%d", req.ShotsX, req.ShotsY, req.ShotsZ)
	}

	cfg := QubitConfig{
		NQubits: req.NQubits,
		Shots: measurement.ShotBudget{
			X: orDefault(req.ShotsX, h.defaults.ShotsX),
			Y: orDefault(req.ShotsY, h.defaults.ShotsY),
			Z: orDefault(req.ShotsZ, h.defaults.ShotsZ),
		},
	}

	return h.service.NewSession(cfg, SessionOptions{
		Seed:     req.Seed,
		Restarts: orDefault(req.Restarts, h.defaults.Restarts),
		Thetas:   req.Thetas,
		Phis:     req.Phis,
		Source:   source,
		Progress: progress,
	})
}

// HandleRun handles POST /run - execute a full tomography run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.sessionFrom(req, "api", nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(r.Context(), sess)
	if err != nil {
		var convErr *estimation.ConvergenceError
		if errors.As(err, &convErr) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.log.Error().Err(err).Msg("Tomography run failed")
		http.Error(w, "Tomography run failed", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Save(result); err != nil {
		// The run itself succeeded; losing the stored copy is not fatal.
		h.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to store run")
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleListRuns handles GET /runs - list recent run summaries
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 1000 {
			http.Error(w, "Invalid limit. Must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	summaries, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  summaries,
		"count": len(summaries),
	})
}

// HandleGetRun handles GET /runs/{uuid} - full stored result
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "uuid")

	result, err := h.repo.Get(runID)
	if errors.Is(err, ErrRunNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load run")
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleTrend handles GET /trend - fidelity series of recent runs with an
// SMA smoothing overlay for the UI's quality chart.
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	fidelities, err := h.repo.RecentFidelities(100, source)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load fidelity trend")
		http.Error(w, "Failed to load fidelity trend", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"count":      len(fidelities),
		"fidelities": fidelities,
	}

	if len(fidelities) > 0 {
		response["mean"] = stat.Mean(fidelities, nil)
	}
	if len(fidelities) > 1 {
		response["std_dev"] = stat.StdDev(fidelities, nil)
	}
	if len(fidelities) >= trendSmoothingPeriod {
		response["sma"] = talib.Sma(fidelities, trendSmoothingPeriod)
		response["sma_period"] = trendSmoothingPeriod
	}

	h.writeJSON(w, http.StatusOK, response)
}

// RunAndStore executes a session and persists the result; used by the
// benchmark job and the websocket stream.
func (h *Handler) RunAndStore(ctx context.Context, sess *Session) (*Result, error) {
	result, err := h.service.Run(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Save(result); err != nil {
		h.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to store run")
	}
	return result, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
