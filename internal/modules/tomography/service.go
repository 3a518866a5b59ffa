// Package tomography orchestrates full state-reconstruction runs: true
// state generation, measurement simulation, maximum-likelihood estimation,
// fidelity scoring and reduced-state extraction.
package tomography

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/qtomo/internal/modules/estimation"
	"github.com/aristath/qtomo/internal/modules/measurement"
	"github.com/aristath/qtomo/internal/modules/quantum"
)

// Service runs tomography sessions. Each run is self-contained: given its
// seed and configuration it is independently reproducible, and no state is
// shared between runs.
type Service struct {
	estimator *estimation.Estimator
	log       zerolog.Logger
}

// NewService creates a new tomography service.
func NewService(estimator *estimation.Estimator, log zerolog.Logger) *Service {
	return &Service{
		estimator: estimator,
		log:       log.With().Str("service", "tomography").Logger(),
	}
}

// SessionOptions override the random true state and tuning defaults.
type SessionOptions struct {
	// Seed fixes the run's random streams. Nil draws a fresh seed.
	Seed *uint64

	// Restarts overrides the multi-start attempt count when positive.
	Restarts int

	// Thetas/Phis supply the true state's angles instead of drawing them
	// at random. Both must be given together, with length 2^n - 1.
	Thetas []float64
	Phis   []float64

	// Source labels the persisted run (api, benchmark, stream).
	Source string

	// Progress receives per-attempt optimizer results during Run.
	Progress func(attempt int, value float64, err error)
}

// Session holds the immutable inputs of one tomography run: configuration,
// seed and the fixed true state.
type Session struct {
	config     QubitConfig
	seed       uint64
	restarts   int
	source     string
	progress   func(attempt int, value float64, err error)
	trueParams ParameterVector
	trueState  []complex128
}

// Config returns the session configuration.
func (s *Session) Config() QubitConfig { return s.config }

// Seed returns the session seed.
func (s *Session) Seed() uint64 { return s.seed }

// NewSession validates the configuration and fixes the true parameter
// vector, either drawn uniformly at random from the seed or supplied by the
// caller. Validation failures surface here, before any sampling occurs.
func (svc *Service) NewSession(cfg QubitConfig, opts SessionOptions) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := rand.Uint64()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	restarts := opts.Restarts
	if restarts <= 0 {
		restarts = 50
	}

	source := opts.Source
	if source == "" {
		source = "api"
	}

	var thetas, phis []float64
	if opts.Thetas != nil || opts.Phis != nil {
		thetas = append([]float64(nil), opts.Thetas...)
		phis = append([]float64(nil), opts.Phis...)
	} else {
		k := quantum.NumAngles(cfg.NQubits)
		rng := rand.New(rand.NewPCG(seed, 0))
		thetas = make([]float64, k)
		phis = make([]float64, k)
		for i := 0; i < k; i++ {
			thetas[i] = rng.Float64() * math.Pi
			phis[i] = rng.Float64() * 2 * math.Pi
		}
	}

	trueState, err := quantum.GenerateState(cfg.NQubits, thetas, phis)
	if err != nil {
		return nil, fmt.Errorf("invalid true state parameters: %w", err)
	}

	return &Session{
		config:     cfg,
		seed:       seed,
		restarts:   restarts,
		source:     source,
		progress:   opts.Progress,
		trueParams: ParameterVector{Thetas: thetas, Phis: phis},
		trueState:  trueState,
	}, nil
}

// Run executes the pipeline: simulate outcomes for every non-identity basis
// setting, estimate the maximum-likelihood parameters, reconstruct the
// state, score fidelity and extract per-qubit reduced states. A failure in
// any sub-step propagates; there are no retries at this level.
func (svc *Service) Run(ctx context.Context, sess *Session) (*Result, error) {
	start := time.Now()
	n := sess.config.NQubits

	rng := rand.New(rand.NewPCG(sess.seed, 1))
	outcomes, err := measurement.SimulateAll(sess.trueState, n, sess.config.Shots, rng)
	if err != nil {
		return nil, fmt.Errorf("simulating measurements: %w", err)
	}

	thetas, phis, err := svc.estimator.Estimate(ctx, n, outcomes, estimation.Options{
		Restarts: sess.restarts,
		Seed:     sess.seed + 1,
		Progress: sess.progress,
	})
	if err != nil {
		return nil, fmt.Errorf("estimating parameters: %w", err)
	}

	reconstructed, err := quantum.GenerateState(n, thetas, phis)
	if err != nil {
		return nil, fmt.Errorf("reconstructing state: %w", err)
	}

	fidelity := quantum.Fidelity(sess.trueState, reconstructed)

	trueQubits, err := ReducedStates(sess.trueState, n)
	if err != nil {
		return nil, err
	}
	reconstructedQubits, err := ReducedStates(reconstructed, n)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:               uuid.NewString(),
		Source:              sess.source,
		CreatedAt:           time.Now().UTC(),
		Config:              sess.config,
		Seed:                sess.seed,
		Restarts:            sess.restarts,
		TrueParams:          sess.trueParams,
		EstimatedParams:     ParameterVector{Thetas: thetas, Phis: phis},
		TrueState:           toAmplitudes(sess.trueState),
		ReconstructedState:  toAmplitudes(reconstructed),
		Fidelity:            fidelity,
		TrueQubits:          trueQubits,
		ReconstructedQubits: reconstructedQubits,
		DurationMs:          time.Since(start).Milliseconds(),
	}

	svc.log.Info().
		Str("run_id", result.RunID).
		Int("n_qubits", n).
		Int("restarts", sess.restarts).
		Float64("fidelity", fidelity).
		Int64("duration_ms", result.DurationMs).
		Msg("Tomography run completed")

	return result, nil
}

// ReducedStates returns each qubit's reduced density matrix and Bloch
// vector, in qubit order.
func ReducedStates(state []complex128, n int) ([]QubitState, error) {
	rho := quantum.DensityMatrix(state)

	states := make([]QubitState, 0, n)
	for q := 0; q < n; q++ {
		reduced, err := quantum.PartialTrace(rho, q, n)
		if err != nil {
			return nil, fmt.Errorf("reducing qubit %d: %w", q, err)
		}
		bloch := quantum.BlochVector(reduced)
		states = append(states, QubitState{
			Qubit: q,
			Rho:   toRho(reduced),
			Bloch: BlochVector{X: bloch.X, Y: bloch.Y, Z: bloch.Z},
		})
	}
	return states, nil
}
