package estimation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/qtomo/internal/modules/measurement"
	"github.com/aristath/qtomo/internal/modules/quantum"
)

// phiMargin keeps phi strictly below 2*pi; the parameter domain is the
// half-open interval [0, 2*pi) but the optimizer needs a closed box.
const phiMargin = 1e-6

// ConvergenceError reports that every optimization attempt failed. A single
// converging attempt is enough to produce a result, so this only surfaces
// when the whole multi-start batch is unusable.
type ConvergenceError struct {
	Attempts int
	LastErr  error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("all %d optimization attempts failed: %v", e.Attempts, e.LastErr)
}

func (e *ConvergenceError) Unwrap() error {
	return e.LastErr
}

// Options configures the multi-start strategy.
type Options struct {
	// Restarts is the number of independent local optimizations. The
	// likelihood surface is non-convex (the state-to-parameter mapping is
	// many-to-one and the probabilities are trigonometric), so a single
	// local search risks stalling far from the global optimum.
	Restarts int

	// Workers bounds the number of concurrent attempts. Defaults to
	// GOMAXPROCS capped at Restarts.
	Workers int

	// Seed makes the run reproducible; each attempt derives its own
	// independent stream from it.
	Seed uint64

	// Progress, if set, receives every finished attempt in completion
	// order. Calls are serialized.
	Progress func(attempt int, value float64, err error)
}

func (o Options) withDefaults() Options {
	if o.Restarts <= 0 {
		o.Restarts = 50
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Workers > o.Restarts {
		o.Workers = o.Restarts
	}
	return o
}

// Estimator finds maximum-likelihood state parameters.
type Estimator struct {
	log zerolog.Logger
}

// NewEstimator creates a new estimator.
func NewEstimator(log zerolog.Logger) *Estimator {
	return &Estimator{
		log: log.With().Str("component", "estimator").Logger(),
	}
}

type attemptResult struct {
	attempt int
	value   float64
	thetas  []float64
	phis    []float64
	err     error
}

// Estimate runs Restarts independent bounded local optimizations of the
// negative log-likelihood from uniform random starting points and returns
// the parameters of the best (lowest) finite objective. Ties break toward
// the earlier attempt. Attempts are independent and run on a worker pool;
// cancelling the context abandons unstarted attempts.
func (e *Estimator) Estimate(ctx context.Context, n int, outcomes measurement.Outcomes, opts Options) ([]float64, []float64, error) {
	opts = opts.withDefaults()
	k := quantum.NumAngles(n)

	attempts := make(chan int)
	results := make(chan attemptResult)

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := range attempts {
				results <- e.runAttempt(n, k, attempt, outcomes, opts.Seed)
			}
		}()
	}

	go func() {
		defer close(attempts)
		for attempt := 0; attempt < opts.Restarts; attempt++ {
			if ctx.Err() != nil {
				return
			}
			select {
			case attempts <- attempt:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Pure reduction: keep the lowest objective, earliest attempt on ties.
	best := attemptResult{attempt: -1, value: math.Inf(1)}
	var lastErr error
	completed := 0
	for res := range results {
		completed++
		if opts.Progress != nil {
			opts.Progress(res.attempt, res.value, res.err)
		}
		if res.err != nil {
			lastErr = res.err
			e.log.Debug().Err(res.err).Int("attempt", res.attempt).Msg("Optimization attempt failed")
			continue
		}
		if res.value < best.value || (res.value == best.value && res.attempt < best.attempt) {
			best = res
		}
	}

	if err := ctx.Err(); err != nil && best.attempt < 0 {
		return nil, nil, err
	}
	if best.attempt < 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no attempts completed")
		}
		return nil, nil, &ConvergenceError{Attempts: opts.Restarts, LastErr: lastErr}
	}

	e.log.Debug().
		Int("attempt", best.attempt).
		Int("completed", completed).
		Float64("objective", best.value).
		Msg("Multi-start optimization finished")

	return best.thetas, best.phis, nil
}

// runAttempt performs one bounded local minimization from a random start.
func (e *Estimator) runAttempt(n, k, attempt int, outcomes measurement.Outcomes, seed uint64) attemptResult {
	rng := rand.New(rand.NewPCG(seed, uint64(attempt)+1))

	initial := make([]float64, 2*k)
	for i := 0; i < k; i++ {
		initial[i] = rng.Float64() * math.Pi
		initial[k+i] = rng.Float64() * (2*math.Pi - phiMargin)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			thetas, phis := splitParams(projectToBounds(x, k), k)
			value, err := NegativeLogLikelihood(n, thetas, phis, outcomes)
			if err != nil || math.IsNaN(value) {
				return math.Inf(1)
			}
			return value
		},
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil || !converged(result.Status) {
		// Try with a different method before giving up on the attempt.
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
		if err != nil {
			return attemptResult{attempt: attempt, err: fmt.Errorf("attempt %d: %w", attempt, err)}
		}
		if !converged(result.Status) {
			return attemptResult{attempt: attempt, err: fmt.Errorf("attempt %d did not converge: status=%v", attempt, result.Status)}
		}
	}

	if math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return attemptResult{attempt: attempt, err: fmt.Errorf("attempt %d produced non-finite objective", attempt)}
	}

	thetas, phis := splitParams(projectToBounds(result.X, k), k)
	return attemptResult{attempt: attempt, value: result.F, thetas: thetas, phis: phis}
}

// converged accepts the statuses that indicate a usable local minimum.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.FunctionThreshold:
		return true
	}
	return false
}

// projectToBounds clamps the packed parameter vector into the box
// thetas in [0, pi], phis in [0, 2*pi - margin].
func projectToBounds(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		upper := math.Pi
		if i >= k {
			upper = 2*math.Pi - phiMargin
		}
		out[i] = math.Min(math.Max(x[i], 0), upper)
	}
	return out
}

func splitParams(x []float64, k int) ([]float64, []float64) {
	return x[:k], x[k : 2*k]
}
