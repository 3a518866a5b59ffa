// Package estimation recovers maximum-likelihood state parameters from
// measurement outcomes via multi-start bounded optimization.
package estimation

import (
	"math"
	"sort"

	"github.com/aristath/qtomo/internal/modules/measurement"
	"github.com/aristath/qtomo/internal/modules/quantum"
)

// epsilon regularizes log(0) when an outcome probability hits exactly 0 or 1.
const epsilon = 1e-10

// NegativeLogLikelihood computes the objective to minimize: for every
// measured basis setting, -(n+ * log(p + eps) + n- * log(1 - p + eps))
// where p is the +1 outcome probability of the state the parameters encode.
func NegativeLogLikelihood(n int, thetas, phis []float64, outcomes measurement.Outcomes) (float64, error) {
	state, err := quantum.GenerateState(n, thetas, phis)
	if err != nil {
		return 0, err
	}

	// Sum in a fixed setting order: map iteration order is randomized and
	// would reorder the floating-point accumulation, giving the optimizer a
	// slightly different objective on every evaluation of the same point.
	settings := make([]quantum.BasisSetting, 0, len(outcomes))
	for setting := range outcomes {
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i] < settings[j] })

	var total float64
	for _, setting := range settings {
		drawn := outcomes[setting]
		p, err := quantum.ProbabilityPlus(state, setting)
		if err != nil {
			return 0, err
		}

		plus := 0
		for _, o := range drawn {
			if o > 0 {
				plus++
			}
		}
		minus := len(drawn) - plus

		total -= float64(plus)*math.Log(p+epsilon) + float64(minus)*math.Log(1-p+epsilon)
	}
	return total, nil
}
