// Package measurement enumerates Pauli-product basis settings and draws
// synthetic projective measurement outcomes from a state's true
// probabilities.
package measurement

import (
	"fmt"
	"math/rand/v2"

	"github.com/aristath/qtomo/internal/modules/quantum"
)

// pauliSymbols in base-4 digit order; index 0 is identity.
const pauliSymbols = "IXYZ"

// ShotBudget holds the configured shot count per measurement axis.
type ShotBudget struct {
	X int
	Y int
	Z int
}

// Validate checks that every axis has a positive shot count.
func (b ShotBudget) Validate() error {
	if b.X <= 0 || b.Y <= 0 || b.Z <= 0 {
		return fmt.Errorf("shot counts must be positive, got X=%d Y=%d Z=%d", b.X, b.Y, b.Z)
	}
	return nil
}

// Shots returns the number of shots available for a setting: the minimum
// configured count over the axis symbols appearing in it. The axes share a
// basis-limited measurement budget, so a joint setting can only use as many
// shots as its scarcest axis allows. Returns 0 for the all-identity setting.
func (b ShotBudget) Shots(setting quantum.BasisSetting) int {
	shots := 0
	for i := 0; i < len(setting); i++ {
		var axis int
		switch setting[i] {
		case 'X':
			axis = b.X
		case 'Y':
			axis = b.Y
		case 'Z':
			axis = b.Z
		default:
			continue
		}
		if shots == 0 || axis < shots {
			shots = axis
		}
	}
	return shots
}

// Outcomes maps each measured basis setting to its drawn +-1 outcomes.
type Outcomes map[quantum.BasisSetting][]int

// Settings enumerates all 4^n - 1 non-identity basis settings for n qubits
// in deterministic base-4 order (I=0, X=1, Y=2, Z=3; qubit 0 is the most
// significant digit).
func Settings(n int) []quantum.BasisSetting {
	total := 1
	for i := 0; i < n; i++ {
		total *= 4
	}

	settings := make([]quantum.BasisSetting, 0, total-1)
	buf := make([]byte, n)
	for code := 1; code < total; code++ {
		c := code
		for q := n - 1; q >= 0; q-- {
			buf[q] = pauliSymbols[c%4]
			c /= 4
		}
		settings = append(settings, quantum.BasisSetting(buf))
	}
	return settings
}

// Simulate draws shots independent +-1 outcomes for the setting, each +1
// with the state's true probability.
func Simulate(state []complex128, setting quantum.BasisSetting, shots int, rng *rand.Rand) ([]int, error) {
	p, err := quantum.ProbabilityPlus(state, setting)
	if err != nil {
		return nil, err
	}

	outcomes := make([]int, shots)
	for i := range outcomes {
		if rng.Float64() < p {
			outcomes[i] = 1
		} else {
			outcomes[i] = -1
		}
	}
	return outcomes, nil
}

// SimulateAll draws outcomes for every non-identity basis setting.
func SimulateAll(state []complex128, n int, budget ShotBudget, rng *rand.Rand) (Outcomes, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	outcomes := make(Outcomes)
	for _, setting := range Settings(n) {
		drawn, err := Simulate(state, setting, budget.Shots(setting), rng)
		if err != nil {
			return nil, fmt.Errorf("simulating setting %s: %w", setting, err)
		}
		outcomes[setting] = drawn
	}
	return outcomes, nil
}
