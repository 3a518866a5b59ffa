package measurement

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qtomo/internal/modules/quantum"
)

func TestSettings_CountAndExclusions(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{n: 1, want: 3},
		{n: 2, want: 15},
		{n: 3, want: 63},
	}

	for _, tt := range tests {
		settings := Settings(tt.n)
		assert.Len(t, settings, tt.want, "n=%d", tt.n)

		seen := make(map[quantum.BasisSetting]bool)
		for _, s := range settings {
			assert.False(t, s.IsIdentity(), "all-identity setting must be excluded")
			assert.Len(t, string(s), tt.n)
			assert.False(t, seen[s], "duplicate setting %s", s)
			seen[s] = true
		}
	}
}

func TestSettings_DeterministicOrder(t *testing.T) {
	settings := Settings(1)
	assert.Equal(t, []quantum.BasisSetting{"X", "Y", "Z"}, settings)

	two := Settings(2)
	assert.Equal(t, quantum.BasisSetting("IX"), two[0])
	assert.Equal(t, quantum.BasisSetting("ZZ"), two[len(two)-1])
}

func TestShotBudget_Shots(t *testing.T) {
	budget := ShotBudget{X: 100, Y: 200, Z: 50}

	tests := []struct {
		setting quantum.BasisSetting
		want    int
	}{
		{setting: "X", want: 100},
		{setting: "XY", want: 100},
		{setting: "XZ", want: 50},
		{setting: "IY", want: 200},
		{setting: "XYZ", want: 50},
		{setting: "II", want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, budget.Shots(tt.setting), "setting=%s", tt.setting)
	}
}

func TestShotBudget_Validate(t *testing.T) {
	assert.NoError(t, ShotBudget{X: 1, Y: 1, Z: 1}.Validate())
	assert.Error(t, ShotBudget{X: 0, Y: 1, Z: 1}.Validate())
	assert.Error(t, ShotBudget{X: 1, Y: -5, Z: 1}.Validate())
}

func TestSimulate_DeterministicOutcomes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	// |0> measured in Z always yields +1.
	zero, err := quantum.GenerateState(1, []float64{0}, []float64{0})
	require.NoError(t, err)

	outcomes, err := Simulate(zero, "Z", 500, rng)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Equal(t, 1, o)
	}

	// |1> measured in Z always yields -1.
	one, err := quantum.GenerateState(1, []float64{math.Pi}, []float64{0})
	require.NoError(t, err)

	outcomes, err = Simulate(one, "Z", 500, rng)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Equal(t, -1, o)
	}
}

func TestSimulate_FrequencyMatchesProbability(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 7))

	// |+> measured in Z is a fair coin.
	plus, err := quantum.GenerateState(1, []float64{math.Pi / 2}, []float64{0})
	require.NoError(t, err)

	outcomes, err := Simulate(plus, "Z", 20000, rng)
	require.NoError(t, err)

	ups := 0
	for _, o := range outcomes {
		if o == 1 {
			ups++
		}
	}
	assert.InDelta(t, 0.5, float64(ups)/float64(len(outcomes)), 0.02)
}

func TestSimulate_Reproducible(t *testing.T) {
	state, err := quantum.GenerateState(1, []float64{math.Pi / 3}, []float64{0.4})
	require.NoError(t, err)

	a, err := Simulate(state, "X", 100, rand.New(rand.NewPCG(99, 1)))
	require.NoError(t, err)
	b, err := Simulate(state, "X", 100, rand.New(rand.NewPCG(99, 1)))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSimulateAll_CoversEverySetting(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	state, err := quantum.GenerateState(2, []float64{1.1, 0.4, 2.0}, []float64{0.3, 1.7, 0.2})
	require.NoError(t, err)

	budget := ShotBudget{X: 40, Y: 30, Z: 20}
	outcomes, err := SimulateAll(state, 2, budget, rng)
	require.NoError(t, err)
	require.Len(t, outcomes, 15)

	for setting, drawn := range outcomes {
		assert.Equal(t, budget.Shots(setting), len(drawn), "setting=%s", setting)
	}
}

func TestSimulateAll_RejectsBadBudget(t *testing.T) {
	state := []complex128{1, 0}
	_, err := SimulateAll(state, 1, ShotBudget{X: 0, Y: 1, Z: 1}, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)
}
