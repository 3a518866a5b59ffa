package quantum

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasisSetting_Validate(t *testing.T) {
	assert.NoError(t, BasisSetting("XYZ").Validate())
	assert.NoError(t, BasisSetting("I").Validate())
	assert.Error(t, BasisSetting("").Validate())
	assert.Error(t, BasisSetting("XA").Validate())
}

func TestBasisSetting_IsIdentity(t *testing.T) {
	assert.True(t, BasisSetting("II").IsIdentity())
	assert.False(t, BasisSetting("IZ").IsIdentity())
}

func TestProjectorPlus_SingleQubitZ(t *testing.T) {
	proj, err := ProjectorPlus("Z")
	require.NoError(t, err)

	// (I + Z)/2 = |0><0|
	assert.InDelta(t, 1.0, real(proj.At(0, 0)), tolerance)
	assert.InDelta(t, 0.0, real(proj.At(1, 1)), tolerance)
	assert.InDelta(t, 0.0, real(proj.At(0, 1)), tolerance)
}

func TestProjectorPlus_IsIdempotent(t *testing.T) {
	proj, err := ProjectorPlus("XY")
	require.NoError(t, err)

	dim, _ := proj.Dims()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sq complex128
			for k := 0; k < dim; k++ {
				sq += proj.At(i, k) * proj.At(k, j)
			}
			assert.InDelta(t, real(proj.At(i, j)), real(sq), tolerance)
			assert.InDelta(t, imag(proj.At(i, j)), imag(sq), tolerance)
		}
	}
}

func TestProbabilityPlus_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		theta   float64
		phi     float64
		setting BasisSetting
		want    float64
	}{
		{name: "|0> measured in Z", theta: 0, phi: 0, setting: "Z", want: 1.0},
		{name: "|1> measured in Z", theta: math.Pi, phi: 0, setting: "Z", want: 0.0},
		{name: "|+> measured in X", theta: math.Pi / 2, phi: 0, setting: "X", want: 1.0},
		{name: "|+> measured in Z", theta: math.Pi / 2, phi: 0, setting: "Z", want: 0.5},
		{name: "|0> measured in X", theta: 0, phi: 0, setting: "X", want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := GenerateState(1, []float64{tt.theta}, []float64{tt.phi})
			require.NoError(t, err)

			p, err := ProbabilityPlus(state, tt.setting)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p, 1e-6)
		})
	}
}

func TestProbabilityPlus_InRangeAndComplementary(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 29))

	for n := 1; n <= 3; n++ {
		thetas, phis := randomAngles(n, rng)
		state, err := GenerateState(n, thetas, phis)
		require.NoError(t, err)

		settings := []BasisSetting{"Z", "XZ", "YXZ"}
		setting := settings[n-1]

		plus, err := ProbabilityPlus(state, setting)
		require.NoError(t, err)
		minus, err := ProbabilityMinus(state, setting)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, plus, 0.0)
		assert.LessOrEqual(t, plus, 1.0)
		assert.InDelta(t, 1.0, plus+minus, tolerance)
	}
}

func TestProbabilityPlus_StateDimensionMismatch(t *testing.T) {
	state := []complex128{1, 0} // single qubit
	_, err := ProbabilityPlus(state, "XZ")
	require.Error(t, err)

	var dimErr *DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestPauliProduct_BellCorrelation(t *testing.T) {
	// ZZ expectation on |00> is +1: both projector outcomes agree.
	state, err := GenerateState(2, []float64{0, 0, 0}, []float64{0, 0, 0})
	require.NoError(t, err)

	p, err := ProbabilityPlus(state, "ZZ")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, tolerance)
}
