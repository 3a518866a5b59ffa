package quantum

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDensityMatrix_UnitTrace(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 31))
	thetas, phis := randomAngles(2, rng)
	state, err := GenerateState(2, thetas, phis)
	require.NoError(t, err)

	rho := DensityMatrix(state)
	var trace complex128
	for i := 0; i < Dim(2); i++ {
		trace += rho.At(i, i)
	}
	assert.InDelta(t, 1.0, real(trace), tolerance)
	assert.InDelta(t, 0.0, imag(trace), tolerance)
}

func TestPartialTrace_ProductState(t *testing.T) {
	// |0> x |1>: amplitude 1 at index 01 (qubit 0 is the MSB).
	state := []complex128{0, 1, 0, 0}
	rho := DensityMatrix(state)

	// Tracing out qubit 1 leaves |0><0| on qubit 0.
	q0, err := PartialTrace(rho, 0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, real(q0.At(0, 0)), tolerance)
	assert.InDelta(t, 0.0, real(q0.At(1, 1)), tolerance)

	// Tracing out qubit 0 leaves |1><1| on qubit 1.
	q1, err := PartialTrace(rho, 1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, real(q1.At(0, 0)), tolerance)
	assert.InDelta(t, 1.0, real(q1.At(1, 1)), tolerance)
}

func TestPartialTrace_PreservesTrace(t *testing.T) {
	rng := rand.New(rand.NewPCG(41, 43))
	thetas, phis := randomAngles(3, rng)
	state, err := GenerateState(3, thetas, phis)
	require.NoError(t, err)

	rho := DensityMatrix(state)
	for target := 0; target < 3; target++ {
		reduced, err := PartialTrace(rho, target, 3)
		require.NoError(t, err)

		trace := reduced.At(0, 0) + reduced.At(1, 1)
		assert.InDelta(t, 1.0, real(trace), tolerance, "target=%d", target)

		// Hermiticity of the reduced matrix.
		assert.InDelta(t, real(reduced.At(0, 1)), real(reduced.At(1, 0)), tolerance)
		assert.InDelta(t, imag(reduced.At(0, 1)), -imag(reduced.At(1, 0)), tolerance)
	}
}

func TestPartialTrace_InvalidTarget(t *testing.T) {
	rho := DensityMatrix([]complex128{1, 0})
	_, err := PartialTrace(rho, 1, 1)
	assert.Error(t, err)
	_, err = PartialTrace(rho, -1, 1)
	assert.Error(t, err)
}

func TestBlochVector_CardinalStates(t *testing.T) {
	tests := []struct {
		name  string
		theta float64
		phi   float64
		want  Bloch
	}{
		{name: "|0> points +z", theta: 0, phi: 0, want: Bloch{Z: 1}},
		{name: "|1> points -z", theta: math.Pi, phi: 0, want: Bloch{Z: -1}},
		{name: "|+> points +x", theta: math.Pi / 2, phi: 0, want: Bloch{X: 1}},
		{name: "|+i> points +y", theta: math.Pi / 2, phi: math.Pi / 2, want: Bloch{Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := GenerateState(1, []float64{tt.theta}, []float64{tt.phi})
			require.NoError(t, err)

			v := BlochVector(DensityMatrix(state))
			assert.InDelta(t, tt.want.X, v.X, tolerance)
			assert.InDelta(t, tt.want.Y, v.Y, tolerance)
			assert.InDelta(t, tt.want.Z, v.Z, tolerance)
		})
	}
}

func TestBlochVector_NormBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(53, 59))
	thetas, phis := randomAngles(2, rng)
	state, err := GenerateState(2, thetas, phis)
	require.NoError(t, err)

	rho := DensityMatrix(state)
	for target := 0; target < 2; target++ {
		reduced, err := PartialTrace(rho, target, 2)
		require.NoError(t, err)

		v := BlochVector(reduced)
		norm := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
		assert.LessOrEqual(t, norm, 1.0+tolerance, "target=%d", target)
	}
}
