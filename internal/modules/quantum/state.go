package quantum

import (
	"math"
	"math/cmplx"
)

// Dim returns the Hilbert-space dimension 2^n for n qubits.
func Dim(n int) int {
	return 1 << n
}

// NumAngles returns the number of theta (and phi) angles that parameterize
// an n-qubit pure state: 2^n - 1.
func NumAngles(n int) int {
	return (1 << n) - 1
}

// GenerateState maps hyperspherical angles to a normalized state vector.
//
// Amplitudes are built by sequential peeling: starting from residual
// magnitude 1, amplitude i takes residual*cos(theta_i/2) (with phase
// exp(i*phi_{i-1}) for every amplitude after the first) and the residual
// shrinks by sin(theta_i/2). The last amplitude absorbs the remaining
// residual with phase phi_{last}, so the result has unit norm by
// construction and callers never need to renormalize.
func GenerateState(n int, thetas, phis []float64) ([]complex128, error) {
	want := NumAngles(n)
	if len(thetas) != want {
		return nil, &DimensionError{Expected: want, Got: len(thetas), What: "thetas"}
	}
	if len(phis) != want {
		return nil, &DimensionError{Expected: want, Got: len(phis), What: "phis"}
	}

	dim := Dim(n)
	state := make([]complex128, dim)

	residual := 1.0
	for i := 0; i < dim-1; i++ {
		amp := complex(residual*math.Cos(thetas[i]/2), 0)
		if i > 0 {
			amp *= cmplx.Exp(complex(0, phis[i-1]))
		}
		state[i] = amp
		residual *= math.Sin(thetas[i] / 2)
	}
	state[dim-1] = complex(residual, 0) * cmplx.Exp(complex(0, phis[dim-2]))

	return state, nil
}

// Fidelity returns |<a|b>|^2, the squared overlap between two pure states.
// Symmetric in its arguments; 1 iff equal up to global phase, 0 iff
// orthogonal. The result is clamped into [0,1] against roundoff.
func Fidelity(a, b []complex128) float64 {
	var overlap complex128
	for i := range a {
		overlap += cmplx.Conj(a[i]) * b[i]
	}
	f := real(overlap)*real(overlap) + imag(overlap)*imag(overlap)
	return clamp01(f)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
