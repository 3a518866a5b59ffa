package quantum

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Bloch holds the (x, y, z) coordinates of a single-qubit state on or
// inside the unit sphere.
type Bloch struct {
	X float64
	Y float64
	Z float64
}

// DensityMatrix returns |psi><psi| for a pure state.
func DensityMatrix(state []complex128) *mat.CDense {
	dim := len(state)
	rho := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			rho.Set(i, j, state[i]*cmplx.Conj(state[j]))
		}
	}
	return rho
}

// PartialTrace reduces a full 2^n x 2^n density matrix to the 2x2 density
// matrix of the target qubit, summing over the matrix entries whose index
// decompositions agree on every other qubit.
//
// Qubit 0 is the most significant bit of the basis index (see package doc);
// target must be in [0, n).
func PartialTrace(rho *mat.CDense, target, n int) (*mat.CDense, error) {
	if target < 0 || target >= n {
		return nil, fmt.Errorf("target qubit %d out of range for %d qubits", target, n)
	}
	dim := Dim(n)
	r, c := rho.Dims()
	if r != dim || c != dim {
		return nil, &DimensionError{Expected: dim, Got: r, What: "density matrix"}
	}

	// Bit position of the target qubit within a basis index.
	shift := uint(n - 1 - target)
	low := (1 << shift) - 1

	reduced := mat.NewCDense(2, 2, nil)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			var sum complex128
			for rest := 0; rest < dim/2; rest++ {
				// Insert bit a (row) / b (column) at the target position.
				hi := (rest &^ low) << 1
				lo := rest & low
				i := hi | a<<shift | lo
				j := hi | b<<shift | lo
				sum += rho.At(i, j)
			}
			reduced.Set(a, b, sum)
		}
	}
	return reduced, nil
}

// BlochVector maps a 2x2 density matrix to its Bloch coordinates:
// x = 2 Re(rho01), y = 2 Im(rho10), z = Re(rho00 - rho11).
func BlochVector(rho *mat.CDense) Bloch {
	return Bloch{
		X: 2 * real(rho.At(0, 1)),
		Y: 2 * imag(rho.At(1, 0)),
		Z: real(rho.At(0, 0) - rho.At(1, 1)),
	}
}
