package quantum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// BasisSetting assigns one Pauli symbol (I, X, Y or Z) to each qubit,
// e.g. "XZ" for a two-qubit joint measurement. Qubit 0 is the first symbol.
type BasisSetting string

// imagTolerance bounds the imaginary residue tolerated in <psi|P|psi>
// before a numerical-instability warning is logged. The expectation value
// of a projector on a normalized state is mathematically real.
const imagTolerance = 1e-9

var (
	pauliI = []complex128{1, 0, 0, 1}
	pauliX = []complex128{0, 1, 1, 0}
	pauliY = []complex128{0, -1i, 1i, 0}
	pauliZ = []complex128{1, 0, 0, -1}
)

// Validate checks that the setting uses only I/X/Y/Z symbols.
func (s BasisSetting) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty basis setting")
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'I', 'X', 'Y', 'Z':
		default:
			return fmt.Errorf("invalid Pauli symbol %q in basis setting %q", s[i], s)
		}
	}
	return nil
}

// IsIdentity reports whether every qubit measures the identity. The all-I
// setting carries no information and is excluded from tomography.
func (s BasisSetting) IsIdentity() bool {
	for i := 0; i < len(s); i++ {
		if s[i] != 'I' {
			return false
		}
	}
	return true
}

func pauliMatrix(sym byte) []complex128 {
	switch sym {
	case 'I':
		return pauliI
	case 'X':
		return pauliX
	case 'Y':
		return pauliY
	case 'Z':
		return pauliZ
	}
	return nil
}

// kron computes the Kronecker product of two complex matrices. gonum's mat
// package only ships a real-valued Kronecker, so the complex case is done
// by hand.
func kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					out.Set(i*br+k, j*bc+l, av*b.At(k, l))
				}
			}
		}
	}
	return out
}

// PauliProduct returns the tensor product of the single-qubit Pauli
// matrices named by the setting, a 2^n x 2^n operator.
func PauliProduct(setting BasisSetting) (*mat.CDense, error) {
	if err := setting.Validate(); err != nil {
		return nil, err
	}

	product := mat.NewCDense(1, 1, []complex128{1})
	for i := 0; i < len(setting); i++ {
		product = kron(product, mat.NewCDense(2, 2, pauliMatrix(setting[i])))
	}
	return product, nil
}

// ProjectorPlus returns (I + P)/2, the projector onto the +1 eigenspace of
// the joint observable P named by the setting.
func ProjectorPlus(setting BasisSetting) (*mat.CDense, error) {
	product, err := PauliProduct(setting)
	if err != nil {
		return nil, err
	}

	dim, _ := product.Dims()
	proj := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := product.At(i, j)
			if i == j {
				v += 1
			}
			proj.Set(i, j, v/2)
		}
	}
	return proj, nil
}

// ProbabilityPlus returns <psi|Proj|psi> for the +1 projector of the
// setting, clamped into [0,1]. An imaginary residue or an excursion outside
// [0,1] beyond tolerance is logged as a warning and clamped, never fatal:
// it stems from floating-point roundoff, not from an invalid state.
func ProbabilityPlus(state []complex128, setting BasisSetting) (float64, error) {
	proj, err := ProjectorPlus(setting)
	if err != nil {
		return 0, err
	}

	dim, _ := proj.Dims()
	if len(state) != dim {
		return 0, &DimensionError{Expected: dim, Got: len(state), What: "state"}
	}

	var expect complex128
	for i := 0; i < dim; i++ {
		var row complex128
		for j := 0; j < dim; j++ {
			row += proj.At(i, j) * state[j]
		}
		expect += cmplx.Conj(state[i]) * row
	}

	if math.Abs(imag(expect)) > imagTolerance {
		log.Warn().
			Float64("imag", imag(expect)).
			Str("setting", string(setting)).
			Msg("Projector expectation has non-negligible imaginary part")
	}

	p := real(expect)
	if p < -imagTolerance || p > 1+imagTolerance {
		log.Warn().
			Float64("probability", p).
			Str("setting", string(setting)).
			Msg("Probability outside [0,1], clamping")
	}
	return clamp01(p), nil
}

// ProbabilityMinus returns the complementary -1 outcome probability.
func ProbabilityMinus(state []complex128, setting BasisSetting) (float64, error) {
	p, err := ProbabilityPlus(state, setting)
	if err != nil {
		return 0, err
	}
	return 1 - p, nil
}
