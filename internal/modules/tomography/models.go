package tomography

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/qtomo/internal/modules/measurement"
)

// QubitConfig is the immutable configuration of one tomography run.
type QubitConfig struct {
	NQubits int                    `json:"n_qubits" msgpack:"n_qubits"`
	Shots   measurement.ShotBudget `json:"shots" msgpack:"shots"`
}

// Validate checks qubit count and shot budget before any simulation work.
func (c QubitConfig) Validate() error {
	if c.NQubits < 1 {
		return fmt.Errorf("n_qubits must be at least 1, got %d", c.NQubits)
	}
	return c.Shots.Validate()
}

// ParameterVector pairs the theta and phi angle sequences of the
// hyperspherical parameterization.
type ParameterVector struct {
	Thetas []float64 `json:"thetas" msgpack:"thetas"`
	Phis   []float64 `json:"phis" msgpack:"phis"`
}

// Amplitude is a wire-friendly complex number.
type Amplitude struct {
	Re float64 `json:"re" msgpack:"re"`
	Im float64 `json:"im" msgpack:"im"`
}

// BlochVector holds single-qubit Bloch coordinates.
type BlochVector struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// QubitState reports one qubit's reduced density matrix and Bloch vector,
// consumed by the external Bloch-sphere rendering.
type QubitState struct {
	Qubit int             `json:"qubit" msgpack:"qubit"`
	Rho   [2][2]Amplitude `json:"rho" msgpack:"rho"`
	Bloch BlochVector     `json:"bloch" msgpack:"bloch"`
}

// Result is the structured outcome of a full tomography run.
type Result struct {
	RunID               string          `json:"run_id" msgpack:"run_id"`
	Source              string          `json:"source" msgpack:"source"`
	CreatedAt           time.Time       `json:"created_at" msgpack:"created_at"`
	Config              QubitConfig     `json:"config" msgpack:"config"`
	Seed                uint64          `json:"seed" msgpack:"seed"`
	Restarts            int             `json:"restarts" msgpack:"restarts"`
	TrueParams          ParameterVector `json:"true_params" msgpack:"true_params"`
	EstimatedParams     ParameterVector `json:"estimated_params" msgpack:"estimated_params"`
	TrueState           []Amplitude     `json:"true_state" msgpack:"true_state"`
	ReconstructedState  []Amplitude     `json:"reconstructed_state" msgpack:"reconstructed_state"`
	Fidelity            float64         `json:"fidelity" msgpack:"fidelity"`
	TrueQubits          []QubitState    `json:"true_qubits" msgpack:"true_qubits"`
	ReconstructedQubits []QubitState    `json:"reconstructed_qubits" msgpack:"reconstructed_qubits"`
	DurationMs          int64           `json:"duration_ms" msgpack:"duration_ms"`
}

// RunSummary is a listing row for stored runs.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	NQubits   int       `json:"n_qubits"`
	Restarts  int       `json:"restarts"`
	Fidelity  float64   `json:"fidelity"`
}

// Defaults carries server-level fallbacks applied to incoming run requests.
type Defaults struct {
	ShotsX    int
	ShotsY    int
	ShotsZ    int
	Restarts  int
	MaxQubits int
}

func toAmplitudes(state []complex128) []Amplitude {
	amps := make([]Amplitude, len(state))
	for i, v := range state {
		amps[i] = Amplitude{Re: real(v), Im: imag(v)}
	}
	return amps
}

func toRho(m *mat.CDense) [2][2]Amplitude {
	var rho [2][2]Amplitude
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := m.At(i, j)
			rho[i][j] = Amplitude{Re: real(v), Im: imag(v)}
		}
	}
	return rho
}
