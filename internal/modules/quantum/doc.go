// Package quantum implements the linear algebra underlying pure-state
// tomography: hyperspherical state parameterization, Pauli-product
// projectors and measurement probabilities, fidelity, density matrices,
// partial traces and Bloch vectors.
//
// Bit convention: qubit 0 is the MOST significant bit of a
// computational-basis index (big-endian). GenerateState orders its
// amplitudes this way and PartialTrace decomposes indices the same way;
// every function in this package assumes it.
package quantum
