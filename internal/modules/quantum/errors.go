package quantum

import "fmt"

// DimensionError reports angle or state slices whose length does not match
// the qubit count.
type DimensionError struct {
	Expected int
	Got      int
	What     string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s has length %d, expected %d", e.What, e.Got, e.Expected)
}
