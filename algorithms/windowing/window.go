package windowing

import (
	"fmt"
)

// Window is the interface shared by all window functions.
type Window interface {
	// Apply windows the signal into a new slice; nil if sizes mismatch
	Apply(signal []float64) []float64
	// ApplyInPlace windows the signal in place
	ApplyInPlace(signal []float64) error
	// GetCoefficients returns a copy of the window coefficients
	GetCoefficients() []float64
	// GetSize returns the window size
	GetSize() int
	// GetType returns the window type name
	GetType() string
}

// Window type names accepted by New.
const (
	TypeRectangular = "rectangular"
	TypeHann        = "hann"
	TypeHamming     = "hamming"
	TypeBlackman    = "blackman"
)

// New creates a periodic window of the given type and size. Periodic
// (asymmetric) windows are the right choice for spectral analysis.
func New(windowType string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch windowType {
	case TypeRectangular, "":
		return NewRectangular(size), nil
	case TypeHann:
		return NewHann(size, false), nil
	case TypeHamming:
		return NewHamming(size, false), nil
	case TypeBlackman:
		return NewBlackman(size, false), nil
	default:
		return nil, fmt.Errorf("unknown window type: %q", windowType)
	}
}
