package tonal

import (
	"github.com/tonelab/pitchtrack/algorithms/common"
)

const (
	// DefaultSmoothingWindowSize is the median window for display smoothing.
	DefaultSmoothingWindowSize = 5

	defaultSmoothingAlpha = 0.3
)

// PitchSmoother suppresses single-frame jitter in pitch estimates with a
// short median window. One wild frame in five leaves the median untouched,
// where an average would drag the display toward it.
type PitchSmoother struct {
	windowSize int
	history    *common.CircularBuffer
	scratch    []float64
	push       [1]float64
}

// NewPitchSmoother creates a smoother with the given median window size.
// Non-positive sizes fall back to the default of 5.
func NewPitchSmoother(windowSize int) *PitchSmoother {
	if windowSize <= 0 {
		windowSize = DefaultSmoothingWindowSize
	}
	return &PitchSmoother{
		windowSize: windowSize,
		history:    common.NewCircularBuffer(windowSize),
		scratch:    make([]float64, windowSize),
	}
}

// Smooth returns the median of the last windowSize values, or of the whole
// slice when it is shorter. Empty input returns 0.
func (ps *PitchSmoother) Smooth(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	start := max(len(values)-ps.windowSize, 0)
	return common.Median(values[start:])
}

// Push adds one value to the rolling history and returns the median of the
// history. The oldest value falls out once the window is full.
func (ps *PitchSmoother) Push(value float64) float64 {
	ps.push[0] = value
	ps.history.Write(ps.push[:])

	n := ps.history.Peek(ps.scratch)
	return common.Median(ps.scratch[:n])
}

// SmoothExponential blends the current value with the previous smoothed
// value (alpha 0.3), the cheap continuous variant for display interpolation.
func (ps *PitchSmoother) SmoothExponential(current, previous float64) float64 {
	return defaultSmoothingAlpha*current + (1.0-defaultSmoothingAlpha)*previous
}

// Reset clears the rolling history.
func (ps *PitchSmoother) Reset() {
	ps.history.Clear()
}

// GetWindowSize returns the median window size.
func (ps *PitchSmoother) GetWindowSize() int {
	return ps.windowSize
}
