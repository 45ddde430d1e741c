package tonal

import (
	"math"
)

// PitchFrame is one pitch observation in a tracking session.
type PitchFrame struct {
	Frequency   float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
	TimestampMs float64 `json:"timestamp_ms"`
	RMS         float64 `json:"rms"`
}

// StabilityParams configures what counts as a held, settled note.
type StabilityParams struct {
	// ToleranceCents is how far any frame may deviate from the mean
	// frequency before the run counts as unstable.
	ToleranceCents float64 `json:"tolerance_cents"`
	// MinDurationMs is the minimum first-to-last span a run must cover.
	MinDurationMs float64 `json:"min_duration_ms"`
}

// DefaultStabilityParams returns thresholds suited to tuner-style feedback:
// a fifth of a semitone of wobble over at least a tenth of a second.
func DefaultStabilityParams() StabilityParams {
	return StabilityParams{
		ToleranceCents: 20.0,
		MinDurationMs:  100.0,
	}
}

// StabilityResult summarizes a run of pitch frames.
type StabilityResult struct {
	IsStable          bool    `json:"is_stable"`
	AverageFrequency  float64 `json:"average_frequency"`
	AverageConfidence float64 `json:"average_confidence"`
}

// StabilityChecker decides whether a run of pitch frames is a held note.
type StabilityChecker struct {
	params StabilityParams
}

// NewStabilityChecker creates a checker with default thresholds.
func NewStabilityChecker() *StabilityChecker {
	return NewStabilityCheckerWithParams(DefaultStabilityParams())
}

// NewStabilityCheckerWithParams creates a checker with custom thresholds.
func NewStabilityCheckerWithParams(params StabilityParams) *StabilityChecker {
	return &StabilityChecker{params: params}
}

// Check evaluates a run of frames. Fewer than 2 frames yield a zeroed
// result. The averages are filled in for any longer run, so callers can
// display them while the note settles; IsStable additionally requires the
// run to span MinDurationMs and every frame to sit within ToleranceCents
// of the mean frequency.
func (sc *StabilityChecker) Check(frames []PitchFrame) StabilityResult {
	if len(frames) < 2 {
		return StabilityResult{}
	}

	freqSum := 0.0
	confSum := 0.0
	for _, frame := range frames {
		freqSum += frame.Frequency
		confSum += frame.Confidence
	}
	n := float64(len(frames))
	mean := freqSum / n

	result := StabilityResult{
		AverageFrequency:  mean,
		AverageConfidence: confSum / n,
	}

	if mean <= 0 {
		return result
	}
	span := frames[len(frames)-1].TimestampMs - frames[0].TimestampMs
	if span < sc.params.MinDurationMs {
		return result
	}

	// Cents tolerance as a frequency ratio around the mean.
	ratio := math.Pow(2.0, sc.params.ToleranceCents/1200.0)
	lower := mean / ratio
	upper := mean * ratio
	for _, frame := range frames {
		if frame.Frequency < lower || frame.Frequency > upper {
			return result
		}
	}

	result.IsStable = true
	return result
}

// GetParameters returns the current thresholds.
func (sc *StabilityChecker) GetParameters() StabilityParams {
	return sc.params
}
