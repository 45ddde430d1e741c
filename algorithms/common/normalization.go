package common

import (
	"math"
)

// NormalizationType defines normalization method
type NormalizationType int

const (
	NormNone NormalizationType = iota
	NormPeak
	NormRMS
)

// Normalizer rescales decoded audio before analysis
type Normalizer struct {
	method NormalizationType
	target float64
}

// NewNormalizer creates a normalizer with the given method and target level.
// For NormPeak the target is the absolute peak (0.95 is typical headroom);
// for NormRMS it is the desired RMS level.
func NewNormalizer(method NormalizationType, target float64) *Normalizer {
	if target <= 0 {
		target = 1.0
	}
	return &Normalizer{
		method: method,
		target: target,
	}
}

// Normalize rescales the signal in place and returns it. Silent or empty
// signals come back unchanged.
func (n *Normalizer) Normalize(signal []float64) []float64 {
	if len(signal) == 0 || n.method == NormNone {
		return signal
	}

	var level float64
	switch n.method {
	case NormPeak:
		for _, val := range signal {
			if abs := math.Abs(val); abs > level {
				level = abs
			}
		}
	case NormRMS:
		level = RMS(signal)
	}

	if level < 1e-10 {
		return signal
	}

	gain := n.target / level
	for i := range signal {
		signal[i] *= gain
	}
	return signal
}
