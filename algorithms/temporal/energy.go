package temporal

import (
	"math"
)

// Energy computes frame-based RMS energy, the raw level signal behind
// silence gating, onset detection and noise floor calibration.
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// ComputeShortTimeEnergy calculates RMS energy for overlapping frames
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * e.hopSize
		endIdx := startIdx + e.frameSize

		if endIdx > len(signal) {
			break
		}

		sumSquares := 0.0
		for j := startIdx; j < endIdx; j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}

// ComputeLogEnergy calculates log energy in dB scale
func (e *Energy) ComputeLogEnergy(signal []float64, floor float64) []float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	logEnergies := make([]float64, len(energies))

	for i, energy := range energies {
		if energy < floor {
			energy = floor
		}
		logEnergies[i] = 20.0 * math.Log10(energy)
	}

	return logEnergies
}

// FrameTime returns the start time of a frame in milliseconds
func (e *Energy) FrameTime(frameIdx int) float64 {
	if e.sampleRate <= 0 {
		return 0.0
	}
	return float64(frameIdx*e.hopSize) / float64(e.sampleRate) * 1000.0
}

// GetFrameSize returns the frame size in samples
func (e *Energy) GetFrameSize() int {
	return e.frameSize
}

// GetHopSize returns the hop size in samples
func (e *Energy) GetHopSize() int {
	return e.hopSize
}
