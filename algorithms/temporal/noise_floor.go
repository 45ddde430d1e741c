package temporal

import (
	"github.com/tonelab/pitchtrack/algorithms/common"
)

// NoiseFloorCalibration captures the ambient noise level of a capture
// environment, measured from audio recorded while the player is silent.
// The Threshold field is the RMS gate below which frames are treated as
// background noise rather than playing.
type NoiseFloorCalibration struct {
	RMSAverage float64 `json:"rms_average"`
	RMSPeak    float64 `json:"rms_peak"`
	Threshold  float64 `json:"threshold"`
}

// DefaultNoiseFloorCalibration returns a conservative calibration for use
// when no silence recording is available.
func DefaultNoiseFloorCalibration() NoiseFloorCalibration {
	return NoiseFloorCalibration{
		RMSAverage: 0.01,
		RMSPeak:    0.02,
		Threshold:  0.015,
	}
}

// IsSilent reports whether a frame at the given RMS level sits below the
// calibrated gate threshold.
func (c NoiseFloorCalibration) IsSilent(rms float64) bool {
	return rms < c.Threshold
}

const defaultNoiseMultiplier = 1.5

// NoiseFloorCalibrator derives a noise gate from silence recordings.
type NoiseFloorCalibrator struct {
	multiplier float64
}

// NewNoiseFloorCalibrator creates a calibrator with the default threshold
// multiplier of 1.5.
func NewNoiseFloorCalibrator() *NoiseFloorCalibrator {
	return &NoiseFloorCalibrator{multiplier: defaultNoiseMultiplier}
}

// NewNoiseFloorCalibratorWithMultiplier creates a calibrator with a custom
// threshold multiplier. Non-positive multipliers fall back to the default.
func NewNoiseFloorCalibratorWithMultiplier(multiplier float64) *NoiseFloorCalibrator {
	if multiplier <= 0 {
		multiplier = defaultNoiseMultiplier
	}
	return &NoiseFloorCalibrator{multiplier: multiplier}
}

// Calibrate measures the noise floor from buffers recorded during silence.
// Empty buffers are skipped. When no usable buffer remains the default
// calibration is returned, so the result is always safe to gate with.
func (nc *NoiseFloorCalibrator) Calibrate(silenceBuffers [][]float64) NoiseFloorCalibration {
	var rmsValues []float64
	for _, buffer := range silenceBuffers {
		if len(buffer) == 0 {
			continue
		}
		rmsValues = append(rmsValues, common.RMS(buffer))
	}
	return nc.fromRMSValues(rmsValues)
}

// CalibrateFromSignal slices one continuous silence recording into frames
// and calibrates from the per-frame RMS levels.
func (nc *NoiseFloorCalibrator) CalibrateFromSignal(signal []float64, frameSize, hopSize, sampleRate int) NoiseFloorCalibration {
	energy := NewEnergy(frameSize, hopSize, sampleRate)
	return nc.fromRMSValues(energy.ComputeShortTimeEnergy(signal))
}

func (nc *NoiseFloorCalibrator) fromRMSValues(rmsValues []float64) NoiseFloorCalibration {
	if len(rmsValues) == 0 {
		return DefaultNoiseFloorCalibration()
	}

	average := common.Mean(rmsValues)
	return NoiseFloorCalibration{
		RMSAverage: average,
		RMSPeak:    common.Max(rmsValues),
		Threshold:  average * nc.multiplier,
	}
}

// GetMultiplier returns the threshold multiplier.
func (nc *NoiseFloorCalibrator) GetMultiplier() float64 {
	return nc.multiplier
}
