package temporal

import (
	"github.com/tonelab/pitchtrack/algorithms/common"
)

// OnsetParams configures note onset detection.
type OnsetParams struct {
	// RatioThreshold is the energy growth ratio that marks an onset when
	// the previous frame is above the silence floor.
	RatioThreshold float64 `json:"ratio_threshold"`
	// SilenceRMS is the RMS level below which a frame counts as silence.
	SilenceRMS float64 `json:"silence_rms"`
	// MinOnsetRMS is the minimum RMS a frame must reach to register an
	// onset out of silence.
	MinOnsetRMS float64 `json:"min_onset_rms"`
	// FluxThreshold is the spectral flux level above which a frame marks
	// an onset regardless of the energy ratio.
	FluxThreshold float64 `json:"flux_threshold"`
}

// DefaultOnsetParams returns onset parameters tuned for tracking single
// notes from an instrument or voice.
func DefaultOnsetParams() OnsetParams {
	return OnsetParams{
		RatioThreshold: 2.0,
		SilenceRMS:     0.001,
		MinOnsetRMS:    0.01,
		FluxThreshold:  0.3,
	}
}

// OnsetResult describes the onset decision for a single frame.
type OnsetResult struct {
	IsOnset      bool    `json:"is_onset"`
	Energy       float64 `json:"energy"`
	SpectralFlux float64 `json:"spectral_flux"`
	IsStable     bool    `json:"is_stable"`
}

// OnsetDetector detects note onsets from frame energy and spectral flux.
//
// References:
//   - Bello et al. (2005). "A Tutorial on Onset Detection in Music Signals"
//   - Dixon (2006). "Onset Detection Revisited", DAFx
type OnsetDetector struct {
	params OnsetParams
}

// NewOnsetDetector creates an onset detector with default parameters.
func NewOnsetDetector() *OnsetDetector {
	return NewOnsetDetectorWithParams(DefaultOnsetParams())
}

// NewOnsetDetectorWithParams creates an onset detector with custom parameters.
func NewOnsetDetectorWithParams(params OnsetParams) *OnsetDetector {
	return &OnsetDetector{params: params}
}

// DetectEnergyOnset reports whether the jump from previousRMS to currentRMS
// marks a note onset. Coming out of silence the current frame only needs to
// clear MinOnsetRMS; otherwise the energy must grow by RatioThreshold.
func (od *OnsetDetector) DetectEnergyOnset(currentRMS, previousRMS float64) bool {
	if previousRMS < od.params.SilenceRMS {
		return currentRMS > od.params.MinOnsetRMS
	}
	return currentRMS/previousRMS > od.params.RatioThreshold
}

// Detect combines the energy and spectral flux criteria into a single
// per-frame decision. IsStable is left false; callers that track pitch
// history over time fill it in afterwards.
func (od *OnsetDetector) Detect(currentRMS, previousRMS, flux float64) OnsetResult {
	return OnsetResult{
		IsOnset:      od.DetectEnergyOnset(currentRMS, previousRMS) || flux > od.params.FluxThreshold,
		Energy:       currentRMS,
		SpectralFlux: flux,
	}
}

// FindOnsets locates onset positions in a precomputed flux or energy
// difference series. Peaks must be local maxima at or above threshold,
// separated by at least minInterval seconds. A threshold <= 0 selects an
// adaptive threshold derived from the series itself. Returned positions
// are sample indices.
func (od *OnsetDetector) FindOnsets(flux []float64, threshold float64, minInterval float64, hopSize, sampleRate int) []int {
	if len(flux) < 3 || hopSize <= 0 || sampleRate <= 0 {
		return []int{}
	}

	if threshold <= 0 {
		threshold = od.AdaptiveThreshold(flux)
	}

	minIntervalFrames := int(minInterval * float64(sampleRate) / float64(hopSize))

	var peaks []int
	lastPeakFrame := -minIntervalFrames // allow a peak at the start

	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > flux[i-1] &&
			flux[i] > flux[i+1] &&
			flux[i] >= threshold &&
			i-lastPeakFrame >= minIntervalFrames {
			peaks = append(peaks, i)
			lastPeakFrame = i
		}
	}

	onsetSamples := make([]int, len(peaks))
	for i, frameIdx := range peaks {
		onsetSamples[i] = frameIdx * hopSize
	}

	return onsetSamples
}

// AdaptiveThreshold calculates an onset threshold from flux statistics:
// mean + 2 standard deviations.
func (od *OnsetDetector) AdaptiveThreshold(flux []float64) float64 {
	if len(flux) == 0 {
		return 0.0
	}
	return common.Mean(flux) + 2.0*common.StandardDeviation(flux)
}

// GetParameters returns the current onset parameters.
func (od *OnsetDetector) GetParameters() OnsetParams {
	return od.params
}
