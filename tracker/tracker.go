// Package tracker wires the analysis chain into a stateful tracking
// session: pre-filtering, silence gating, onset detection, pitch
// estimation, octave correction, smoothing, and note matching, one audio
// frame at a time.
package tracker

import (
	"fmt"

	"github.com/tonelab/pitchtrack/algorithms/common"
	"github.com/tonelab/pitchtrack/algorithms/filters"
	"github.com/tonelab/pitchtrack/algorithms/notes"
	"github.com/tonelab/pitchtrack/algorithms/spectral"
	"github.com/tonelab/pitchtrack/algorithms/temporal"
	"github.com/tonelab/pitchtrack/algorithms/tonal"
	"github.com/tonelab/pitchtrack/logging"
	"github.com/tonelab/pitchtrack/tracker/config"
)

// FrameResult is the per-buffer output of a tracking session.
type FrameResult struct {
	TimestampMs float64 `json:"timestamp_ms"`
	RMS         float64 `json:"rms"`
	// IsSilent reports that the frame fell below the calibrated noise
	// floor and no pitch was attempted.
	IsSilent bool                 `json:"is_silent"`
	Onset    temporal.OnsetResult `json:"onset"`
	// Pitch is the raw estimator output, nil when the frame produced no
	// accepted pitch.
	Pitch *tonal.YINResult `json:"pitch,omitempty"`
	// Frequency is the octave-corrected detection for this frame.
	Frequency float64 `json:"frequency"`
	// SmoothedFrequency is the median-smoothed display frequency.
	SmoothedFrequency float64            `json:"smoothed_frequency"`
	Note              *notes.Note        `json:"note,omitempty"`
	Match             *notes.MatchResult `json:"match,omitempty"`
	// Stability describes the pitch run since the last onset.
	Stability tonal.StabilityResult `json:"stability"`
}

// Tracker is a single-stream tracking session. It owns the rolling pitch
// history and the calibration state; concurrent streams need one Tracker
// each.
type Tracker struct {
	cfg *config.TrackerConfig

	dc         *filters.DCRemoval
	bandpass   *filters.BandpassFilter
	spectrum   *spectral.SpectrumAnalyzer
	flux       *spectral.SpectralFlux
	flatness   *spectral.SpectralFlatness
	onset      *temporal.OnsetDetector
	calibrator *temporal.NoiseFloorCalibrator
	yin        *tonal.YINDetector
	smoother   *tonal.PitchSmoother
	stability  *tonal.StabilityChecker
	octave     *tonal.OctaveCorrector
	converter  *notes.Converter
	stream     *common.SlidingWindow

	calibration temporal.NoiseFloorCalibration
	target      string

	history         []tonal.PitchFrame
	freqScratch     []float64
	work            []float64
	spectrumScratch []float64
	normScratch     []float64
	prevSpectrum    []float64
	prevRMS         float64
	streamPos       int

	logger logging.Logger
}

// New creates a tracking session. A nil configuration uses the defaults.
func New(cfg *config.TrackerConfig) (*Tracker, error) {
	if cfg == nil {
		cfg = config.DefaultTrackerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker configuration: %w", err)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "pitch_tracker",
	})

	if !common.IsPowerOfTwo(cfg.WindowSize) {
		logger.Warn("Window size is not a power of two, spectrum computation will be slower", logging.Fields{
			"window_size": cfg.WindowSize,
		})
	}

	spectrum, err := spectral.NewSpectrumAnalyzerWithParams(spectral.SpectrumParams{
		SampleRate: cfg.SampleRate,
		Method:     cfg.SpectrumMethod,
		WindowType: cfg.WindowType,
	})
	if err != nil {
		return nil, err
	}

	var bandpass *filters.BandpassFilter
	if cfg.EnableBandpass {
		bandpass, err = filters.NewBandpassFilterFromEdges(
			cfg.SampleRate, cfg.Range.HighPassHz, cfg.Range.LowPassHz)
		if err != nil {
			return nil, fmt.Errorf("bandpass pre-filter: %w", err)
		}
	}

	converter := notes.NewConverterWithReference(cfg.ReferenceA4)

	t := &Tracker{
		cfg:         cfg,
		dc:          filters.NewDCRemoval(),
		bandpass:    bandpass,
		spectrum:    spectrum,
		flux:        spectral.NewSpectralFlux(),
		flatness:    spectral.NewSpectralFlatness(),
		onset:       temporal.NewOnsetDetectorWithParams(cfg.Onset),
		calibrator:  temporal.NewNoiseFloorCalibratorWithMultiplier(cfg.NoiseMultiplier),
		calibration: temporal.DefaultNoiseFloorCalibration(),
		yin: tonal.NewYINDetectorWithParams(tonal.YINParams{
			SampleRate: cfg.SampleRate,
			MinFreq:    cfg.Range.LowHz,
			MaxFreq:    cfg.Range.HighHz,
			Threshold:  cfg.YINThreshold,
		}),
		smoother:        tonal.NewPitchSmoother(cfg.SmoothingWindow),
		stability:       tonal.NewStabilityCheckerWithParams(cfg.Stability),
		octave:          tonal.NewOctaveCorrectorWithConverter(converter),
		converter:       converter,
		stream:          common.NewSlidingWindow(cfg.WindowSize, cfg.HopSize),
		history:         make([]tonal.PitchFrame, 0, cfg.HistorySize),
		freqScratch:     make([]float64, 0, cfg.HistorySize),
		work:            make([]float64, cfg.WindowSize),
		spectrumScratch: make([]float64, cfg.WindowSize/2),
		normScratch:     make([]float64, cfg.WindowSize/2),
		prevSpectrum:    make([]float64, 0, cfg.WindowSize/2),
		logger:          logger,
	}

	logger.Debug("Tracker initialized", logging.Fields{
		"sample_rate": cfg.SampleRate,
		"window_size": cfg.WindowSize,
		"hop_size":    cfg.HopSize,
		"range":       cfg.Range.Name,
	})

	return t, nil
}

// Process analyzes one audio buffer. The buffer is not modified; the
// timestamp is the caller's clock in milliseconds. Buffers arriving from a
// live stream are treated as contiguous, so the pre-filter state carries
// across calls.
func (t *Tracker) Process(buffer []float64, timestampMs float64) (*FrameResult, error) {
	if len(buffer) < 2 {
		return nil, fmt.Errorf("audio buffer too short: %d samples", len(buffer))
	}

	work := t.workBuffer(len(buffer))
	copy(work, buffer)
	if t.cfg.EnableDCRemoval {
		t.dc.ProcessInPlace(work)
	}
	if t.bandpass != nil {
		t.bandpass.ProcessInPlace(work)
	}

	return t.processFiltered(work, timestampMs)
}

// ProcessStream frames a recording with the configured window and hop and
// processes every complete window. Timestamps are derived from the sample
// position; a stream can be fed across multiple calls.
func (t *Tracker) ProcessStream(samples []float64) ([]FrameResult, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty audio stream")
	}

	logger := t.logger.WithFields(logging.Fields{
		"function": "ProcessStream",
		"samples":  len(samples),
	})

	// Filter the whole stream once, then frame it. Filtering the
	// overlapping windows individually would process every sample
	// window/hop times through stateful filters.
	filtered := make([]float64, len(samples))
	copy(filtered, samples)
	if t.cfg.EnableDCRemoval {
		t.dc.ProcessInPlace(filtered)
	}
	if t.bandpass != nil {
		t.bandpass.ProcessInPlace(filtered)
	}

	windows := t.stream.AddSamples(filtered)
	results := make([]FrameResult, 0, len(windows))
	msPerSample := 1000.0 / float64(t.cfg.SampleRate)
	for _, window := range windows {
		result, err := t.processFiltered(window, float64(t.streamPos)*msPerSample)
		if err != nil {
			return nil, err
		}
		t.streamPos += t.cfg.HopSize
		results = append(results, *result)
	}

	logger.Debug("Stream processed", logging.Fields{
		"frames": len(results),
	})

	return results, nil
}

// processFiltered runs the analysis chain on one pre-filtered window.
func (t *Tracker) processFiltered(window []float64, timestampMs float64) (*FrameResult, error) {
	result := &FrameResult{TimestampMs: timestampMs}

	rms := common.RMS(window)
	result.RMS = rms
	result.IsSilent = t.calibration.IsSilent(rms)

	mags := t.spectrumBuffer(len(window) / 2)
	if err := t.spectrum.ComputeInto(window, mags); err != nil {
		return nil, err
	}

	// Flux on raw magnitudes would scale with window length and level, so
	// the threshold would not be portable. Normalize to per-sample
	// amplitude; the raw spectrum stays available for octave corroboration.
	norm := 2.0 / float64(len(window))
	cur := t.normBuffer(len(mags))
	for i, magnitude := range mags {
		cur[i] = magnitude * norm
	}
	flux := t.flux.Compute(cur, t.prevSpectrum)

	onset := t.onset.Detect(rms, t.prevRMS, flux)
	if onset.IsOnset {
		// A new note is judged fresh: stale pitch history must not
		// smooth or destabilize it.
		t.history = t.history[:0]
		t.smoother.Reset()
		t.logger.WithFields(logging.Fields{
			"function":     "processFiltered",
			"timestamp_ms": timestampMs,
			"rms":          rms,
			"flux":         flux,
		}).Debug("Onset detected, pitch history cleared")
	}

	t.prevRMS = rms
	t.prevSpectrum = append(t.prevSpectrum[:0], cur...)

	voiced := !result.IsSilent
	if voiced && t.cfg.EnableFlatnessGate {
		flatness := t.flatness.Compute(mags)
		voiced = t.flatness.IsContentTonal(flatness, t.cfg.FlatnessThreshold)
	}

	if voiced {
		raw, err := t.yin.Detect(window)
		if err != nil {
			return nil, err
		}
		if raw != nil && raw.Confidence >= t.cfg.MinConfidence {
			result.Pitch = raw

			corrected := t.octave.CorrectByHistory(raw.Frequency, t.historyFrequencies())
			if t.target != "" {
				corrected = t.octave.CorrectWithSpectrum(corrected, t.target, mags, t.cfg.SampleRate)
			}
			result.Frequency = corrected

			t.appendFrame(tonal.PitchFrame{
				Frequency:   corrected,
				Confidence:  raw.Confidence,
				TimestampMs: timestampMs,
				RMS:         rms,
			})

			smoothed := t.smoother.Push(corrected)
			result.SmoothedFrequency = smoothed
			result.Stability = t.stability.Check(t.history)

			if note, err := t.converter.FrequencyToNote(smoothed); err == nil {
				result.Note = &note
			}
			if t.target != "" {
				match := t.converter.MatchesExpectedNote(smoothed, t.target, t.cfg.MatchToleranceCents)
				result.Match = &match
			}
		}
	}

	onset.IsStable = result.Stability.IsStable
	result.Onset = onset

	return result, nil
}

// Calibrate measures the noise floor from buffers captured while the
// player is silent, installs it, and returns it.
func (t *Tracker) Calibrate(silenceBuffers [][]float64) temporal.NoiseFloorCalibration {
	t.calibration = t.calibrator.Calibrate(silenceBuffers)
	t.logger.WithFields(logging.Fields{
		"function":    "Calibrate",
		"rms_average": t.calibration.RMSAverage,
		"rms_peak":    t.calibration.RMSPeak,
		"threshold":   t.calibration.Threshold,
	}).Debug("Noise floor calibrated")
	return t.calibration
}

// SetCalibration installs a previously measured noise floor.
func (t *Tracker) SetCalibration(cal temporal.NoiseFloorCalibration) {
	t.calibration = cal
}

// GetCalibration returns the active noise floor calibration.
func (t *Tracker) GetCalibration() temporal.NoiseFloorCalibration {
	return t.calibration
}

// SetTarget sets the note the player is aiming for. Octave-less names like
// "A" match any octave.
func (t *Tracker) SetTarget(note string) error {
	if _, err := notes.ParseNote(note); err != nil {
		return fmt.Errorf("invalid target note: %w", err)
	}
	t.target = note
	return nil
}

// ClearTarget removes the expected note; matching and target-guided octave
// correction stop until a new target is set.
func (t *Tracker) ClearTarget() {
	t.target = ""
}

// Target returns the current expected note, empty when none is set.
func (t *Tracker) Target() string {
	return t.target
}

// History returns a copy of the rolling pitch history for the current
// note run.
func (t *Tracker) History() []tonal.PitchFrame {
	out := make([]tonal.PitchFrame, len(t.history))
	copy(out, t.history)
	return out
}

// Reset clears all rolling state: pitch history, smoothing, filter state,
// stream framing, and onset context. Calibration and the target note
// survive a reset.
func (t *Tracker) Reset() {
	t.dc.Reset()
	if t.bandpass != nil {
		t.bandpass.Reset()
	}
	t.smoother.Reset()
	t.stream.Reset()
	t.history = t.history[:0]
	t.prevSpectrum = t.prevSpectrum[:0]
	t.prevRMS = 0
	t.streamPos = 0
}

func (t *Tracker) appendFrame(frame tonal.PitchFrame) {
	if len(t.history) == cap(t.history) {
		copy(t.history, t.history[1:])
		t.history[len(t.history)-1] = frame
		return
	}
	t.history = append(t.history, frame)
}

func (t *Tracker) historyFrequencies() []float64 {
	vf := t.freqScratch[:0]
	for _, frame := range t.history {
		vf = append(vf, frame.Frequency)
	}
	return vf
}

func (t *Tracker) workBuffer(n int) []float64 {
	if cap(t.work) < n {
		t.work = make([]float64, n)
	}
	return t.work[:n]
}

func (t *Tracker) spectrumBuffer(n int) []float64 {
	if cap(t.spectrumScratch) < n {
		t.spectrumScratch = make([]float64, n)
	}
	return t.spectrumScratch[:n]
}

func (t *Tracker) normBuffer(n int) []float64 {
	if cap(t.normScratch) < n {
		t.normScratch = make([]float64, n)
	}
	return t.normScratch[:n]
}
