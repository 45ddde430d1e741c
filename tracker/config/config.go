// Package config carries the session configuration for the pitch tracker:
// analysis framing, gating thresholds, rolling-state bounds, and the
// instrument range registry.
package config

import (
	"fmt"

	"github.com/tonelab/pitchtrack/algorithms/temporal"
	"github.com/tonelab/pitchtrack/algorithms/tonal"
)

// TrackerConfig configures one tracking session.
type TrackerConfig struct {
	// Analysis framing
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Spectrum
	SpectrumMethod string `json:"spectrum_method"` // "fft", "direct"
	WindowType     string `json:"window_type"`     // "rectangular", "hann", "hamming", "blackman"

	// Pre-filtering
	EnableDCRemoval bool `json:"enable_dc_removal"`
	EnableBandpass  bool `json:"enable_bandpass"`

	// Gates
	EnableFlatnessGate bool    `json:"enable_flatness_gate"`
	FlatnessThreshold  float64 `json:"flatness_threshold"`
	MinConfidence      float64 `json:"min_confidence"`

	// Pitch search
	Range        InstrumentRange `json:"range"`
	YINThreshold float64         `json:"yin_threshold"`
	ReferenceA4  float64         `json:"reference_a4"`

	// Matching
	MatchToleranceCents float64 `json:"match_tolerance_cents"`

	// Rolling state
	HistorySize     int                   `json:"history_size"`
	SmoothingWindow int                   `json:"smoothing_window"`
	Onset           temporal.OnsetParams  `json:"onset"`
	Stability       tonal.StabilityParams `json:"stability"`

	// Calibration
	NoiseMultiplier float64 `json:"noise_multiplier"`
}

// DefaultTrackerConfig returns a configuration suited to general pitched
// material at 44.1 kHz. The range matches the default pitch search bounds;
// pick an instrument with ConfigForInstrument to narrow it.
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		SampleRate:         44100,
		WindowSize:         2048,
		HopSize:            512,
		SpectrumMethod:     "fft",
		WindowType:         "hann",
		EnableDCRemoval:    true,
		EnableBandpass:     false,
		EnableFlatnessGate: true,
		FlatnessThreshold:  0.6,
		MinConfidence:      0.5,
		Range: InstrumentRange{
			Name:       "default",
			LowHz:      80.0,
			HighHz:     1000.0,
			HighPassHz: 40.0,
			LowPassHz:  5000.0,
		},
		YINThreshold:        0.15,
		ReferenceA4:         440.0,
		MatchToleranceCents: 50.0,
		HistorySize:         64,
		SmoothingWindow:     5,
		Onset:               temporal.DefaultOnsetParams(),
		Stability:           tonal.DefaultStabilityParams(),
		NoiseMultiplier:     1.5,
	}
}

// ConfigForInstrument returns the default configuration with the
// instrument's registered range installed and the bandpass pre-filter
// enabled. Low-pitched instruments get a longer analysis window so their
// fundamentals fit the lag search.
func ConfigForInstrument(inst Instrument) (*TrackerConfig, error) {
	r, err := RangeFor(inst)
	if err != nil {
		return nil, err
	}

	cfg := DefaultTrackerConfig()
	cfg.Range = r
	cfg.EnableBandpass = true

	switch inst {
	case InstrumentBass, InstrumentKeyboard:
		cfg.WindowSize = 4096
		cfg.HopSize = 1024

	case InstrumentVoice:
		// Vibrato is musical, not instability.
		cfg.Stability.ToleranceCents = 30.0
	}

	return cfg, nil
}

// Validate rejects configurations the session cannot run with.
func (c *TrackerConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return fmt.Errorf("hop size must be in (0, window size], got %d", c.HopSize)
	}
	if c.HistorySize < 2 {
		return fmt.Errorf("history size must be at least 2, got %d", c.HistorySize)
	}
	if c.SmoothingWindow <= 0 {
		return fmt.Errorf("smoothing window must be positive, got %d", c.SmoothingWindow)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0, 1], got %g", c.MinConfidence)
	}
	if c.EnableFlatnessGate && (c.FlatnessThreshold <= 0 || c.FlatnessThreshold > 1) {
		return fmt.Errorf("flatness threshold must be in (0, 1], got %g", c.FlatnessThreshold)
	}
	if c.YINThreshold <= 0 || c.YINThreshold >= 1 {
		return fmt.Errorf("yin threshold must be in (0, 1), got %g", c.YINThreshold)
	}
	if c.ReferenceA4 <= 0 {
		return fmt.Errorf("reference a4 must be positive, got %g", c.ReferenceA4)
	}
	if c.MatchToleranceCents <= 0 {
		return fmt.Errorf("match tolerance must be positive, got %g", c.MatchToleranceCents)
	}
	if c.Range.LowHz <= 0 || c.Range.HighHz <= c.Range.LowHz {
		return fmt.Errorf("range %q must satisfy 0 < low < high, got [%g, %g] hz",
			c.Range.Name, c.Range.LowHz, c.Range.HighHz)
	}
	if c.EnableBandpass &&
		(c.Range.HighPassHz <= 0 || c.Range.LowPassHz <= c.Range.HighPassHz) {
		return fmt.Errorf("range %q pass-band must satisfy 0 < high-pass < low-pass, got [%g, %g] hz",
			c.Range.Name, c.Range.HighPassHz, c.Range.LowPassHz)
	}
	if c.NoiseMultiplier <= 0 {
		return fmt.Errorf("noise multiplier must be positive, got %g", c.NoiseMultiplier)
	}

	minLag := int(float64(c.SampleRate) / c.Range.HighHz)
	if minLag < 2 {
		minLag = 2
	}
	if c.WindowSize/2 <= minLag {
		return fmt.Errorf("window size %d cannot resolve [%g, %g] hz at %d hz sample rate",
			c.WindowSize, c.Range.LowHz, c.Range.HighHz, c.SampleRate)
	}
	return nil
}
