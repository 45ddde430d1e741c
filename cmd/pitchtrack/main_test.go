package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/tonelab/pitchtrack/algorithms/notes"
	"github.com/tonelab/pitchtrack/algorithms/tonal"
	"github.com/tonelab/pitchtrack/internal/testutil"
	"github.com/tonelab/pitchtrack/tracker"
)

func stableFrame(t *testing.T, converter *notes.Converter, timestampMs, frequency float64) tracker.FrameResult {
	t.Helper()
	note, err := converter.FrequencyToNote(frequency)
	if err != nil {
		t.Fatalf("FrequencyToNote(%g) error = %v", frequency, err)
	}
	return tracker.FrameResult{
		TimestampMs:       timestampMs,
		SmoothedFrequency: frequency,
		Note:              &note,
		Stability:         tonal.StabilityResult{IsStable: true, AverageFrequency: frequency},
	}
}

func TestStableSegments(t *testing.T) {
	converter := notes.NewConverter()
	frames := []tracker.FrameResult{
		stableFrame(t, converter, 0, 442),
		stableFrame(t, converter, 10, 444),
		{TimestampMs: 20}, // unstable frame breaks the run
		stableFrame(t, converter, 30, 330),
	}

	segments := stableSegments(frames, "", 50, 10, converter)
	if len(segments) != 2 {
		t.Fatalf("len(segments) = %d, want 2", len(segments))
	}

	if segments[0].NoteName != "A4" {
		t.Errorf("segments[0].NoteName = %q, want \"A4\"", segments[0].NoteName)
	}
	testutil.RequireNear(t, segments[0].StartMs, 0, 1e-9)
	testutil.RequireNear(t, segments[0].EndMs, 20, 1e-9)
	testutil.RequireNear(t, segments[0].Frequency, 443, 1e-9)
	// 443 Hz sits 11.8 cents above A4.
	testutil.RequireNear(t, segments[0].CentsOff, 11.8, 0.1)
	if !segments[0].InTune {
		t.Error("segments[0] should be in tune within 50 cents")
	}

	if segments[1].NoteName != "E4" {
		t.Errorf("segments[1].NoteName = %q, want \"E4\"", segments[1].NoteName)
	}
	testutil.RequireNear(t, segments[1].StartMs, 30, 1e-9)
	testutil.RequireNear(t, segments[1].EndMs, 40, 1e-9)
}

func TestStableSegmentsAgainstTarget(t *testing.T) {
	converter := notes.NewConverter()
	frames := []tracker.FrameResult{
		stableFrame(t, converter, 0, 442),
		stableFrame(t, converter, 10, 444),
		{TimestampMs: 20},
		stableFrame(t, converter, 30, 330),
	}

	segments := stableSegments(frames, "A4", 5, 10, converter)
	if len(segments) != 2 {
		t.Fatalf("len(segments) = %d, want 2", len(segments))
	}

	testutil.RequireNear(t, segments[0].CentsOff, 11.8, 0.1)
	if segments[0].InTune {
		t.Error("11.8 cents off should not pass a 5 cent tolerance")
	}

	// 330 Hz against an A target folds to a fourth below the pitch class.
	testutil.RequireNear(t, segments[1].CentsOff, -498.04, 0.01)
	if segments[1].InTune {
		t.Error("a wrong note should never read as in tune")
	}
}

func TestStableSegmentsSplitsOnNoteChange(t *testing.T) {
	converter := notes.NewConverter()
	frames := []tracker.FrameResult{
		stableFrame(t, converter, 0, 440),
		stableFrame(t, converter, 10, 440),
		stableFrame(t, converter, 20, 494),
		stableFrame(t, converter, 30, 494),
	}

	segments := stableSegments(frames, "", 50, 10, converter)
	if len(segments) != 2 {
		t.Fatalf("len(segments) = %d, want 2", len(segments))
	}
	if segments[0].NoteName != "A4" || segments[1].NoteName != "B4" {
		t.Errorf("segment notes = %q, %q, want A4, B4", segments[0].NoteName, segments[1].NoteName)
	}
}

func TestStableSegmentsEmpty(t *testing.T) {
	if segments := stableSegments(nil, "", 50, 10, notes.NewConverter()); len(segments) != 0 {
		t.Errorf("len(segments) = %d, want 0", len(segments))
	}
}

func TestRenderMeter(t *testing.T) {
	center := renderMeter(0, 21)
	if len(center) != 21 {
		t.Fatalf("len = %d, want 21", len(center))
	}
	if center[10] != '*' {
		t.Errorf("needle at %d, want center 10 in %q", strings.IndexByte(center, '*'), center)
	}

	if low := renderMeter(-50, 21); low[0] != '*' {
		t.Errorf("needle should pin left in %q", low)
	}
	if high := renderMeter(50, 21); high[20] != '*' {
		t.Errorf("needle should pin right in %q", high)
	}
	if clamped := renderMeter(300, 21); clamped[20] != '*' {
		t.Errorf("offsets beyond the scale should pin right in %q", clamped)
	}

	if widened := renderMeter(0, 20); len(widened) != 21 {
		t.Errorf("even widths should round up to odd, got len %d", len(widened))
	}
}

func TestRenderSegment(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	line := renderSegment(tuneSegment{
		StartMs:   0,
		EndMs:     500,
		Frequency: 442.5,
		NoteName:  "A4",
		CentsOff:  9.8,
		InTune:    true,
	})

	for _, want := range []string{"A4", "442.50 Hz", "+9.8 cents", "in tune", "["} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q should contain %q", line, want)
		}
	}
}

func TestBuildConfig(t *testing.T) {
	cfg, err := buildConfig("", 440, 50, 48000)
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.Range.Name != "default" {
		t.Errorf("Range.Name = %q, want \"default\"", cfg.Range.Name)
	}

	cfg, err = buildConfig("guitar", 432, 25, 22050)
	if err != nil {
		t.Fatalf("buildConfig(guitar) error = %v", err)
	}
	if cfg.Range.Name != "guitar" {
		t.Errorf("Range.Name = %q, want \"guitar\"", cfg.Range.Name)
	}
	if !cfg.EnableBandpass {
		t.Error("instrument presets should enable the bandpass pre-filter")
	}
	testutil.RequireNear(t, cfg.ReferenceA4, 432, 1e-9)
	testutil.RequireNear(t, cfg.MatchToleranceCents, 25, 1e-9)

	if _, err := buildConfig("theremin", 440, 50, 44100); err == nil {
		t.Error("unknown instruments should be rejected")
	}
}

func TestDBFS(t *testing.T) {
	if got := dbfs(1.0); got != "0.0 dB" {
		t.Errorf("dbfs(1.0) = %q, want \"0.0 dB\"", got)
	}
	if got := dbfs(0.5); got != "-6.0 dB" {
		t.Errorf("dbfs(0.5) = %q, want \"-6.0 dB\"", got)
	}
	if got := dbfs(0); got != "-inf dB" {
		t.Errorf("dbfs(0) = %q, want \"-inf dB\"", got)
	}
}

func TestRelativeDB(t *testing.T) {
	testutil.RequireNear(t, relativeDB(1, 1), 0, 1e-9)
	testutil.RequireNear(t, relativeDB(0.1, 1), -20, 1e-9)
	testutil.RequireNear(t, relativeDB(0, 1), -120, 1e-9)
	testutil.RequireNear(t, relativeDB(1e-10, 1), -120, 1e-9)
}

func TestNoteHistogram(t *testing.T) {
	converter := notes.NewConverter()
	got := noteHistogram([]float64{440, 441, 329.63}, converter)
	if got != "A4 67%, E4 33%" {
		t.Errorf("noteHistogram() = %q, want \"A4 67%%, E4 33%%\"", got)
	}

	if got := noteHistogram(nil, converter); got != "none" {
		t.Errorf("noteHistogram(nil) = %q, want \"none\"", got)
	}
}
