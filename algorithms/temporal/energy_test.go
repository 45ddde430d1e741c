package temporal

import (
	"testing"

	"github.com/tonelab/pitchtrack/internal/testutil"
)

func TestComputeShortTimeEnergy(t *testing.T) {
	energy := NewEnergy(4, 2, 8000)

	// Constant amplitude: every frame RMS equals the amplitude.
	signal := testutil.DC(0.5, 10)
	frames := energy.ComputeShortTimeEnergy(signal)

	wantFrames := (len(signal)-4)/2 + 1
	if len(frames) != wantFrames {
		t.Fatalf("frame count = %d, want %d", len(frames), wantFrames)
	}
	want := testutil.DC(0.5, wantFrames)
	testutil.RequireSliceNear(t, frames, want, 1e-12)
}

func TestComputeShortTimeEnergyShortSignal(t *testing.T) {
	energy := NewEnergy(1024, 512, 44100)
	frames := energy.ComputeShortTimeEnergy(testutil.DC(0.5, 100))
	if len(frames) != 0 {
		t.Errorf("expected no frames for signal shorter than frame size, got %d", len(frames))
	}
}

func TestComputeLogEnergy(t *testing.T) {
	energy := NewEnergy(4, 4, 8000)

	// RMS 0.1 is -20 dB.
	frames := energy.ComputeLogEnergy(testutil.DC(0.1, 8), 1e-10)
	if len(frames) != 2 {
		t.Fatalf("frame count = %d, want 2", len(frames))
	}
	testutil.RequireNear(t, frames[0], -20.0, 1e-9)

	// Silence is clamped to the floor instead of -Inf.
	silent := energy.ComputeLogEnergy(testutil.Silence(8), 1e-10)
	testutil.RequireFinite(t, silent)
}

func TestFrameTime(t *testing.T) {
	energy := NewEnergy(1024, 512, 44100)
	testutil.RequireNear(t, energy.FrameTime(0), 0.0, 1e-12)
	testutil.RequireNear(t, energy.FrameTime(10), 512*10*1000.0/44100.0, 1e-9)
}
