package temporal

import (
	"testing"

	"github.com/tonelab/pitchtrack/internal/testutil"
)

func TestCalibrate(t *testing.T) {
	calibrator := NewNoiseFloorCalibratorWithMultiplier(2.0)

	buffers := [][]float64{
		testutil.DC(0.1, 100),
		testutil.DC(0.3, 100),
	}
	cal := calibrator.Calibrate(buffers)

	testutil.RequireNear(t, cal.RMSAverage, 0.2, 1e-12)
	testutil.RequireNear(t, cal.RMSPeak, 0.3, 1e-12)
	testutil.RequireNear(t, cal.Threshold, 0.4, 1e-12)
}

func TestCalibrateSkipsEmptyBuffers(t *testing.T) {
	calibrator := NewNoiseFloorCalibrator()

	buffers := [][]float64{
		{},
		testutil.DC(0.1, 100),
		nil,
	}
	cal := calibrator.Calibrate(buffers)

	testutil.RequireNear(t, cal.RMSAverage, 0.1, 1e-12)
	testutil.RequireNear(t, cal.Threshold, 0.15, 1e-12)
}

func TestCalibrateFallback(t *testing.T) {
	calibrator := NewNoiseFloorCalibrator()
	want := DefaultNoiseFloorCalibration()

	for _, buffers := range [][][]float64{nil, {}, {{}, nil}} {
		cal := calibrator.Calibrate(buffers)
		if cal != want {
			t.Errorf("Calibrate(%v) = %+v, want default %+v", buffers, cal, want)
		}
	}
}

func TestDefaultNoiseFloorCalibration(t *testing.T) {
	cal := DefaultNoiseFloorCalibration()
	testutil.RequireNear(t, cal.RMSAverage, 0.01, 1e-12)
	testutil.RequireNear(t, cal.RMSPeak, 0.02, 1e-12)
	testutil.RequireNear(t, cal.Threshold, 0.015, 1e-12)
}

func TestIsSilent(t *testing.T) {
	cal := DefaultNoiseFloorCalibration()

	if !cal.IsSilent(0.01) {
		t.Error("RMS below threshold should be silent")
	}
	if cal.IsSilent(0.02) {
		t.Error("RMS above threshold should not be silent")
	}
	if cal.IsSilent(cal.Threshold) {
		t.Error("RMS exactly at threshold should not be silent")
	}
}

func TestCalibrateFromSignal(t *testing.T) {
	calibrator := NewNoiseFloorCalibrator()

	cal := calibrator.CalibrateFromSignal(testutil.DC(0.1, 4096), 1024, 512, 44100)
	testutil.RequireNear(t, cal.RMSAverage, 0.1, 1e-12)
	testutil.RequireNear(t, cal.RMSPeak, 0.1, 1e-12)
	testutil.RequireNear(t, cal.Threshold, 0.15, 1e-12)

	// A recording shorter than one frame falls back to the default.
	short := calibrator.CalibrateFromSignal(testutil.DC(0.1, 10), 1024, 512, 44100)
	if short != DefaultNoiseFloorCalibration() {
		t.Errorf("short signal: got %+v, want default", short)
	}
}

func TestCalibratorMultiplierFallback(t *testing.T) {
	calibrator := NewNoiseFloorCalibratorWithMultiplier(-1.0)
	testutil.RequireNear(t, calibrator.GetMultiplier(), 1.5, 1e-12)
}
