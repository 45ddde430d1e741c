package tonal

import (
	"testing"

	"github.com/tonelab/pitchtrack/internal/testutil"
)

func TestSmooth(t *testing.T) {
	smoother := NewPitchSmoother(5)

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"outlier suppressed", []float64{100, 102, 98, 400, 101}, 101},
		{"empty", nil, 0},
		{"single", []float64{440}, 440},
		{"even window averages middles", []float64{100, 102}, 101},
		{"only last window counts", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.RequireNear(t, smoother.Smooth(tt.values), tt.want, 1e-12)
		})
	}
}

func TestPush(t *testing.T) {
	smoother := NewPitchSmoother(5)

	steps := []struct {
		value float64
		want  float64
	}{
		{100, 100},
		{102, 101},
		{98, 100},
		{400, 101},
		{101, 101},
		// Window full: the initial 100 falls out, leaving
		// {102, 98, 400, 101, 500}.
		{500, 102},
	}

	for i, step := range steps {
		got := smoother.Push(step.value)
		if got != step.want {
			t.Errorf("step %d: Push(%v) = %v, want %v", i, step.value, got, step.want)
		}
	}
}

func TestPushReset(t *testing.T) {
	smoother := NewPitchSmoother(5)

	smoother.Push(100)
	smoother.Push(200)
	smoother.Reset()

	testutil.RequireNear(t, smoother.Push(50), 50, 1e-12)
}

func TestSmoothExponential(t *testing.T) {
	smoother := NewPitchSmoother(5)
	testutil.RequireNear(t, smoother.SmoothExponential(100, 200), 170, 1e-12)
}

func TestSmootherDefaultWindow(t *testing.T) {
	smoother := NewPitchSmoother(0)
	if smoother.GetWindowSize() != DefaultSmoothingWindowSize {
		t.Errorf("window size = %d, want %d", smoother.GetWindowSize(), DefaultSmoothingWindowSize)
	}
}
