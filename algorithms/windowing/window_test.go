package windowing

import (
	"math"
	"testing"
)

func TestNewSelectsType(t *testing.T) {
	tests := []struct {
		windowType string
		want       string
	}{
		{TypeRectangular, "rectangular"},
		{TypeHann, "hann"},
		{TypeHamming, "hamming"},
		{TypeBlackman, "blackman"},
		{"", "rectangular"},
	}

	for _, tt := range tests {
		w, err := New(tt.windowType, 64)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.windowType, err)
		}
		if w.GetType() != tt.want {
			t.Errorf("New(%q).GetType() = %q, want %q", tt.windowType, w.GetType(), tt.want)
		}
		if w.GetSize() != 64 {
			t.Errorf("New(%q).GetSize() = %d, want 64", tt.windowType, w.GetSize())
		}
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New("gaussian", 64); err == nil {
		t.Error("unknown window type should error")
	}
	if _, err := New(TypeHann, 0); err == nil {
		t.Error("zero size should error")
	}
}

func TestHannEndpointsPeriodic(t *testing.T) {
	h := NewHann(8, false)
	coeffs := h.GetCoefficients()

	// Periodic Hann starts at zero and peaks at size/2.
	if coeffs[0] != 0 {
		t.Errorf("coeff[0] = %g, want 0", coeffs[0])
	}
	if math.Abs(coeffs[4]-1.0) > 1e-12 {
		t.Errorf("coeff[size/2] = %g, want 1", coeffs[4])
	}
}

func TestHannSymmetric(t *testing.T) {
	h := NewHann(9, true)
	coeffs := h.GetCoefficients()

	for i := 0; i < len(coeffs)/2; i++ {
		mirror := coeffs[len(coeffs)-1-i]
		if math.Abs(coeffs[i]-mirror) > 1e-12 {
			t.Errorf("coeff[%d] = %g, mirror = %g", i, coeffs[i], mirror)
		}
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	h := NewHann(8, false)
	if got := h.Apply(make([]float64, 4)); got != nil {
		t.Error("Apply with mismatched length should return nil")
	}
	if err := h.ApplyInPlace(make([]float64, 4)); err == nil {
		t.Error("ApplyInPlace with mismatched length should error")
	}
}

func TestApplyMatchesInPlace(t *testing.T) {
	signal := make([]float64, 16)
	for i := range signal {
		signal[i] = 1.0
	}

	h := NewHamming(16, false)
	applied := h.Apply(signal)

	inPlace := make([]float64, 16)
	copy(inPlace, signal)
	if err := h.ApplyInPlace(inPlace); err != nil {
		t.Fatalf("ApplyInPlace: %v", err)
	}

	for i := range applied {
		if applied[i] != inPlace[i] {
			t.Fatalf("index %d: Apply %g != ApplyInPlace %g", i, applied[i], inPlace[i])
		}
	}
}

func TestRectangularIsIdentity(t *testing.T) {
	signal := []float64{0.5, -0.25, 1, 0}
	r := NewRectangular(4)

	applied := r.Apply(signal)
	for i := range signal {
		if applied[i] != signal[i] {
			t.Fatalf("index %d: got %g, want %g", i, applied[i], signal[i])
		}
	}
}
