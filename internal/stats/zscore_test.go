package stats

import (
	"math"
	"testing"
)

func TestRollingZScoreWarmup(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	z := RollingZScore(xs, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(z[i]) {
			t.Errorf("z[%d] = %v, want NaN during warm-up", i, z[i])
		}
	}
	// window {4,5,6}: mean 5, sample std 1, last value 6
	if !almostEqual(z[5], 1.0, 1e-12) {
		t.Errorf("z[5] = %v, want 1", z[5])
	}
}

func TestRollingZScoreZeroVariance(t *testing.T) {
	xs := []float64{3, 3, 3, 3, 3}
	z := RollingZScore(xs, 3)
	for i, v := range z {
		if !math.IsNaN(v) {
			t.Errorf("z[%d] = %v, want NaN on flat window", i, v)
		}
	}
}

func TestZWindow(t *testing.T) {
	tests := []struct {
		name     string
		halfLife float64
		min      int
		mult     float64
		want     int
	}{
		{"scales with half-life", 10.0, 20, 3.0, 30},
		{"floors at min", 2.0, 20, 3.0, 20},
		{"half-life below one clamps", 0.3, 5, 3.0, 5},
		{"infinite defers to wide default", math.Inf(1), 20, 3.0, 60},
		{"infinite keeps larger min", math.Inf(1), 90, 3.0, 90},
		{"nan defers to wide default", math.NaN(), 20, 3.0, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZWindow(tt.halfLife, tt.min, tt.mult); got != tt.want {
				t.Errorf("ZWindow(%v, %d, %v) = %d, want %d", tt.halfLife, tt.min, tt.mult, got, tt.want)
			}
		})
	}
}

func TestRollingMeanStd(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	mean, std := RollingMeanStd(xs, 2)
	if !math.IsNaN(mean[0]) || !math.IsNaN(std[0]) {
		t.Errorf("warm-up entries should be NaN, got mean=%v std=%v", mean[0], std[0])
	}
	if !almostEqual(mean[3], 3.5, 1e-12) {
		t.Errorf("mean[3] = %v, want 3.5", mean[3])
	}
	if !almostEqual(std[3], math.Sqrt(0.5), 1e-12) {
		t.Errorf("std[3] = %v, want sqrt(0.5)", std[3])
	}
}
