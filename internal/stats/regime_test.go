package stats

import (
	"math"
	"testing"
)

func noiseSeries(n int, seed uint32) []float64 {
	r := &lcg{state: seed}
	s := make([]float64, n)
	for i := range s {
		s[i] = 100 + r.next()
	}
	return s
}

func walkSeries(n int, seed uint32) []float64 {
	r := &lcg{state: seed}
	s := make([]float64, n)
	s[0] = 100
	for i := 1; i < n; i++ {
		s[i] = s[i-1] + r.next()
	}
	return s
}

func TestHurstOrdering(t *testing.T) {
	// A noisy level series diffuses slower with lag than a random walk,
	// so its exponent estimate must come out lower.
	hNoise := Hurst(noiseSeries(200, 7), 2, 20)
	hWalk := Hurst(walkSeries(200, 7), 2, 20)
	if math.IsNaN(hNoise) || math.IsNaN(hWalk) {
		t.Fatalf("Hurst returned NaN: noise=%v walk=%v", hNoise, hWalk)
	}
	if hNoise >= hWalk {
		t.Errorf("Hurst(noise)=%v should be below Hurst(walk)=%v", hNoise, hWalk)
	}
}

func TestHurstShortSeries(t *testing.T) {
	if h := Hurst(noiseSeries(30, 1), 2, 20); !math.IsNaN(h) {
		t.Errorf("Hurst on short series = %v, want NaN", h)
	}
}

func TestVarianceRatioOrdering(t *testing.T) {
	vrNoise := VarianceRatio(noiseSeries(300, 9), 5)
	vrWalk := VarianceRatio(walkSeries(300, 9), 5)
	if math.IsNaN(vrNoise) || math.IsNaN(vrWalk) {
		t.Fatalf("VarianceRatio returned NaN: noise=%v walk=%v", vrNoise, vrWalk)
	}
	// Mean-reverting q-period variance collapses; a walk's does not.
	if vrNoise >= vrWalk {
		t.Errorf("VR(noise)=%v should be below VR(walk)=%v", vrNoise, vrWalk)
	}
	if vrNoise >= 1 {
		t.Errorf("VR(noise)=%v, want below 1", vrNoise)
	}
}

func TestIsMeanRevertingFailsClosed(t *testing.T) {
	if IsMeanReverting(noiseSeries(10, 3), 60, 0.5, 1.0) {
		t.Error("short series should fail the regime gate")
	}
}
