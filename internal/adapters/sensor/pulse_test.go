package sensor

import (
	"math"
	"testing"
)

// synthPPG builds a window of samples with a sinusoidal AC component on a
// DC baseline, peaking at the given rate.
func synthPPG(n, sampleRate int, bpm float64, dc, ac float64) []float64 {
	out := make([]float64, n)
	freq := bpm / 60.0
	for i := range out {
		tsec := float64(i) / float64(sampleRate)
		out[i] = dc + ac*math.Sin(2*math.Pi*freq*tsec)
	}
	return out
}

func TestHeartRateFromSyntheticSignal(t *testing.T) {
	ir := synthPPG(pulseWindow, pulseSampleRate, 75, 5000, 400)

	got := heartRate(ir, pulseSampleRate)
	if got < 60 || got > 120 {
		t.Errorf("heart rate = %d, want a plausible value near 75", got)
	}
}

func TestHeartRateFlatSignalIsZero(t *testing.T) {
	flat := make([]float64, pulseWindow)
	for i := range flat {
		flat[i] = 5000
	}
	if got := heartRate(flat, pulseSampleRate); got != 0 {
		t.Errorf("flat signal heart rate = %d, want 0", got)
	}
}

func TestHeartRateShortWindowIsZero(t *testing.T) {
	if got := heartRate([]float64{1, 2, 3}, pulseSampleRate); got != 0 {
		t.Errorf("short window heart rate = %d, want 0", got)
	}
}

func TestSpO2RatioOfRatios(t *testing.T) {
	// Equal perfusion on both LEDs gives ratio 1 and the textbook 85%.
	ir := synthPPG(pulseWindow, pulseSampleRate, 75, 5000, 400)
	red := synthPPG(pulseWindow, pulseSampleRate, 75, 5000, 400)

	if got := spO2(ir, red); got != 85 {
		t.Errorf("spO2 with ratio 1 = %d, want 85", got)
	}
}

func TestSpO2ClampsToPhysiologicalRange(t *testing.T) {
	ir := synthPPG(pulseWindow, pulseSampleRate, 75, 5000, 400)
	// A tiny red AC component drives the ratio toward 0 and the raw
	// estimate above 100.
	red := synthPPG(pulseWindow, pulseSampleRate, 75, 5000, 1)

	if got := spO2(ir, red); got != 100 {
		t.Errorf("spO2 = %d, want clamp at 100", got)
	}
}

func TestSpO2FlatSignalIsZero(t *testing.T) {
	flat := make([]float64, pulseWindow)
	for i := range flat {
		flat[i] = 5000
	}
	if got := spO2(flat, flat); got != 0 {
		t.Errorf("flat signal spO2 = %d, want 0", got)
	}
}
