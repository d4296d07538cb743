package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func TestEMA_SeedsAtFirstValue(t *testing.T) {
	// EMA(3): alpha = 2/(3+1) = 0.5
	// Seed: 10
	// After 20: 20*0.5 + 10*0.5 = 15
	// After 30: 30*0.5 + 15*0.5 = 22.5
	ema := NewEMA(3)

	assertClose(t, "seed", ema.Update(10), 10, 0.0001)
	assertClose(t, "second", ema.Update(20), 15, 0.0001)
	assertClose(t, "third", ema.Update(30), 22.5, 0.0001)
	assertClose(t, "Value", ema.Value(), 22.5, 0.0001)
}

func TestSeries_SameLengthAsInput(t *testing.T) {
	out := Series([]float64{1, 2, 3, 4}, 5)
	if len(out) != 4 {
		t.Fatalf("Series length = %d, want 4", len(out))
	}
	assertClose(t, "Series[0]", out[0], 1, 0.0001)
}

func TestComputeMACD_HandCalculated(t *testing.T) {
	// Closes 1..5 with spans fast=2, slow=4, signal=3:
	//   fast alpha = 2/3, slow alpha = 2/5, signal alpha = 1/2
	// Diff:   0, 0.266667, 0.515556, 0.694519, 0.811773
	// Signal: 0, 0.133333, 0.324444, 0.509481, 0.660627
	// Hist:   0, 0.133333, 0.191111, 0.185037, 0.151146
	closes := []float64{1, 2, 3, 4, 5}
	m := ComputeMACD(closes, MACDConfig{FastSpan: 2, SlowSpan: 4, SignalSpan: 3})

	wantDiff := []float64{0, 0.266667, 0.515556, 0.694519, 0.811773}
	wantSignal := []float64{0, 0.133333, 0.324444, 0.509481, 0.660627}
	wantHist := []float64{0, 0.133333, 0.191111, 0.185037, 0.151146}

	for i := range closes {
		assertClose(t, "Diff", m.Diff[i], wantDiff[i], 0.0001)
		assertClose(t, "Signal", m.Signal[i], wantSignal[i], 0.0001)
		assertClose(t, "Hist", m.Hist[i], wantHist[i], 0.0001)
	}
}

func TestComputeMACD_FirstHistAlwaysZero(t *testing.T) {
	m := ComputeMACD([]float64{42.5, 41, 44, 39}, MACDConfig{})
	assertClose(t, "Hist[0]", m.Hist[0], 0, 1e-12)
}

func TestComputeMACD_ConstantSeriesIsFlat(t *testing.T) {
	// A constant price has no momentum: every EMA equals the price, so
	// diff, signal, and hist are all zero at every index.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 250
	}
	m := ComputeMACD(closes, MACDConfig{})

	for i := range closes {
		assertClose(t, "Diff", m.Diff[i], 0, 1e-9)
		assertClose(t, "Hist", m.Hist[i], 0, 1e-9)
	}
}

func TestComputeMACD_DefaultsApplied(t *testing.T) {
	cfg := MACDConfig{}.withDefaults()
	if cfg.FastSpan != 12 || cfg.SlowSpan != 26 || cfg.SignalSpan != 9 {
		t.Errorf("defaults = %+v, want 12/26/9", cfg)
	}
}
