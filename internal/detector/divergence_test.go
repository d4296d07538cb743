package detector

import (
	"math"
	"testing"

	"screener-systemv1/internal/model"
)

// flatBars wraps a close series in bars whose other fields never trigger
// the shadow gates; only closes matter to the divergence detector.
func flatBars(closes []float64) []ohlc {
	bars := make([]ohlc, len(closes))
	for i, c := range closes {
		bars[i] = ohlc{o: c, h: c + 0.5, l: c - 0.5, c: c}
	}
	return bars
}

// Price carves two troughs: 90 at index 5, then a deeper 85 at index 16,
// eleven calendar days later. The second decline is slower, so the MACD
// histogram bottoms higher (−0.9743 vs −1.0940): a bullish divergence.
var bullishCloses = []float64{
	100, 98, 96, 93, 91, 90, 92, 94, 96, 98, 100,
	98, 95, 92, 89, 87, 85, 88, 91, 93, 94, 95, 94,
}

func TestDivergenceDetector_Bullish(t *testing.T) {
	d := NewDivergenceDetector(DefaultDivergenceConfig())
	signals := d.Scan(seriesOf(t, flatBars(bullishCloses)))

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(signals), signals)
	}
	s := signals[0]
	if s.Kind != model.KindBullishDivergence {
		t.Errorf("Kind = %s, want %s", s.Kind, model.KindBullishDivergence)
	}
	if s.Index != 16 {
		t.Errorf("Index = %d, want 16", s.Index)
	}
	if s.Price1 != 90 || s.Price2 != 85 {
		t.Errorf("prices = %v/%v, want 90/85", s.Price1, s.Price2)
	}
	if math.Abs(s.Hist1+1.0940) > 0.001 || math.Abs(s.Hist2+0.9743) > 0.001 {
		t.Errorf("hist = %v/%v, want ~-1.0940/~-0.9743", s.Hist1, s.Hist2)
	}
	if s.Hist2 <= s.Hist1 {
		t.Error("bullish divergence requires a higher histogram low")
	}
}

func TestDivergenceDetector_Bearish(t *testing.T) {
	// Mirror image of the bullish series: a higher price high at index 16
	// with a lower histogram high.
	closes := make([]float64, len(bullishCloses))
	for i, c := range bullishCloses {
		closes[i] = 200 - c
	}

	d := NewDivergenceDetector(DefaultDivergenceConfig())
	signals := d.Scan(seriesOf(t, flatBars(closes)))

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1: %v", len(signals), signals)
	}
	s := signals[0]
	if s.Kind != model.KindBearishDivergence {
		t.Errorf("Kind = %s, want %s", s.Kind, model.KindBearishDivergence)
	}
	if s.Index != 16 {
		t.Errorf("Index = %d, want 16", s.Index)
	}
	if s.Price2 <= s.Price1 {
		t.Error("bearish divergence requires a higher price high")
	}
	if s.Hist2 >= s.Hist1 {
		t.Error("bearish divergence requires a lower histogram high")
	}
}

func TestDivergenceDetector_GapTooSmall(t *testing.T) {
	// Troughs at indices 3 and 7, only four calendar days apart: below the
	// five-day minimum, so the pair is never evaluated.
	closes := []float64{100, 96, 92, 90, 92, 94, 91, 88, 90, 92, 94}
	d := NewDivergenceDetector(DefaultDivergenceConfig())
	if signals := d.Scan(seriesOf(t, flatBars(closes))); len(signals) != 0 {
		t.Errorf("fired on extrema closer than the minimum gap: %v", signals)
	}
}

func TestDivergenceDetector_NoDivergenceWithoutHistogramMismatch(t *testing.T) {
	// Two troughs where price and momentum agree (both falling): price
	// makes a lower low and the histogram a lower low too.
	closes := []float64{100, 96, 92, 90, 92, 94, 91, 88, 90, 92, 94}
	d := NewDivergenceDetector(DivergenceConfig{MinGapDays: 1})
	signals := d.Scan(seriesOf(t, flatBars(closes)))
	for _, s := range signals {
		if s.Kind == model.KindBullishDivergence {
			t.Errorf("bullish signal despite agreeing momentum: %+v", s)
		}
	}
}

func TestDivergenceDetector_ConstantSeriesIsSilent(t *testing.T) {
	// Flat prices: every index is a plateau extremum, but no pair can make
	// a lower low or higher high, so nothing fires.
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 300
	}
	d := NewDivergenceDetector(DefaultDivergenceConfig())
	if signals := d.Scan(seriesOf(t, flatBars(closes))); len(signals) != 0 {
		t.Errorf("fired on a constant series: %v", signals)
	}
}

func TestDivergenceDetector_SignalsReferenceExtremaOnly(t *testing.T) {
	closes := bullishCloses
	minima := localMinima(closes, 3)
	isMin := map[int]bool{}
	for _, i := range minima {
		isMin[i] = true
	}

	d := NewDivergenceDetector(DefaultDivergenceConfig())
	for _, s := range d.Scan(seriesOf(t, flatBars(closes))) {
		if s.Kind == model.KindBullishDivergence && !isMin[s.Index] {
			t.Errorf("bullish signal at non-minimum index %d", s.Index)
		}
	}
}

func TestDivergenceDetector_Lookback(t *testing.T) {
	if got := NewDivergenceDetector(DefaultDivergenceConfig()).Lookback(); got != 26 {
		t.Errorf("Lookback = %d, want 26", got)
	}
	cfg := DefaultDivergenceConfig()
	cfg.MACD.SlowSpan = 40
	if got := NewDivergenceDetector(cfg).Lookback(); got != 40 {
		t.Errorf("Lookback = %d, want 40", got)
	}
}
