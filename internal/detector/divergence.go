package detector

import (
	"screener-systemv1/internal/indicator"
	"screener-systemv1/internal/model"
)

// DivergenceConfig parameterizes the oscillator-divergence detector.
// Zero fields fall back to defaults.
type DivergenceConfig struct {
	MACD         indicator.MACDConfig
	ExtremaOrder int // half-window radius for local extrema (default 3)
	MinGapDays   int // min calendar days between paired extrema (default 5)
}

// DefaultDivergenceConfig returns the production defaults.
func DefaultDivergenceConfig() DivergenceConfig {
	return DivergenceConfig{ExtremaOrder: 3, MinGapDays: 5}
}

// DivergenceDetector pairs consecutive same-kind price extrema and tests
// for a mismatch between price direction and oscillator-histogram
// direction: a lower price low with a higher histogram low is bullish, a
// higher price high with a lower histogram high is bearish.
type DivergenceDetector struct {
	cfg DivergenceConfig
}

// NewDivergenceDetector creates a divergence detector with defaults applied.
func NewDivergenceDetector(cfg DivergenceConfig) *DivergenceDetector {
	if cfg.ExtremaOrder == 0 {
		cfg.ExtremaOrder = 3
	}
	if cfg.MinGapDays == 0 {
		cfg.MinGapDays = 5
	}
	return &DivergenceDetector{cfg: cfg}
}

func (d *DivergenceDetector) Name() string {
	return "macd_divergence"
}

// Lookback is the slow EMA span: enough trailing bars for the oscillator
// to carry meaningful history at the scan's final index.
func (d *DivergenceDetector) Lookback() int {
	cfg := d.cfg.MACD
	if cfg.SlowSpan == 0 {
		return 26
	}
	return cfg.SlowSpan
}

// Scan runs the oscillator, detects price extrema, and walks every
// consecutive pair in each extrema list, not just the most recent, so
// one scan can yield multiple divergences across the series history.
func (d *DivergenceDetector) Scan(series model.BarSeries) []model.Signal {
	closes := series.Closes()
	macd := indicator.ComputeMACD(closes, d.cfg.MACD)

	lows := localMinima(closes, d.cfg.ExtremaOrder)
	highs := localMaxima(closes, d.cfg.ExtremaOrder)

	var signals []model.Signal

	for i := 0; i+1 < len(lows); i++ {
		idx1, idx2 := lows[i], lows[i+1]
		if series.GapDays(idx1, idx2) < d.cfg.MinGapDays {
			continue
		}
		// Price makes a lower low while the histogram makes a higher low.
		if closes[idx2] < closes[idx1] && macd.Hist[idx2] > macd.Hist[idx1] {
			signals = append(signals, divergenceSignal(model.KindBullishDivergence, series, closes, macd.Hist, idx1, idx2))
		}
	}

	for i := 0; i+1 < len(highs); i++ {
		idx1, idx2 := highs[i], highs[i+1]
		if series.GapDays(idx1, idx2) < d.cfg.MinGapDays {
			continue
		}
		// Price makes a higher high while the histogram makes a lower high.
		if closes[idx2] > closes[idx1] && macd.Hist[idx2] < macd.Hist[idx1] {
			signals = append(signals, divergenceSignal(model.KindBearishDivergence, series, closes, macd.Hist, idx1, idx2))
		}
	}

	return signals
}

func divergenceSignal(kind model.SignalKind, series model.BarSeries, closes, hist []float64, idx1, idx2 int) model.Signal {
	return model.Signal{
		Kind:   kind,
		Date:   series.At(idx2).Date,
		Index:  idx2,
		Price1: closes[idx1],
		Price2: closes[idx2],
		Hist1:  hist[idx1],
		Hist2:  hist[idx2],
	}
}
