package detector

import (
	"math"

	"screener-systemv1/internal/model"
)

// TailSide selects which shadow the detector tests.
type TailSide string

const (
	TailLower TailSide = "lower"
	TailUpper TailSide = "upper"
)

// ShadowConfig parameterizes the kangaroo-tail detector. Zero numeric
// fields fall back to defaults; RequireTrend defaults to true via
// NewShadowDetector.
type ShadowConfig struct {
	Side         TailSide
	TailMinRatio float64 // min shadow-to-body multiple (default 2.0)
	BodyMaxRatio float64 // max body fraction of the full range (default 0.35)
	TrendWindow  int     // prior closes confirming the trend (default 3)
	RequireTrend bool
}

// ShadowDetector finds outlier-range reversal candles: a bar whose range
// dwarfs recent volatility, whose real body is small, and whose shadow on
// the configured side dominates, optionally confirmed by a prior trend
// the candle could reverse (down for lower tails, up for upper).
type ShadowDetector struct {
	cfg ShadowConfig
}

// DefaultShadowConfig returns the production defaults for a side.
func DefaultShadowConfig(side TailSide) ShadowConfig {
	return ShadowConfig{
		Side:         side,
		TailMinRatio: 2.0,
		BodyMaxRatio: 0.35,
		TrendWindow:  3,
		RequireTrend: true,
	}
}

// NewShadowDetector creates a shadow detector. Zero numeric fields fall
// back to defaults; RequireTrend is taken verbatim.
func NewShadowDetector(cfg ShadowConfig) *ShadowDetector {
	if cfg.Side == "" {
		cfg.Side = TailLower
	}
	if cfg.TailMinRatio == 0 {
		cfg.TailMinRatio = 2.0
	}
	if cfg.BodyMaxRatio == 0 {
		cfg.BodyMaxRatio = 0.35
	}
	if cfg.TrendWindow == 0 {
		cfg.TrendWindow = 3
	}
	return &ShadowDetector{cfg: cfg}
}

func (d *ShadowDetector) Name() string {
	return "shadow_" + string(d.cfg.Side)
}

func (d *ShadowDetector) Lookback() int {
	return d.cfg.TrendWindow
}

// Scan tests every bar in the series; no bars are skipped a priori.
// Thresholds are inclusive except the trend-sign test, which is strict.
func (d *ShadowDetector) Scan(series model.BarSeries) []model.Signal {
	var signals []model.Signal

	for i := 0; i < series.Len(); i++ {
		bar := series.At(i)

		body := math.Abs(bar.Close - bar.Open)
		upperShadow := math.Max(bar.High-math.Max(bar.Close, bar.Open), 0)
		lowerShadow := math.Max(math.Min(bar.Close, bar.Open)-bar.Low, 0)
		fullRange := math.Max(bar.High-bar.Low, epsilon)

		// Gate 1: today's range is an outlier vs the trailing mean range.
		if fullRange < 2*d.avgRange(series, i) {
			continue
		}

		// Gate 2: small real body relative to the range.
		if body/fullRange > d.cfg.BodyMaxRatio {
			continue
		}

		// Gate 3: the configured shadow dominates both the body and the range.
		shadow := lowerShadow
		if d.cfg.Side == TailUpper {
			shadow = upperShadow
		}
		if shadow < d.cfg.TailMinRatio*math.Max(body, epsilon) {
			continue
		}
		if shadow/fullRange < 0.4 {
			continue
		}

		// Gate 4: prior trend the candle could reverse.
		if d.cfg.RequireTrend && !d.trendConfirmed(series, i) {
			continue
		}

		kind := model.KindLowerTail
		if d.cfg.Side == TailUpper {
			kind = model.KindUpperTail
		}
		signals = append(signals, model.Signal{
			Kind:        kind,
			Date:        bar.Date,
			Index:       i,
			Body:        body,
			LowerShadow: lowerShadow,
			UpperShadow: upperShadow,
			FullRange:   fullRange,
			Open:        bar.Open,
			Close:       bar.Close,
		})
	}

	return signals
}

// avgRange is the mean bar range over the TrendWindow bars strictly
// preceding i. With no preceding bars it degenerates to epsilon.
func (d *ShadowDetector) avgRange(series model.BarSeries, i int) float64 {
	start := i - d.cfg.TrendWindow
	if start < 0 {
		start = 0
	}
	if start == i {
		return epsilon
	}

	sum := 0.0
	for j := start; j < i; j++ {
		b := series.At(j)
		sum += math.Max(b.High-b.Low, epsilon)
	}
	return sum / float64(i-start)
}

// trendConfirmed requires the mean day-over-day close change over the
// TrendWindow closes preceding i to be strictly negative (lower side) or
// strictly positive (upper side). Fewer than TrendWindow prior closes
// fails closed.
func (d *ShadowDetector) trendConfirmed(series model.BarSeries, i int) bool {
	if i < d.cfg.TrendWindow {
		return false
	}

	sum := 0.0
	n := 0
	for j := i - d.cfg.TrendWindow + 1; j < i; j++ {
		sum += series.At(j).Close - series.At(j-1).Close
		n++
	}
	if n == 0 {
		return false
	}

	mean := sum / float64(n)
	if d.cfg.Side == TailUpper {
		return mean > 0
	}
	return mean < 0
}
