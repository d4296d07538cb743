package indicator

// MACDConfig holds the three EMA spans of the oscillator.
// Zero values fall back to the conventional 12/26/9.
type MACDConfig struct {
	FastSpan   int
	SlowSpan   int
	SignalSpan int
}

const (
	defaultFastSpan   = 12
	defaultSlowSpan   = 26
	defaultSignalSpan = 9
)

func (c MACDConfig) withDefaults() MACDConfig {
	if c.FastSpan == 0 {
		c.FastSpan = defaultFastSpan
	}
	if c.SlowSpan == 0 {
		c.SlowSpan = defaultSlowSpan
	}
	if c.SignalSpan == 0 {
		c.SignalSpan = defaultSignalSpan
	}
	return c
}

// MACD holds the oscillator's three output series, each index-aligned
// with the input closes.
//
//	Diff   = EMA(close, fast) − EMA(close, slow)
//	Signal = EMA(Diff, signal)
//	Hist   = Diff − Signal
//
// Because every EMA seeds at its first input, Hist[0] is always 0.
type MACD struct {
	Diff   []float64
	Signal []float64
	Hist   []float64
}

// ComputeMACD runs the oscillator over a closing-price series.
func ComputeMACD(closes []float64, cfg MACDConfig) MACD {
	cfg = cfg.withDefaults()

	fast := Series(closes, cfg.FastSpan)
	slow := Series(closes, cfg.SlowSpan)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = fast[i] - slow[i]
	}

	signal := Series(diff, cfg.SignalSpan)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = diff[i] - signal[i]
	}

	return MACD{Diff: diff, Signal: signal, Hist: hist}
}
