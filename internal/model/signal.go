package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SignalKind identifies the detector pattern a signal represents.
type SignalKind string

const (
	KindLowerTail         SignalKind = "lower_tail"
	KindUpperTail         SignalKind = "upper_tail"
	KindBullishDivergence SignalKind = "bullish_divergence"
	KindBearishDivergence SignalKind = "bearish_divergence"
)

// Tail reports whether the kind is a shadow (kangaroo-tail) signal.
func (k SignalKind) Tail() bool {
	return k == KindLowerTail || k == KindUpperTail
}

// Signal is one detected pattern occurrence. Tail signals populate the
// candle-evidence fields, divergence signals the extrema-pair fields.
// Signals are produced fresh per scan and never mutated afterwards.
type Signal struct {
	Symbol string     `json:"symbol,omitempty"`
	Kind   SignalKind `json:"kind"`
	Date   time.Time  `json:"date"`
	Index  int        `json:"index"`

	// Tail evidence. Zero is a legitimate value (a doji has body 0), so
	// these fields are always serialized; Kind scopes which ones matter.
	Body        float64 `json:"body"`
	LowerShadow float64 `json:"lower_shadow"`
	UpperShadow float64 `json:"upper_shadow"`
	FullRange   float64 `json:"full_range"`
	Open        float64 `json:"open"`
	Close       float64 `json:"close"`

	// Divergence evidence: values at the earlier (1) and later (2) extremum
	Price1 float64 `json:"price1"`
	Price2 float64 `json:"price2"`
	Hist1  float64 `json:"hist1"`
	Hist2  float64 `json:"hist2"`
}

// Field is one named value of a signal's flat representation.
type Field struct {
	Name  string
	Value string
}

// Fields returns the signal as an ordered flat field list. The field set
// is uniform per detector type, which keeps tabular rendering stable.
func (s Signal) Fields() []Field {
	common := []Field{
		{"symbol", s.Symbol},
		{"kind", string(s.Kind)},
		{"date", s.Date.Format("2006-01-02")},
		{"index", fmt.Sprintf("%d", s.Index)},
	}
	if s.Kind.Tail() {
		return append(common,
			Field{"body", fmtF(s.Body)},
			Field{"lower_shadow", fmtF(s.LowerShadow)},
			Field{"upper_shadow", fmtF(s.UpperShadow)},
			Field{"full_range", fmtF(s.FullRange)},
			Field{"open", fmtF(s.Open)},
			Field{"close", fmtF(s.Close)},
		)
	}
	return append(common,
		Field{"price1", fmtF(s.Price1)},
		Field{"price2", fmtF(s.Price2)},
		Field{"hist1", fmtF(s.Hist1)},
		Field{"hist2", fmtF(s.Hist2)},
	)
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

func fmtF(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
