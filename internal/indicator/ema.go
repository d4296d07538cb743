package indicator

// EMA calculates an exponential moving average.
// O(1) per update, no window storage needed.
//
// The first observation seeds the average directly (no simple-average
// warm-up and no bias adjustment), so the recursion is well-defined from
// the very first element.
type EMA struct {
	alpha   float64
	current float64
	seeded  bool
}

// NewEMA creates an EMA with smoothing factor 2/(span+1).
func NewEMA(span int) *EMA {
	return &EMA{alpha: 2.0 / float64(span+1)}
}

// Update feeds the next value and returns the new average.
func (e *EMA) Update(v float64) float64 {
	if !e.seeded {
		e.current = v
		e.seeded = true
		return e.current
	}
	e.current = v*e.alpha + e.current*(1-e.alpha)
	return e.current
}

// Value returns the current average. Returns 0 before the first update.
func (e *EMA) Value() float64 { return e.current }

// Series returns the EMA of values, same length as the input.
func Series(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	ema := NewEMA(span)
	for i, v := range values {
		out[i] = ema.Update(v)
	}
	return out
}
