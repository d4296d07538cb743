// Package detector provides the screener's pattern detectors.
//
// A Detector is a pure function of a BarSeries: it holds no state across
// invocations, performs no I/O, and given the same series and config
// always emits the identical signal list (ascending by bar index within
// each pass). Insufficient history never raises an error; the affected bar or
// extrema pair simply fails closed.
package detector

import "screener-systemv1/internal/model"

// epsilon floors zero ranges and zero bodies so ratio gates never divide
// by zero on degenerate bars.
const epsilon = 1e-9

// Detector scans a normalized bar series for one pattern family.
type Detector interface {
	// Name returns the unique detector name.
	Name() string

	// Scan returns all signals in the series, ascending by bar index.
	Scan(series model.BarSeries) []model.Signal

	// Lookback returns the number of trailing bars the detector needs
	// before a bar can signal. Callers must fetch strictly more bars
	// than this.
	Lookback() int
}
