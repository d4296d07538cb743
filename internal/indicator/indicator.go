// Package indicator provides technical indicator calculations over
// closing-price series.
//
// The screener works on a complete daily series at once, so indicators
// here are whole-series transforms: every output series is index-aligned
// with its input and no leading values are dropped.
package indicator
