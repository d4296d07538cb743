// Package model holds the screener's core data types: raw bar tables,
// the normalized BarSeries both detectors consume, and the Signal
// records they emit.
package model

import "time"

// Bar is one trading day's OHLCV summary for a single symbol.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries is an ordered, immutable sequence of daily bars.
// Construct it with NewBarSeries; detectors access it by index only.
type BarSeries struct {
	bars []Bar
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.bars) }

// At returns the bar at index i.
func (s BarSeries) At(i int) Bar { return s.bars[i] }

// Closes returns a copy of the closing-price column.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// GapDays returns the whole calendar days between bars i and j (j ≥ i).
func (s BarSeries) GapDays(i, j int) int {
	return int(s.bars[j].Date.Sub(s.bars[i].Date).Hours() / 24)
}
