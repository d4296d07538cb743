package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RequiredColumns are the OHLCV columns every bar table must carry.
// Tables may carry any number of extra columns; they are ignored.
var RequiredColumns = []string{"open", "high", "low", "close", "volume"}

// Table is raw tabular bar data as returned by a market-data provider:
// one float64 column per field, all columns the same length.
// Dates is optional: when nil, row position becomes the time axis.
type Table struct {
	Dates   []time.Time          `json:"dates,omitempty"`
	Columns map[string][]float64 `json:"columns"`
}

// Len returns the number of rows, taken from the close column.
func (t *Table) Len() int {
	return len(t.Columns["close"])
}

// SchemaError reports mandatory OHLCV columns missing from a bar table.
// It is fatal for the affected input and must reach the caller: a missing
// column means the upstream provider contract is broken.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("bar table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ordinalEpoch anchors synthetic dates for tables without a date column.
// Row i maps to epoch+i days so gap arithmetic stays well-defined.
var ordinalEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// NewBarSeries validates a raw table and builds an ascending BarSeries.
//
// Rules:
//   - all of RequiredColumns must be present → *SchemaError otherwise
//   - all columns must have equal length
//   - rows are stable-sorted ascending by date; duplicate dates are kept
//     as distinct sequential entries in their input order
//   - the caller's table is never mutated
func NewBarSeries(t *Table) (BarSeries, error) {
	if t == nil {
		return BarSeries{}, fmt.Errorf("nil bar table")
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := t.Columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return BarSeries{}, &SchemaError{Missing: missing}
	}

	n := t.Len()
	for _, col := range RequiredColumns {
		if len(t.Columns[col]) != n {
			return BarSeries{}, fmt.Errorf("column %q has %d rows, want %d", col, len(t.Columns[col]), n)
		}
	}
	if t.Dates != nil && len(t.Dates) != n {
		return BarSeries{}, fmt.Errorf("dates column has %d rows, want %d", len(t.Dates), n)
	}

	bars := make([]Bar, n)
	for i := 0; i < n; i++ {
		date := ordinalEpoch.AddDate(0, 0, i)
		if t.Dates != nil {
			date = t.Dates[i]
		}
		bars[i] = Bar{
			Date:   date,
			Open:   t.Columns["open"][i],
			High:   t.Columns["high"][i],
			Low:    t.Columns["low"][i],
			Close:  t.Columns["close"][i],
			Volume: t.Columns["volume"][i],
		}
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return BarSeries{bars: bars}, nil
}
