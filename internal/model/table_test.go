package model

import (
	"errors"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func table(dates []time.Time, closes []float64) *Table {
	n := len(closes)
	col := func(off float64) []float64 {
		out := make([]float64, n)
		for i, c := range closes {
			out[i] = c + off
		}
		return out
	}
	return &Table{
		Dates: dates,
		Columns: map[string][]float64{
			"open":   col(0),
			"high":   col(1),
			"low":    col(-1),
			"close":  closes,
			"volume": col(1000),
		},
	}
}

func TestNewBarSeries_MissingColumnsIsSchemaError(t *testing.T) {
	tbl := table(nil, []float64{100, 101})
	delete(tbl.Columns, "high")
	delete(tbl.Columns, "volume")

	_, err := NewBarSeries(tbl)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("Missing = %v, want [high volume]", schemaErr.Missing)
	}
}

func TestNewBarSeries_UnequalColumnLengths(t *testing.T) {
	tbl := table(nil, []float64{100, 101, 102})
	tbl.Columns["volume"] = tbl.Columns["volume"][:2]

	if _, err := NewBarSeries(tbl); err == nil {
		t.Fatal("expected error for ragged columns")
	}
}

func TestNewBarSeries_SortsAscendingByDate(t *testing.T) {
	tbl := table([]time.Time{day(3), day(1), day(2)}, []float64{103, 101, 102})

	series, err := NewBarSeries(tbl)
	if err != nil {
		t.Fatal(err)
	}

	wantCloses := []float64{101, 102, 103}
	for i, want := range wantCloses {
		if got := series.At(i).Close; got != want {
			t.Errorf("bar %d close = %v, want %v", i, got, want)
		}
	}
	if !series.At(0).Date.Equal(day(1)) {
		t.Errorf("bar 0 date = %v, want %v", series.At(0).Date, day(1))
	}
}

func TestNewBarSeries_DoesNotMutateInput(t *testing.T) {
	tbl := table([]time.Time{day(3), day(1), day(2)}, []float64{103, 101, 102})

	if _, err := NewBarSeries(tbl); err != nil {
		t.Fatal(err)
	}
	if tbl.Columns["close"][0] != 103 || !tbl.Dates[0].Equal(day(3)) {
		t.Error("input table was reordered")
	}
}

func TestNewBarSeries_DuplicateDatesKeptInInputOrder(t *testing.T) {
	tbl := table([]time.Time{day(1), day(2), day(2)}, []float64{101, 102, 103})

	series, err := NewBarSeries(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 3 {
		t.Fatalf("Len = %d, want 3", series.Len())
	}
	if series.At(1).Close != 102 || series.At(2).Close != 103 {
		t.Errorf("duplicate-date bars reordered: %v, %v", series.At(1).Close, series.At(2).Close)
	}
}

func TestNewBarSeries_SyntheticDatesAreConsecutiveDays(t *testing.T) {
	tbl := table(nil, []float64{100, 101, 102})

	series, err := NewBarSeries(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if got := series.GapDays(0, 2); got != 2 {
		t.Errorf("GapDays(0,2) = %d, want 2", got)
	}
}

func TestNewBarSeries_ExtraColumnsIgnored(t *testing.T) {
	tbl := table(nil, []float64{100, 101})
	tbl.Columns["turnover"] = []float64{5, 6}

	series, err := NewBarSeries(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Errorf("Len = %d, want 2", series.Len())
	}
}

func TestClosesReturnsCopy(t *testing.T) {
	tbl := table(nil, []float64{100, 101})
	series, err := NewBarSeries(tbl)
	if err != nil {
		t.Fatal(err)
	}

	closes := series.Closes()
	closes[0] = -1
	if series.At(0).Close != 100 {
		t.Error("mutating Closes() result changed the series")
	}
}
