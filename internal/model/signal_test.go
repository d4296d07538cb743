package model

import (
	"strings"
	"testing"
	"time"
)

func TestSignalJSON_KeepsZeroEvidence(t *testing.T) {
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	// Doji tail: open equals close, so body is exactly 0.
	tail := Signal{
		Symbol:      "AAA",
		Kind:        KindLowerTail,
		Date:        date,
		Index:       9,
		Body:        0,
		LowerShadow: 2,
		UpperShadow: 0.25,
		FullRange:   2.25,
		Open:        10,
		Close:       10,
	}
	out := string(tail.JSON())
	if !strings.Contains(out, `"body":0`) {
		t.Errorf("zero body dropped from JSON: %s", out)
	}
	if !strings.Contains(out, `"upper_shadow":0.25`) {
		t.Errorf("upper_shadow missing: %s", out)
	}

	div := Signal{
		Symbol: "AAA",
		Kind:   KindBullishDivergence,
		Date:   date,
		Index:  20,
		Price1: 90,
		Price2: 85,
		Hist1:  0,
		Hist2:  0.5,
	}
	out = string(div.JSON())
	if !strings.Contains(out, `"hist1":0,`) {
		t.Errorf("zero hist1 dropped from JSON: %s", out)
	}
}
