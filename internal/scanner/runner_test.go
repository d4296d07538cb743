package scanner

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"screener-systemv1/internal/detector"
	"screener-systemv1/internal/metrics"
	"screener-systemv1/internal/model"
)

// fakeSource serves canned tables per symbol; a nil entry means no data.
type fakeSource struct {
	tables map[string]*model.Table
	errs   map[string]error
}

func (f *fakeSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) (*model.Table, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.tables[symbol], nil
}

// markLast emits one signal at every index; only the final one should
// survive the runner's confirmation filter.
type markLast struct{}

func (markLast) Name() string  { return "mark_last" }
func (markLast) Lookback() int { return 1 }
func (markLast) Scan(series model.BarSeries) []model.Signal {
	var out []model.Signal
	for i := 0; i < series.Len(); i++ {
		out = append(out, model.Signal{
			Kind:  model.KindLowerTail,
			Date:  series.At(i).Date,
			Index: i,
		})
	}
	return out
}

func barsTable(n int) *model.Table {
	tbl := &model.Table{Columns: map[string][]float64{}}
	for _, col := range model.RequiredColumns {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = 100 + float64(i)
		}
		tbl.Columns[col] = vals
	}
	return tbl
}

func newTestRunner(t *testing.T, src DataSource) *Runner {
	t.Helper()
	r, err := NewRunner(src, []detector.Detector{markLast{}}, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestScanUniverse_KeepsOnlyFinalBarSignals(t *testing.T) {
	src := &fakeSource{tables: map[string]*model.Table{"AAA": barsTable(5)}}
	r := newTestRunner(t, src)

	results := r.ScanUniverse(context.Background(), []string{"AAA"}, time.Now())

	signals := results["AAA"]
	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	if signals[0].Index != 4 {
		t.Errorf("Index = %d, want 4", signals[0].Index)
	}
	if signals[0].Symbol != "AAA" {
		t.Errorf("Symbol = %q, want AAA", signals[0].Symbol)
	}
}

func TestScanUniverse_SkipsFailedAndEmptySymbols(t *testing.T) {
	src := &fakeSource{
		tables: map[string]*model.Table{
			"GOOD":  barsTable(3),
			"EMPTY": nil,
		},
		errs: map[string]error{"BAD": errors.New("provider down")},
	}
	r := newTestRunner(t, src)

	results := r.ScanUniverse(context.Background(), []string{"GOOD", "BAD", "EMPTY"}, time.Now())

	if got := Symbols(results); !reflect.DeepEqual(got, []string{"GOOD"}) {
		t.Errorf("Symbols = %v, want [GOOD]", got)
	}
}

func TestScanUniverse_MalformedTableSkipped(t *testing.T) {
	tbl := barsTable(3)
	delete(tbl.Columns, "high")
	src := &fakeSource{tables: map[string]*model.Table{
		"BROKEN": tbl,
		"GOOD":   barsTable(3),
	}}
	r := newTestRunner(t, src)

	results := r.ScanUniverse(context.Background(), []string{"BROKEN", "GOOD"}, time.Now())
	if _, ok := results["BROKEN"]; ok {
		t.Error("malformed symbol produced signals")
	}
	if _, ok := results["GOOD"]; !ok {
		t.Error("healthy symbol missing from results")
	}
}

func TestNewRunner_RejectsShortFetchWindow(t *testing.T) {
	d := detector.NewDivergenceDetector(detector.DefaultDivergenceConfig())
	_, err := NewRunner(&fakeSource{}, []detector.Detector{d}, nil, Config{FetchWindowDays: 10})
	if err == nil {
		t.Fatal("expected error for fetch window below detector lookback")
	}
}

// readMetric dumps a counter or histogram into its protobuf form.
func readMetric(t *testing.T, m interface{ Write(*dto.Metric) error }) *dto.Metric {
	t.Helper()
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatal(err)
	}
	return &pb
}

func TestScanUniverse_CancellationIsObservedInMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	r, err := NewRunner(&fakeSource{}, []detector.Detector{markLast{}}, m, Config{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.ScanUniverse(ctx, []string{"AAA", "BBB"}, time.Now())
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}

	if got := readMetric(t, m.ScansCancelled).GetCounter().GetValue(); got != 1 {
		t.Errorf("cancelled scans = %v, want 1", got)
	}
	if got := readMetric(t, m.ScanDuration).GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("duration samples = %v, want 1", got)
	}
}

func TestSymbols_Sorted(t *testing.T) {
	results := map[string][]model.Signal{
		"ZZZ": nil, "AAA": nil, "MMM": nil,
	}
	if got := Symbols(results); !reflect.DeepEqual(got, []string{"AAA", "MMM", "ZZZ"}) {
		t.Errorf("Symbols = %v", got)
	}
}
