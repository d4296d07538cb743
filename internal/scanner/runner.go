// Package scanner runs the pattern detectors across a symbol universe.
//
// Each symbol is fetched and scanned independently on a bounded worker
// pool; the detectors are pure, so the only shared state is the result
// map. A symbol whose fetch fails or returns no data is skipped, never
// fatal to the batch.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"screener-systemv1/internal/detector"
	"screener-systemv1/internal/metrics"
	"screener-systemv1/internal/model"
)

// DataSource supplies daily bars for a symbol over a date range.
// A (nil, nil) return means no data is available for the symbol.
type DataSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) (*model.Table, error)
}

// Config tunes the universe scan.
type Config struct {
	// FetchWindowDays is the trailing calendar window fetched per symbol.
	// Must be strictly greater than every detector's Lookback.
	FetchWindowDays int

	// Workers bounds concurrent fetches, sized for the data provider's
	// rate limits, not for the detectors. Default 4.
	Workers int
}

// Runner scans a universe of symbols with a fixed detector set.
type Runner struct {
	src       DataSource
	detectors []detector.Detector
	metrics   *metrics.Metrics // optional
	cfg       Config
}

// NewRunner validates the fetch window against the detectors' lookbacks.
// m may be nil (tests).
func NewRunner(src DataSource, detectors []detector.Detector, m *metrics.Metrics, cfg Config) (*Runner, error) {
	if cfg.FetchWindowDays == 0 {
		cfg.FetchWindowDays = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	for _, d := range detectors {
		if cfg.FetchWindowDays <= d.Lookback() {
			return nil, fmt.Errorf("fetch window %d must exceed %s lookback %d",
				cfg.FetchWindowDays, d.Name(), d.Lookback())
		}
	}
	return &Runner{src: src, detectors: detectors, metrics: m, cfg: cfg}, nil
}

// ScanUniverse fetches a trailing bar window for every symbol as of the
// reference date, runs all detectors, and keeps only signals confirmed
// at the most recent bar. Symbols without such signals are absent from
// the result map.
func (r *Runner) ScanUniverse(ctx context.Context, universe []string, asOf time.Time) map[string][]model.Signal {
	start := time.Now()

	jobs := make(chan string)
	results := make(map[string][]model.Signal, len(universe))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				signals, err := r.scanSymbol(ctx, symbol, asOf)
				if err != nil {
					var schemaErr *model.SchemaError
					if errors.As(err, &schemaErr) {
						log.Printf("[scanner] %s: malformed bar table: %v", symbol, err)
					} else {
						log.Printf("[scanner] %s: skipped: %v", symbol, err)
					}
					if r.metrics != nil {
						r.metrics.FetchErrors.Inc()
					}
					continue
				}
				if r.metrics != nil {
					r.metrics.SymbolsScanned.Inc()
					for _, s := range signals {
						r.metrics.SignalsTotal.WithLabelValues(string(s.Kind)).Inc()
					}
				}
				if len(signals) > 0 {
					mu.Lock()
					results[symbol] = signals
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, symbol := range universe {
		select {
		case <-ctx.Done():
			// Stop feeding; in-flight symbols finish on their own.
			break feed
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	if r.metrics != nil {
		// A cancelled scan is partial; mark it so its duration sample
		// is not mistaken for a full-universe pass.
		if ctx.Err() != nil {
			r.metrics.ScansCancelled.Inc()
		}
		r.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
	return results
}

// scanSymbol fetches one symbol's trailing window and returns the
// signals confirmed at the final bar, ordered by detector then index.
func (r *Runner) scanSymbol(ctx context.Context, symbol string, asOf time.Time) ([]model.Signal, error) {
	from := asOf.AddDate(0, 0, -r.cfg.FetchWindowDays)
	table, err := r.src.DailyBars(ctx, symbol, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if table == nil || table.Len() == 0 {
		return nil, nil
	}

	series, err := model.NewBarSeries(table)
	if err != nil {
		return nil, err
	}

	last := series.Len() - 1
	var confirmed []model.Signal
	for _, d := range r.detectors {
		for _, s := range d.Scan(series) {
			if s.Index != last {
				continue
			}
			s.Symbol = symbol
			confirmed = append(confirmed, s)
		}
	}
	return confirmed, nil
}

// Symbols returns the result map's keys in ascending order. Handy for
// deterministic reporting over the unordered scan results.
func Symbols(results map[string][]model.Signal) []string {
	symbols := make([]string, 0, len(results))
	for s := range results {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
