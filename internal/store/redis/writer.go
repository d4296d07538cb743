package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"screener-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: daily signals are sparse, a year of history is cheap
	signalStreamMaxLen = 500
	defaultLatestTTL   = 48 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes confirmed signals and scan summaries to Redis.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// PublishScan writes one scan's confirmed signals in a single pipeline:
// SET latest + XADD history + PUBLISH per signal, plus a scan summary key.
func (w *Writer) PublishScan(ctx context.Context, scanID string, asOf time.Time, results map[string][]model.Signal) error {
	pipe := w.client.Pipeline()

	total := 0
	for symbol, signals := range results {
		for _, s := range signals {
			jsonData := string(s.JSON())

			// SET latest signal per symbol+kind with TTL
			latestKey := "signal:latest:" + symbol + ":" + string(s.Kind)
			pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)

			// XADD to per-symbol signal stream with auto-trimming
			pipe.XAdd(ctx, &goredis.XAddArgs{
				Stream: "signals:" + symbol,
				MaxLen: signalStreamMaxLen,
				Approx: true,
				Values: map[string]interface{}{
					"data": jsonData,
				},
			})

			// PUBLISH for real-time subscribers
			pipe.Publish(ctx, "pub:signal:"+symbol, jsonData)
			total++
		}
	}

	summary, err := json.Marshal(struct {
		ScanID  string `json:"scan_id"`
		AsOf    string `json:"as_of"`
		Symbols int    `json:"symbols"`
		Signals int    `json:"signals"`
	}{scanID, asOf.Format("2006-01-02"), len(results), total})
	if err != nil {
		return fmt.Errorf("marshal scan summary: %w", err)
	}
	pipe.Set(ctx, "scan:latest", string(summary), defaultLatestTTL)
	pipe.Publish(ctx, "pub:scan", string(summary))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis scan pipeline (%d signals): %w", total, err)
	}
	log.Printf("[redis] published %d signals for scan %s", total, scanID)
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
