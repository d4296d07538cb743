// Package notification provides alert delivery to external channels
// (Telegram, Discord, webhooks, etc.) for scan events.
package notification

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"screener-systemv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// ScanAlert builds a per-scan summary alert listing every confirmed signal.
// Returns false when the scan produced nothing worth sending.
func ScanAlert(asOf string, results map[string][]model.Signal) (Alert, bool) {
	total := 0
	var b strings.Builder
	for _, symbol := range sortedKeys(results) {
		for _, s := range results[symbol] {
			fmt.Fprintf(&b, "%s %s: %s @ %s\n", kindMarker(s.Kind), symbol, s.Kind, s.Date.Format("2006-01-02"))
			total++
		}
	}
	if total == 0 {
		return Alert{}, false
	}
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("Scan %s: %d signal(s)", asOf, total),
		Message: strings.TrimRight(b.String(), "\n"),
	}, true
}

// kindMarker maps a signal kind to the direction marker shown in alerts.
func kindMarker(k model.SignalKind) string {
	switch k {
	case model.KindLowerTail, model.KindBullishDivergence:
		return "📈"
	case model.KindUpperTail, model.KindBearishDivergence:
		return "📉"
	}
	return "•"
}

func sortedKeys(results map[string][]model.Signal) []string {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
