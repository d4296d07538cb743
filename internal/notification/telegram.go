package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramConfig configures the Telegram alert backend.
type TelegramConfig struct {
	BotToken string        // Bot API token from @BotFather
	ChatID   string        // target chat/group/channel ID
	Timeout  time.Duration // HTTP timeout, default 10s
}

// TelegramNotifier delivers scan alerts via the Telegram Bot API,
// rendered as MarkdownV2.
type TelegramNotifier struct {
	cfg     TelegramConfig
	apiBase string // swapped for a local server in tests
	client  *http.Client
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TelegramNotifier{
		cfg:     cfg,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":    t.cfg.ChatID,
		"text":       formatAlert(alert),
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	url := t.apiBase + "/bot" + t.cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}

	log.Printf("[telegram] sent alert: %s", alert.Title)
	return nil
}

// formatAlert renders an alert as one MarkdownV2 message: severity
// marker, bold title, then the per-signal lines built by ScanAlert.
func formatAlert(alert Alert) string {
	marker := "ℹ️"
	switch alert.Level {
	case AlertWarning:
		marker = "⚠️"
	case AlertCritical:
		marker = "🚨"
	}
	return marker + " *" + escapeMarkdownV2(alert.Title) + "*\n\n" + escapeMarkdownV2(alert.Message)
}

// markdownV2Specials are the characters Telegram requires escaped
// outside code entities.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

func escapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(markdownV2Specials, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
