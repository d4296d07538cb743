// Package provider is a minimal HTTP client for the broker's historical
// data API: TOTP-based session login plus daily candle retrieval. Only
// the endpoints the screener needs are wired.
//
// Usage example:
//
//	c := provider.NewClient(provider.Config{APIKey: "your_api_key"})
//	if err := c.GenerateSession("CLIENTID", "PASSWORD", totpCode); err != nil { log.Fatal(err) }
//	table, err := c.DailyBars(ctx, "NSE:SBIN-EQ", from, to)
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"screener-systemv1/internal/model"
)

const defaultRoot = "https://apiconnect.angelone.in"

var routes = map[string]string{
	"api.login":        "/rest/auth/angelbroking/user/v1/loginByPassword",
	"api.logout":       "/rest/secure/angelbroking/user/v1/logout",
	"api.token":        "/rest/auth/angelbroking/jwt/v1/generateTokens",
	"api.user.profile": "/rest/secure/angelbroking/user/v1/getProfile",
	"api.candle.data":  "/rest/secure/angelbroking/historical/v1/getCandleData",
	"api.search.scrip": "/rest/secure/angelbroking/order/v1/searchScrip",
}

// Config configures the provider client.
type Config struct {
	APIKey  string
	RootURL string        // default: https://apiconnect.angelone.in
	Timeout time.Duration // default: 7s
}

// Client talks to the broker's REST API. Not safe for concurrent use
// during login; DailyBars is safe once the session is established.
type Client struct {
	apiKey       string
	rootURL      string
	httpClient   *http.Client
	accessToken  string
	refreshToken string
	clientCode   string
}

// NewClient initializes the client.
func NewClient(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 7 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		rootURL:    strings.TrimRight(cfg.RootURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) requestHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-PrivateKey", c.apiKey)
	h.Set("X-UserType", "USER")
	h.Set("X-SourceID", "WEB")
	if c.accessToken != "" {
		h.Set("Authorization", "Bearer "+c.accessToken)
	}
	return h
}

func (c *Client) post(ctx context.Context, route string, params map[string]any) (map[string]any, error) {
	uri, ok := routes[route]
	if !ok {
		return nil, fmt.Errorf("unknown route: %s", route)
	}

	b, _ := json.Marshal(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rootURL+uri, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header = c.requestHeaders()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", route, err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: couldn't parse JSON response: %w", route, err)
	}
	if et, ok := out["error_type"].(string); ok && et != "" {
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("%s: %s", et, msg)
	}
	if st, ok := out["status"].(bool); ok && !st {
		msg, _ := out["message"].(string)
		return out, fmt.Errorf("%s: request failed: %s", route, msg)
	}
	return out, nil
}

// GenerateSession logs in with client code, password, and a fresh TOTP
// code, then stores the session tokens on the client.
func (c *Client) GenerateSession(clientCode, password, totp string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := c.post(ctx, "api.login", map[string]any{
		"clientcode": clientCode,
		"password":   password,
		"totp":       totp,
	})
	if err != nil {
		return err
	}

	data, ok := res["data"].(map[string]any)
	if !ok {
		return errors.New("unexpected login response format")
	}
	jwt, _ := data["jwtToken"].(string)
	refresh, _ := data["refreshToken"].(string)
	if jwt == "" {
		return errors.New("login response missing jwtToken")
	}

	c.accessToken = jwt
	c.refreshToken = refresh
	c.clientCode = clientCode
	log.Printf("[provider] session established for %s", clientCode)
	return nil
}

// TerminateSession logs the session out.
func (c *Client) TerminateSession() error {
	if c.clientCode == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.post(ctx, "api.logout", map[string]any{"clientcode": c.clientCode})
	return err
}

// DailyBars fetches ONE_DAY candles for a symbol over [start, end] and
// returns them as a column table. Symbols are "EXCHANGE:TOKEN"; a bare
// token defaults to NSE. A symbol with no candles returns (nil, nil).
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) (*model.Table, error) {
	exchange, token := "NSE", symbol
	if i := strings.IndexByte(symbol, ':'); i >= 0 {
		exchange, token = symbol[:i], symbol[i+1:]
	}

	res, err := c.post(ctx, "api.candle.data", map[string]any{
		"exchange":    exchange,
		"symboltoken": token,
		"interval":    "ONE_DAY",
		"fromdate":    start.Format("2006-01-02 09:15"),
		"todate":      end.Format("2006-01-02 15:30"),
	})
	if err != nil {
		return nil, err
	}

	rows, ok := res["data"].([]any)
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	return candlesToTable(rows)
}

// candlesToTable converts API rows [[date, o, h, l, c, v], ...] into a
// column table keyed by the canonical OHLCV names.
func candlesToTable(rows []any) (*model.Table, error) {
	t := &model.Table{
		Dates: make([]time.Time, 0, len(rows)),
		Columns: map[string][]float64{
			"open":   make([]float64, 0, len(rows)),
			"high":   make([]float64, 0, len(rows)),
			"low":    make([]float64, 0, len(rows)),
			"close":  make([]float64, 0, len(rows)),
			"volume": make([]float64, 0, len(rows)),
		},
	}

	for i, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) < 6 {
			return nil, fmt.Errorf("candle row %d: unexpected shape", i)
		}
		dateStr, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("candle row %d: date is not a string", i)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: parse date %q: %w", i, dateStr, err)
		}

		vals := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			f, ok := row[j].(float64)
			if !ok {
				return nil, fmt.Errorf("candle row %d: field %d is not a number", i, j)
			}
			vals[j-1] = f
		}

		t.Dates = append(t.Dates, date)
		t.Columns["open"] = append(t.Columns["open"], vals[0])
		t.Columns["high"] = append(t.Columns["high"], vals[1])
		t.Columns["low"] = append(t.Columns["low"], vals[2])
		t.Columns["close"] = append(t.Columns["close"], vals[3])
		t.Columns["volume"] = append(t.Columns["volume"], vals[4])
	}
	return t, nil
}

// SearchScrip resolves a human-readable symbol to its exchange token.
func (c *Client) SearchScrip(ctx context.Context, exchange, query string) (map[string]any, error) {
	return c.post(ctx, "api.search.scrip", map[string]any{
		"exchange":    exchange,
		"searchscrip": query,
	})
}
