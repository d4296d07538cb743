package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"screener-systemv1/config"
	"screener-systemv1/internal/detector"
	"screener-systemv1/internal/gateway"
	"screener-systemv1/internal/logger"
	"screener-systemv1/internal/metrics"
	"screener-systemv1/internal/notification"
	"screener-systemv1/internal/report"
	"screener-systemv1/internal/scanner"
	redisstore "screener-systemv1/internal/store/redis"
	sqlitestore "screener-systemv1/internal/store/sqlite"
	"screener-systemv1/pkg/provider"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	slogger := logger.Init("screener", slog.LevelInfo)

	cfg := config.Load()
	universe := cfg.ParseUniverse()
	if len(universe) == 0 {
		log.Fatal("[screener] UNIVERSE is empty, nothing to scan")
	}
	slogger.Info("starting", "universe", len(universe), "fetch_window_days", cfg.FetchWindowDays)

	// Provider login: TOTP codes are time-boxed, generate at startup
	src := provider.NewClient(provider.Config{
		APIKey:  cfg.ProviderAPIKey,
		RootURL: cfg.ProviderRootURL,
	})
	totpCode, err := totp.GenerateCode(cfg.ProviderTOTPSecret, time.Now())
	if err != nil {
		log.Fatalf("[screener] totp generate failed: %v", err)
	}
	if err := src.GenerateSession(cfg.ProviderClientCode, cfg.ProviderPassword, totpCode); err != nil {
		log.Fatalf("[screener] provider login failed: %v", err)
	}
	defer src.TerminateSession()

	// Stores
	journal, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[screener] sqlite init failed: %v", err)
	}
	defer journal.Close()

	publisher, err := redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("[screener] redis init failed: %v", err)
	}
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received")
		cancel()
	}()

	// Metrics + health
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.StartLivenessChecker(ctx, publisher.Client(), journal.DB(), 15*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Stop(shutdownCtx)
		shutdownCancel()
	}()

	// WebSocket fan-out for dashboards
	hub := gateway.NewHub()
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", hub.HandleWS)
		log.Printf("[gateway] listening on %s", cfg.GatewayAddr)
		if err := http.ListenAndServe(cfg.GatewayAddr, mux); err != nil {
			log.Printf("[gateway] server error: %v", err)
		}
	}()

	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notification.NewTelegramNotifier(notification.TelegramConfig{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
		})
	}

	detectors := []detector.Detector{
		detector.NewShadowDetector(detector.DefaultShadowConfig(detector.TailLower)),
		detector.NewShadowDetector(detector.DefaultShadowConfig(detector.TailUpper)),
		detector.NewDivergenceDetector(detector.DefaultDivergenceConfig()),
	}

	runner, err := scanner.NewRunner(src, detectors, m, scanner.Config{
		FetchWindowDays: cfg.FetchWindowDays,
		Workers:         cfg.Workers,
	})
	if err != nil {
		log.Fatalf("[screener] runner init failed: %v", err)
	}

	scan := func() {
		asOf := time.Now()
		scanID := logger.GenerateScanID(asOf, time.Now())
		scanCtx := logger.WithScanID(ctx, scanID)

		results := runner.ScanUniverse(scanCtx, universe, asOf)
		m.ScansTotal.Inc()
		slogger.Info("scan complete", append([]any{
			"symbols_with_signals", len(results),
		}, logger.LogWithScan(scanCtx)...)...)

		if err := report.Write(os.Stdout, results); err != nil {
			log.Printf("[screener] report error: %v", err)
		}

		ok := true
		if err := journal.SaveScan(scanID, asOf, results); err != nil {
			log.Printf("[screener] journal error: %v", err)
			ok = false
		}
		if err := publisher.PublishScan(scanCtx, scanID, asOf, results); err != nil {
			log.Printf("[screener] publish error: %v", err)
			ok = false
		}
		hub.BroadcastScan(scanID, asOf, results)

		if alert, send := notification.ScanAlert(asOf.Format("2006-01-02"), results); send {
			if err := notifier.Send(scanCtx, alert); err != nil {
				log.Printf("[screener] notify error: %v", err)
			}
		}
		health.SetLastScan(asOf, ok)
	}

	scan()
	if cfg.ScanEvery <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.ScanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slogger.Info("stopped")
			return
		case <-ticker.C:
			scan()
		}
	}
}
