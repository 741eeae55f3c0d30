package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/config"
	"mysterybox/internal/infrastructure/logging"
	"mysterybox/internal/infrastructure/telemetry"
	"mysterybox/internal/interfaces/httpapi"

	"github.com/segmentio/kafka-go"
)

var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/notifier.log"
	}
	rotating, err := logging.Init(logging.Config{
		Service:    "mysterybox-notifier",
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		slog.Error("logger init error", "err", err)
	} else if rotating != nil {
		defer rotating.Close()
	}

	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required for the notifier")
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "mysterybox-notifier",
		ServiceVersion: version,
		Endpoint:       cfg.OtelEndpoint,
	})
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	metrics := httpapi.NewMetrics()
	go serveMetrics(ctx, cfg.HTTPAddr, metrics)

	slog.Info("notifier started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	newConsumer(reader, application.LogNotifier{}, metrics).run(ctx)
	slog.Info("notifier stopped")
}

func serveMetrics(ctx context.Context, addr string, metrics *httpapi.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	slog.Info("metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server error", "err", err)
	}
}
