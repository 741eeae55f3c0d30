package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/config"
	"mysterybox/internal/infrastructure/kafka"
	"mysterybox/internal/infrastructure/logging"
	"mysterybox/internal/infrastructure/nearrpc"
	"mysterybox/internal/infrastructure/storage"
	"mysterybox/internal/infrastructure/telemetry"
	"mysterybox/internal/interfaces/httpapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/tracker.log"
	}
	rotating, err := logging.Init(logging.Config{
		Service:    "mysterybox-tracker",
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		slog.Error("logger init error", "err", err)
	} else if rotating != nil {
		defer rotating.Close()
		reopenOnHangup(rotating)
	}

	shutdownTracing, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "mysterybox-tracker",
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

	store, err := storage.Open(cfg)
	if err != nil {
		slog.Error("hash store error", "store", cfg.HashStore, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	metrics := httpapi.NewMetrics()

	rpcClient, err := nearrpc.NewClient(nearrpc.Config{
		URL:      cfg.RPCURL,
		Timeout:  cfg.RPCTimeout,
		Observer: metrics,
	})
	if err != nil {
		slog.Error("rpc error", "err", err)
		os.Exit(1)
	}

	var notifier application.Notifier = application.LogNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Observer: metrics,
		})
		if err != nil {
			slog.Error("kafka error", "err", err)
			os.Exit(1)
		}
		defer producer.Close()
		notifier = producer
	} else {
		slog.Info("KAFKA_BROKERS not set, ack events go to the log")
	}

	tracker, err := application.NewTracker(store, rpcClient, notifier, metrics)
	if err != nil {
		slog.Error("tracker error", "err", err)
		os.Exit(1)
	}

	var quests httpapi.QuestViews
	if cfg.ContractID != "" {
		reader, err := application.NewQuestReader(rpcClient, cfg.ContractID)
		if err != nil {
			slog.Error("quest reader error", "err", err)
			os.Exit(1)
		}
		quests = reader
	} else {
		slog.Info("CONTRACT_ID not set, quest views disabled")
	}

	httpServer, err := httpapi.NewServer(tracker, quests, store, rpcClient, metrics, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("tracker started", "addr", cfg.HTTPAddr, "store", cfg.HashStore, "kafka", len(cfg.KafkaBrokers) > 0)
	if err := httpServer.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("http server error", "err", err)
		cancel()
	}
	slog.Info("tracker stopped")
}

func reopenOnHangup(writer *logging.RotatingWriter) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	go func() {
		for range hangup {
			if err := writer.Rotate(); err != nil {
				slog.Warn("log rotate error", "err", err)
			}
		}
	}()
}
