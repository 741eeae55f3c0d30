package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/config"
	"mysterybox/internal/infrastructure/kafka"
	"mysterybox/internal/infrastructure/logging"
	"mysterybox/internal/infrastructure/nearrpc"
	"mysterybox/internal/infrastructure/storage"

	"github.com/spf13/cobra"
)

var (
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "ackctl",
		Short:         "Acknowledge Mystery Box transactions from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Init(logging.Config{Service: "ackctl", Level: logLevel})
			return err
		},
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(statusCmd)
}

// session holds the collaborators a command needs; close releases them.
type session struct {
	cfg     config.Config
	tracker *application.Tracker
	close   func()
}

func openSession() (*session, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open hash store: %w", err)
	}
	rpcClient, err := nearrpc.NewClient(nearrpc.Config{URL: cfg.RPCURL, Timeout: cfg.RPCTimeout})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	closers := []func() error{store.Close}
	var notifier application.Notifier = application.LogNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		notifier = producer
		closers = append(closers, producer.Close)
	}

	tracker, err := application.NewTracker(store, rpcClient, notifier, nil)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		tracker: tracker,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
		},
	}, nil
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
