package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mysterybox/internal/application"
	"mysterybox/internal/infrastructure/telemetry"
	"mysterybox/internal/streaming"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type consumeMetrics interface {
	OnConsumed(kind streaming.AckKind)
	IncConsumeErr(stage string)
}

// consumer delivers each event before committing its offset. A failed
// delivery is retried on the same message until it succeeds or ctx ends.
type consumer struct {
	reader  messageReader
	sink    application.Notifier
	metrics consumeMetrics
	retry   func() backoff.BackOff
}

func newConsumer(reader messageReader, sink application.Notifier, metrics consumeMetrics) *consumer {
	return &consumer{reader: reader, sink: sink, metrics: metrics, retry: deliveryBackOff}
}

func deliveryBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	return exp
}

func (c *consumer) run(ctx context.Context) {
	var delivered uint64
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			c.metrics.IncConsumeErr("fetch")
			slog.Error("kafka fetch error", "err", err)
			continue
		}

		event, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Error("message decode error", "offset", message.Offset, "err", err)
			c.metrics.IncConsumeErr("decode")
			c.commit(ctx, message)
			continue
		}

		if err := c.deliver(ctx, message, event); err != nil {
			// Only cancellation ends the retry; the offset stays uncommitted.
			return
		}

		delivered++
		c.metrics.OnConsumed(event.Kind)
		if delivered%100 == 0 {
			slog.Info("notifier stats", "delivered", delivered, "last_tx", event.TxHash, "lag", time.Since(message.Time))
		}
		c.commit(ctx, message)
	}
}

func (c *consumer) deliver(ctx context.Context, message kafka.Message, event streaming.AckEvent) error {
	messageCtx := telemetry.ExtractKafkaHeaders(ctx, message.Headers)
	if !trace.SpanContextFromContext(messageCtx).IsValid() && event.TraceID != "" {
		if withTrace, ok := telemetry.ContextWithTraceID(messageCtx, event.TraceID); ok {
			messageCtx = withTrace
		}
	}
	messageCtx, span := otel.Tracer("mysterybox/notifier").Start(messageCtx, "notifier.deliver", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("ack.kind", string(event.Kind)),
		attribute.String("tx.hash", event.TxHash),
		attribute.Int64("messaging.offset", message.Offset),
	)

	operation := func() error {
		return c.sink.Notify(messageCtx, event)
	}
	onRetry := func(err error, wait time.Duration) {
		c.metrics.IncConsumeErr("deliver")
		slog.Warn("deliver error", "tx_hash", event.TxHash, "offset", message.Offset, "wait", wait, "err", err)
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(c.retry(), ctx), onRetry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		slog.Error("kafka commit error", "offset", message.Offset, "err", err)
		c.metrics.IncConsumeErr("commit")
	}
}
