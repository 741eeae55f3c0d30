package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"mysterybox/internal/infrastructure/telemetry"
	"mysterybox/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes acknowledgement events, one message per hash.
type Producer struct {
	writer   messageWriter
	topic    string
	observer PublishObserver
}

type PublishObserver interface {
	OnPublished(kind streaming.AckKind, err error)
}

type ProducerConfig struct {
	Brokers  []string
	Topic    string
	Observer PublishObserver
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = "mysterybox-acks"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: writer, topic: cfg.Topic, observer: cfg.Observer}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) Notify(ctx context.Context, event streaming.AckEvent) (err error) {
	ctx, span := otel.Tracer("mysterybox/kafka").Start(ctx, "tracker.publish_ack", trace.WithSpanKind(trace.SpanKindProducer))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if p.observer != nil {
			p.observer.OnPublished(event.Kind, err)
		}
	}()
	span.SetAttributes(
		attribute.String("ack.kind", string(event.Kind)),
		attribute.String("tx.hash", event.TxHash),
		attribute.String("messaging.destination", p.topic),
	)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		event.TraceID = spanCtx.TraceID().String()
	}
	payload, err := streaming.Encode(event)
	if err != nil {
		return err
	}
	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(ctx, &headers)
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.TxHash),
		Value:   payload,
		Headers: headers,
	})
}
