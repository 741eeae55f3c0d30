package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mysterybox/internal/domain"
	"mysterybox/internal/streaming"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ProcessedHashSet is the persistent seen-set of acknowledged transactions.
// MarkProcessed reports false when the hash was already present.
type ProcessedHashSet interface {
	IsProcessed(ctx context.Context, hash string) (bool, error)
	MarkProcessed(ctx context.Context, hash string) (bool, error)
}

type OutcomeSource interface {
	FetchOutcome(ctx context.Context, hash, senderID string) (RawResponse, error)
}

type Notifier interface {
	Notify(ctx context.Context, event streaming.AckEvent) error
}

type AckObserver interface {
	OnAcknowledge(kind streaming.AckKind, state AckState)
}

type AckState string

const (
	AckAlreadyProcessed AckState = "already_processed"
	AckPending          AckState = "pending"
	AckAcknowledged     AckState = "acknowledged"
	AckFailed           AckState = "failed"
)

type AckResult struct {
	Hash    string
	State   AckState
	Outcome *domain.Outcome
	Event   *streaming.AckEvent
	Err     error
}

// Done reports whether the hash needs no further attempts.
func (r AckResult) Done() bool {
	return r.State == AckAcknowledged || r.State == AckAlreadyProcessed
}

type Tracker struct {
	store    ProcessedHashSet
	source   OutcomeSource
	notifier Notifier
	observer AckObserver
	now      func() time.Time
	// notifyBackOff bounds redelivery of an event whose hash is already marked.
	notifyBackOff func() backoff.BackOff
}

func NewTracker(store ProcessedHashSet, source OutcomeSource, notifier Notifier, observer AckObserver) (*Tracker, error) {
	if store == nil || source == nil || notifier == nil {
		return nil, errors.New("tracker dependencies must not be nil")
	}
	return &Tracker{
		store:         store,
		source:        source,
		notifier:      notifier,
		observer:      observer,
		now:           time.Now,
		notifyBackOff: defaultNotifyBackOff,
	}, nil
}

func defaultNotifyBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(exp, 4)
}

func (t *Tracker) IsAlreadyProcessed(ctx context.Context, hash string) bool {
	if hash == "" {
		return false
	}
	processed, err := t.store.IsProcessed(ctx, hash)
	if err != nil {
		slog.Warn("processed lookup failed", "tx_hash", hash, "err", err)
		return false
	}
	return processed
}

// Acknowledge turns a transaction hash into at most one side effect. Errors
// are logged and reported in the result; the hash then stays unmarked so a
// later call can retry.
func (t *Tracker) Acknowledge(ctx context.Context, hash, senderID string, effect Effect) AckResult {
	if effect == nil {
		effect = NotificationEffect{}
	}
	ctx, span := otel.Tracer("mysterybox/tracker").Start(ctx, "tracker.acknowledge")
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.hash", hash),
		attribute.String("tx.sender", senderID),
		attribute.String("ack.kind", string(effect.Kind())),
	)

	result := t.acknowledge(ctx, hash, senderID, effect)
	span.SetAttributes(attribute.String("ack.state", string(result.State)))
	if result.Err != nil {
		span.RecordError(result.Err)
		if result.State == AckFailed {
			span.SetStatus(codes.Error, result.Err.Error())
		}
	}
	if t.observer != nil {
		t.observer.OnAcknowledge(effect.Kind(), result.State)
	}
	return result
}

func (t *Tracker) acknowledge(ctx context.Context, hash, senderID string, effect Effect) AckResult {
	if hash == "" {
		return t.fail(hash, errors.New("tx hash is required"))
	}
	if t.IsAlreadyProcessed(ctx, hash) {
		return AckResult{Hash: hash, State: AckAlreadyProcessed}
	}

	response, err := t.source.FetchOutcome(ctx, hash, senderID)
	if err != nil {
		return t.fail(hash, err)
	}
	outcome, err := DecodeOutcome(response)
	if err != nil {
		return t.fail(hash, err)
	}
	if outcome == nil {
		slog.Debug("transaction has no success value yet", "tx_hash", hash)
		return AckResult{Hash: hash, State: AckPending}
	}
	if outcome.Receipt.Hash == "" {
		outcome.Receipt.Hash = hash
	}
	if outcome.Receipt.SenderID == "" {
		outcome.Receipt.SenderID = senderID
	}

	marked, err := t.store.MarkProcessed(ctx, hash)
	if err != nil {
		return t.fail(hash, err)
	}
	if !marked {
		return AckResult{Hash: hash, State: AckAlreadyProcessed, Outcome: outcome}
	}

	// The mark stands even when the outcome does not fit this call site.
	result := AckResult{Hash: hash, State: AckAcknowledged, Outcome: outcome}
	event, show, err := effect.Build(outcome)
	if err != nil {
		slog.Warn("outcome does not match effect", "tx_hash", hash, "kind", effect.Kind(), "err", err)
		result.Err = err
		return result
	}
	if !show {
		slog.Info("transaction acknowledged without notification", "tx_hash", hash, "method", outcome.Receipt.Method)
		return result
	}

	event.TxHash = hash
	event.SenderID = senderID
	event.At = t.now().UTC()
	result.Event = &event
	if err := t.notify(ctx, event); err != nil {
		slog.Error("ack notification failed", "tx_hash", hash, "kind", event.Kind, "err", err)
		result.Err = err
		return result
	}
	slog.Info("transaction acknowledged", "tx_hash", hash, "kind", event.Kind)
	return result
}

func (t *Tracker) notify(ctx context.Context, event streaming.AckEvent) error {
	operation := func() error {
		return t.notifier.Notify(ctx, event)
	}
	onRetry := func(err error, wait time.Duration) {
		slog.Warn("ack notification retry", "tx_hash", event.TxHash, "wait", wait, "err", err)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(t.notifyBackOff(), ctx), onRetry)
}

func (t *Tracker) fail(hash string, err error) AckResult {
	slog.Warn("caught error during fetch tx result", "tx_hash", hash, "err", err)
	return AckResult{Hash: hash, State: AckFailed, Err: err}
}
