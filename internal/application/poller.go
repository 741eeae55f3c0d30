package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrStillPending = errors.New("transaction has no success value yet")

type Acknowledger interface {
	Acknowledge(ctx context.Context, hash, senderID string, effect Effect) AckResult
}

type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
	MaxAttempts     uint64
}

// Poller retries Acknowledge with exponential backoff until the hash is
// processed, the attempts run out or ctx is done.
type Poller struct {
	acknowledger Acknowledger
	policy       PollPolicy
}

func NewPoller(acknowledger Acknowledger, policy PollPolicy) (*Poller, error) {
	if acknowledger == nil {
		return nil, errors.New("acknowledger is required")
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = time.Second
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = 30 * time.Second
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &Poller{acknowledger: acknowledger, policy: policy}, nil
}

func (p *Poller) AwaitAcknowledgement(ctx context.Context, hash, senderID string, effect Effect) (AckResult, error) {
	var (
		last     AckResult
		attempts int
	)
	operation := func() error {
		attempts++
		last = p.acknowledger.Acknowledge(ctx, hash, senderID, effect)
		switch last.State {
		case AckAcknowledged, AckAlreadyProcessed:
			return nil
		case AckPending:
			return ErrStillPending
		default:
			if last.Err != nil {
				return last.Err
			}
			return errors.New("acknowledge failed")
		}
	}
	notify := func(err error, wait time.Duration) {
		slog.Info("acknowledge retry scheduled", "tx_hash", hash, "attempt", attempts, "wait", wait, "reason", err)
	}

	if err := backoff.RetryNotify(operation, p.newBackOff(ctx), notify); err != nil {
		return last, err
	}
	return last, nil
}

func (p *Poller) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.policy.InitialInterval
	exp.MaxInterval = p.policy.MaxInterval
	exp.MaxElapsedTime = p.policy.MaxElapsed
	exp.Reset()

	var b backoff.BackOff = exp
	if p.policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, p.policy.MaxAttempts-1)
	}
	return backoff.WithContext(b, ctx)
}
