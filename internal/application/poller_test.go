package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAcknowledger struct {
	results []AckResult
	calls   int
}

func (s *scriptedAcknowledger) Acknowledge(ctx context.Context, hash, senderID string, effect Effect) AckResult {
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i]
}

func fastPolicy(attempts uint64) PollPolicy {
	return PollPolicy{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsed:      time.Second,
		MaxAttempts:     attempts,
	}
}

func TestPollerRetriesUntilAcknowledged(t *testing.T) {
	ack := &scriptedAcknowledger{results: []AckResult{
		{State: AckPending},
		{State: AckFailed, Err: errors.New("timeout")},
		{State: AckAcknowledged, Hash: "abc"},
	}}
	poller, err := NewPoller(ack, fastPolicy(5))
	require.NoError(t, err)

	result, err := poller.AwaitAcknowledgement(context.Background(), "abc", "alice.testnet", ClaimEffect{})
	require.NoError(t, err)
	assert.Equal(t, AckAcknowledged, result.State)
	assert.Equal(t, 3, ack.calls)
}

func TestPollerStopsOnAlreadyProcessed(t *testing.T) {
	ack := &scriptedAcknowledger{results: []AckResult{{State: AckAlreadyProcessed}}}
	poller, err := NewPoller(ack, fastPolicy(5))
	require.NoError(t, err)

	result, err := poller.AwaitAcknowledgement(context.Background(), "abc", "alice.testnet", nil)
	require.NoError(t, err)
	assert.Equal(t, AckAlreadyProcessed, result.State)
	assert.Equal(t, 1, ack.calls)
}

func TestPollerGivesUpAfterMaxAttempts(t *testing.T) {
	ack := &scriptedAcknowledger{results: []AckResult{{State: AckPending}}}
	poller, err := NewPoller(ack, fastPolicy(3))
	require.NoError(t, err)

	result, err := poller.AwaitAcknowledgement(context.Background(), "abc", "alice.testnet", nil)
	assert.ErrorIs(t, err, ErrStillPending)
	assert.Equal(t, AckPending, result.State)
	assert.Equal(t, 3, ack.calls)
}

func TestPollerHonorsContext(t *testing.T) {
	ack := &scriptedAcknowledger{results: []AckResult{{State: AckPending}}}
	poller, err := NewPoller(ack, PollPolicy{InitialInterval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = poller.AwaitAcknowledgement(ctx, "abc", "alice.testnet", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPollerRequiresAcknowledger(t *testing.T) {
	_, err := NewPoller(nil, PollPolicy{})
	assert.Error(t, err)
}
