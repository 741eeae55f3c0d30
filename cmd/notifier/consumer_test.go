package main

import (
	"context"
	"errors"
	"testing"

	"mysterybox/internal/streaming"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueReader struct {
	messages  []kafka.Message
	committed []int64
	done      context.CancelFunc
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.done()
		return kafka.Message{}, context.Canceled
	}
	message := r.messages[0]
	r.messages = r.messages[1:]
	return message, nil
}

func (r *queueReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

type flakySink struct {
	failures  int
	attempts  map[string]int
	delivered []string
}

func (s *flakySink) Notify(ctx context.Context, event streaming.AckEvent) error {
	if s.attempts == nil {
		s.attempts = make(map[string]int)
	}
	s.attempts[event.TxHash]++
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.delivered = append(s.delivered, event.TxHash)
	return nil
}

type stageCounter struct {
	consumed map[streaming.AckKind]int
	errs     map[string]int
}

func newStageCounter() *stageCounter {
	return &stageCounter{consumed: map[streaming.AckKind]int{}, errs: map[string]int{}}
}

func (s *stageCounter) OnConsumed(kind streaming.AckKind) { s.consumed[kind]++ }
func (s *stageCounter) IncConsumeErr(stage string)        { s.errs[stage]++ }

func ackMessage(t *testing.T, offset int64, hash string) kafka.Message {
	t.Helper()
	payload, err := streaming.Encode(streaming.AckEvent{Kind: streaming.AckKindClaim, TxHash: hash, SenderID: "alice.testnet"})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(hash), Value: payload}
}

func TestConsumerRetriesFailedDeliveryBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &queueReader{
		messages: []kafka.Message{ackMessage(t, 10, "h1"), ackMessage(t, 11, "h2")},
		done:     cancel,
	}
	sink := &flakySink{failures: 2}
	metrics := newStageCounter()

	c := newConsumer(reader, sink, metrics)
	c.retry = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	c.run(ctx)

	assert.Equal(t, []string{"h1", "h2"}, sink.delivered)
	assert.Equal(t, 3, sink.attempts["h1"])
	assert.Equal(t, 1, sink.attempts["h2"])
	assert.Equal(t, []int64{10, 11}, reader.committed)
	assert.Equal(t, 2, metrics.errs["deliver"])
	assert.Equal(t, 2, metrics.consumed[streaming.AckKindClaim])
}

func TestConsumerCommitsUndecodableMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &queueReader{
		messages: []kafka.Message{{Offset: 3, Value: []byte(`{"kind":""}`)}, ackMessage(t, 4, "h4")},
		done:     cancel,
	}
	sink := &flakySink{}
	metrics := newStageCounter()

	newConsumer(reader, sink, metrics).run(ctx)

	assert.Equal(t, []string{"h4"}, sink.delivered)
	assert.Equal(t, []int64{3, 4}, reader.committed)
	assert.Equal(t, 1, metrics.errs["decode"])
}

func TestConsumerLeavesOffsetOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &queueReader{messages: []kafka.Message{ackMessage(t, 7, "h7")}, done: cancel}
	sink := &flakySink{failures: 1 << 30}
	metrics := newStageCounter()

	c := newConsumer(reader, sink, metrics)
	c.retry = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	cancel()
	c.run(ctx)

	assert.Empty(t, sink.delivered)
	assert.Empty(t, reader.committed)
}
