package application

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"mysterybox/internal/domain"
	"mysterybox/internal/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifierWritesClaim(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	err := LogNotifier{}.Notify(context.Background(), streaming.AckEvent{
		Kind:     streaming.AckKindClaim,
		TxHash:   "abc123",
		SenderID: "alice.testnet",
		Claim: &domain.ClaimReward{
			BoxID:  4,
			Rarity: domain.RarityRare,
			Reward: domain.Reward{Kind: "near", Amount: "1"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tx_hash=abc123")
	assert.Contains(t, buf.String(), "rarity=rare")
}
