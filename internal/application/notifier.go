package application

import (
	"context"
	"log/slog"

	"mysterybox/internal/streaming"
)

// LogNotifier writes acknowledgement events to the default logger. It is
// used when no event stream is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event streaming.AckEvent) error {
	attrs := []any{"kind", event.Kind, "tx_hash", event.TxHash, "sender_id", event.SenderID}
	switch {
	case event.Claim != nil:
		attrs = append(attrs, "box_id", event.Claim.BoxID, "rarity", event.Claim.Rarity, "reward", event.Claim.Reward.Kind)
	case event.QuestID != nil:
		attrs = append(attrs, "quest_id", *event.QuestID)
	case event.Title != "":
		attrs = append(attrs, "title", event.Title, "variant", event.Variant)
	}
	slog.InfoContext(ctx, "ack event", attrs...)
	return nil
}
