package streaming

import (
	"encoding/json"
	"errors"
	"time"

	"mysterybox/internal/domain"
)

type AckKind string

const (
	AckKindClaim        AckKind = "claim"
	AckKindQuestCreated AckKind = "quest_created"
	AckKindNotification AckKind = "notification"
)

func ParseAckKind(raw string) (AckKind, error) {
	switch AckKind(raw) {
	case "":
		return AckKindNotification, nil
	case AckKindClaim, AckKindQuestCreated, AckKindNotification:
		return AckKind(raw), nil
	}
	return "", errors.New("unknown ack kind")
}

// AckEvent is the single side effect emitted for an acknowledged transaction.
type AckEvent struct {
	Kind     AckKind             `json:"kind"`
	TxHash   string              `json:"tx_hash"`
	SenderID string              `json:"sender_id"`
	TraceID  string              `json:"trace_id,omitempty"`
	Method   string              `json:"method,omitempty"`
	Title    string              `json:"title,omitempty"`
	Variant  string              `json:"variant,omitempty"`
	Claim    *domain.ClaimReward `json:"claim,omitempty"`
	QuestID  *uint64             `json:"quest_id,omitempty"`
	At       time.Time           `json:"at"`
}

func Encode(event AckEvent) ([]byte, error) {
	if event.Kind == "" {
		return nil, errors.New("event kind is required")
	}
	if event.TxHash == "" {
		return nil, errors.New("tx_hash is required")
	}
	return json.Marshal(event)
}

func Decode(payload []byte) (AckEvent, error) {
	var event AckEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return AckEvent{}, err
	}
	if event.Kind == "" {
		return AckEvent{}, errors.New("event kind is missing")
	}
	if event.TxHash == "" {
		return AckEvent{}, errors.New("tx_hash is missing")
	}
	return event, nil
}
