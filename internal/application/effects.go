package application

import (
	"fmt"

	"mysterybox/internal/domain"
	"mysterybox/internal/streaming"
)

// Effect converts a decoded outcome into the event shown for one call site.
// show=false acknowledges the transaction without any visible effect.
type Effect interface {
	Kind() streaming.AckKind
	Build(outcome *domain.Outcome) (event streaming.AckEvent, show bool, err error)
}

func EffectFor(kind streaming.AckKind) (Effect, error) {
	switch kind {
	case streaming.AckKindClaim:
		return ClaimEffect{}, nil
	case streaming.AckKindQuestCreated:
		return QuestCreatedEffect{}, nil
	case streaming.AckKindNotification:
		return NotificationEffect{}, nil
	}
	return nil, fmt.Errorf("unknown ack kind %q", kind)
}

// ClaimEffect drives the claim animation from the [box_id, rarity, reward]
// tuple returned by claim.
type ClaimEffect struct{}

func (ClaimEffect) Kind() streaming.AckKind { return streaming.AckKindClaim }

func (ClaimEffect) Build(outcome *domain.Outcome) (streaming.AckEvent, bool, error) {
	claim, err := outcome.Claim()
	if err != nil {
		return streaming.AckEvent{}, false, err
	}
	return streaming.AckEvent{
		Kind:   streaming.AckKindClaim,
		Method: outcome.Receipt.Method,
		Claim:  &claim,
	}, true, nil
}

type QuestCreatedEffect struct{}

func (QuestCreatedEffect) Kind() streaming.AckKind { return streaming.AckKindQuestCreated }

func (QuestCreatedEffect) Build(outcome *domain.Outcome) (streaming.AckEvent, bool, error) {
	id, err := outcome.QuestID()
	if err != nil {
		return streaming.AckEvent{}, false, err
	}
	return streaming.AckEvent{
		Kind:    streaming.AckKindQuestCreated,
		Method:  outcome.Receipt.Method,
		QuestID: &id,
	}, true, nil
}

// NotificationEffect shows a success toast titled after the called method.
type NotificationEffect struct{}

func (NotificationEffect) Kind() streaming.AckKind { return streaming.AckKindNotification }

func (NotificationEffect) Build(outcome *domain.Outcome) (streaming.AckEvent, bool, error) {
	title := TitleForMethod(outcome.Receipt.Method)
	if title == "" {
		return streaming.AckEvent{}, false, nil
	}
	return streaming.AckEvent{
		Kind:    streaming.AckKindNotification,
		Method:  outcome.Receipt.Method,
		Title:   title,
		Variant: "success",
	}, true, nil
}

func TitleForMethod(method string) string {
	switch method {
	case "mint", "mint_many":
		return "Minting was successful"
	case "add_near_reward":
		return "Adding NEAR reward was successful"
	case "nft_transfer_call":
		return "Adding NFT reward was successful"
	case "create_quest":
		return "Giveaway has been created"
	default:
		return ""
	}
}
