package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotClaim   = errors.New("outcome is not a claim result")
	ErrNotQuestID = errors.New("outcome is not a quest id")
)

// Outcome is the decoded SuccessValue of a finished transaction.
type Outcome struct {
	Receipt TransactionReceipt
	// Value is the SuccessValue payload as generic JSON.
	Value any
	raw   json.RawMessage
}

// NewOutcome parses payload as JSON. An empty payload is the result of a
// method that returns nothing and leaves Value nil.
func NewOutcome(receipt TransactionReceipt, payload []byte) (*Outcome, error) {
	if len(payload) == 0 {
		return &Outcome{Receipt: receipt}, nil
	}
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, fmt.Errorf("decode success value: %w", err)
	}
	return &Outcome{
		Receipt: receipt,
		Value:   value,
		raw:     append(json.RawMessage(nil), payload...),
	}, nil
}

func (o *Outcome) Raw() json.RawMessage {
	return o.raw
}

func (o *Outcome) Empty() bool {
	return len(o.raw) == 0
}

// Claim interprets the payload as the [box_id, rarity, reward] tuple
// returned by the claim method.
func (o *Outcome) Claim() (ClaimReward, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(o.raw, &tuple); err != nil || len(tuple) != 3 {
		return ClaimReward{}, ErrNotClaim
	}
	var claim ClaimReward
	if err := json.Unmarshal(tuple[0], &claim.BoxID); err != nil {
		return ClaimReward{}, fmt.Errorf("%w: box id: %v", ErrNotClaim, err)
	}
	if err := json.Unmarshal(tuple[1], &claim.Rarity); err != nil {
		return ClaimReward{}, fmt.Errorf("%w: rarity: %v", ErrNotClaim, err)
	}
	if !claim.Rarity.Valid() {
		return ClaimReward{}, fmt.Errorf("%w: unknown rarity %q", ErrNotClaim, claim.Rarity)
	}
	if err := json.Unmarshal(tuple[2], &claim.Reward); err != nil {
		return ClaimReward{}, fmt.Errorf("%w: reward: %v", ErrNotClaim, err)
	}
	return claim, nil
}

// QuestID interprets the payload as the id returned by create_quest.
func (o *Outcome) QuestID() (uint64, error) {
	var id json.Number
	if err := json.Unmarshal(o.raw, &id); err != nil {
		var str string
		if err := json.Unmarshal(o.raw, &str); err != nil {
			return 0, ErrNotQuestID
		}
		id = json.Number(str)
	}
	value, err := strconv.ParseUint(id.String(), 10, 64)
	if err != nil {
		return 0, ErrNotQuestID
	}
	return value, nil
}
