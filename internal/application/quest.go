package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mysterybox/internal/domain"
)

const (
	defaultBoxesPageSize   = 20
	defaultRewardsPageSize = 3
)

var ErrPageOutOfRange = fmt.Errorf("page must not exceed %d", domain.MaxPage)

type ViewCaller interface {
	View(ctx context.Context, contractID, method string, args any, out any) error
}

// QuestReader wraps the read-only contract methods the giveaway pages use.
type QuestReader struct {
	views      ViewCaller
	contractID string
}

func NewQuestReader(views ViewCaller, contractID string) (*QuestReader, error) {
	if views == nil {
		return nil, errors.New("view caller is required")
	}
	if strings.TrimSpace(contractID) == "" {
		return nil, errors.New("contract id is required")
	}
	return &QuestReader{views: views, contractID: contractID}, nil
}

func (q *QuestReader) ContractID() string {
	return q.contractID
}

func (q *QuestReader) Boxes(ctx context.Context, questID uint64, accountID string, page domain.Pagination) ([]domain.Box, error) {
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	if page.Page > domain.MaxPage {
		return nil, ErrPageOutOfRange
	}
	var boxes []domain.Box
	err := q.views.View(ctx, q.contractID, "questboxes_for_quest_per_owner", map[string]any{
		"account_id": accountID,
		"quest_id":   questID,
		"pagination": normalizePage(page, defaultBoxesPageSize),
	}, &boxes)
	if err != nil {
		return nil, err
	}
	return boxes, nil
}

func (q *QuestReader) TotalSupply(ctx context.Context, questID uint64) (string, error) {
	var supply any
	if err := q.views.View(ctx, q.contractID, "questboxes_total_supply", map[string]any{
		"quest_id": questID,
	}, &supply); err != nil {
		return "", err
	}
	switch v := supply.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	case nil:
		return "0", nil
	}
	return "", fmt.Errorf("unexpected total supply %v", supply)
}

func (q *QuestReader) AvailableRewards(ctx context.Context, questID uint64, rarity domain.Rarity, page domain.Pagination) ([]map[string]any, error) {
	if !rarity.Valid() {
		return nil, fmt.Errorf("unknown rarity %q", rarity)
	}
	if page.Page > domain.MaxPage {
		return nil, ErrPageOutOfRange
	}
	var rewards []map[string]any
	if err := q.views.View(ctx, q.contractID, "available_rewards", map[string]any{
		"quest_id":   questID,
		"rarity":     rarity,
		"pagination": normalizePage(page, defaultRewardsPageSize),
	}, &rewards); err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = []map[string]any{}
	}
	return rewards, nil
}

// IsVerified checks whether accountID holds an I-Am-Human soulbound token.
func (q *QuestReader) IsVerified(ctx context.Context, accountID string) (bool, error) {
	if accountID == "" {
		return false, errors.New("account id is required")
	}
	var tokens []any
	if err := q.views.View(ctx, RegistryContract(q.contractID), "sbt_tokens_by_owner", map[string]any{
		"account": accountID,
		"issuer":  IssuerContract(q.contractID),
	}, &tokens); err != nil {
		return false, err
	}
	// Shape is [[issuer, [token, ...]], ...]; verified iff tokens[0][1][0] exists.
	if len(tokens) == 0 {
		return false, nil
	}
	pair, ok := tokens[0].([]any)
	if !ok || len(pair) < 2 {
		return false, nil
	}
	owned, ok := pair[1].([]any)
	if !ok || len(owned) == 0 {
		return false, nil
	}
	return owned[0] != nil, nil
}

func RegistryContract(contractID string) string {
	if strings.HasSuffix(contractID, ".near") {
		return "registry.i-am-human.near"
	}
	return "registry-v2.i-am-human.testnet"
}

func IssuerContract(contractID string) string {
	if strings.HasSuffix(contractID, ".near") {
		return "fractal.i-am-human.near"
	}
	return "fractal-v2.i-am-human.testnet"
}

func normalizePage(page domain.Pagination, defaultSize uint64) domain.Pagination {
	if page.Page == 0 {
		page.Page = 1
	}
	if page.Size == 0 || page.Size > 100 {
		page.Size = defaultSize
	}
	return page
}
