package domain

type Rarity string

const (
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var Rarities = []Rarity{RarityRare, RarityEpic, RarityLegendary}

func (r Rarity) Valid() bool {
	switch r {
	case RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

const (
	RewardKindNear    = "near"
	RewardKindNFT     = "non_fungible_token"
	RewardKindNothing = "nothing"
)

// Reward is either a NEAR amount or an NFT, discriminated by Kind.
type Reward struct {
	Kind       string `json:"kind"`
	Amount     string `json:"amount,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	TokenID    string `json:"token_id,omitempty"`
}

type ClaimReward struct {
	BoxID  uint64 `json:"box_id"`
	Rarity Rarity `json:"rarity"`
	Reward Reward `json:"reward"`
}

// MaxPage is the largest page the contract accepts; its pagination fields
// are u8.
const MaxPage = 255

type Pagination struct {
	Page uint64 `json:"page"`
	Size uint64 `json:"size"`
}

type BoxStatus struct {
	Kind   string  `json:"kind"`
	Reward *Reward `json:"reward,omitempty"`
}

type Box struct {
	QuestID   uint64    `json:"quest_id"`
	BoxID     uint64    `json:"box_id"`
	BoxRarity Rarity    `json:"box_rarity"`
	BoxStatus BoxStatus `json:"box_status"`
	IPFS      string    `json:"ipfs"`
}
