package application

import (
	"testing"

	"mysterybox/internal/domain"
	"mysterybox/internal/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleForMethod(t *testing.T) {
	cases := map[string]string{
		"mint":              "Minting was successful",
		"mint_many":         "Minting was successful",
		"add_near_reward":   "Adding NEAR reward was successful",
		"nft_transfer_call": "Adding NFT reward was successful",
		"create_quest":      "Giveaway has been created",
		"claim":             "",
		"":                  "",
	}
	for method, want := range cases {
		assert.Equal(t, want, TitleForMethod(method), method)
	}
}

func TestEffectFor(t *testing.T) {
	for _, kind := range []streaming.AckKind{streaming.AckKindClaim, streaming.AckKindQuestCreated, streaming.AckKindNotification} {
		effect, err := EffectFor(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, effect.Kind())
	}
	_, err := EffectFor("toast")
	assert.Error(t, err)
}

func TestNotificationEffectBuild(t *testing.T) {
	outcome, err := domain.NewOutcome(domain.TransactionReceipt{Method: "create_quest"}, []byte(`5`))
	require.NoError(t, err)

	event, show, err := NotificationEffect{}.Build(outcome)
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, "Giveaway has been created", event.Title)
	assert.Equal(t, "success", event.Variant)
}
