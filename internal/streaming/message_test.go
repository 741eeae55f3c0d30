package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequiresKindAndHash(t *testing.T) {
	_, err := Encode(AckEvent{TxHash: "abc"})
	assert.Error(t, err)
	_, err = Encode(AckEvent{Kind: AckKindClaim})
	assert.Error(t, err)
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"claim"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`{"tx_hash":"abc"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`nope`))
	assert.Error(t, err)
}

func TestDecodeNotification(t *testing.T) {
	event, err := Decode([]byte(`{"kind":"notification","tx_hash":"abc","title":"Minting was successful","variant":"success"}`))
	require.NoError(t, err)
	assert.Equal(t, AckKindNotification, event.Kind)
	assert.Equal(t, "Minting was successful", event.Title)
	assert.Nil(t, event.Claim)
}

func TestParseAckKind(t *testing.T) {
	kind, err := ParseAckKind("")
	require.NoError(t, err)
	assert.Equal(t, AckKindNotification, kind)

	kind, err = ParseAckKind("claim")
	require.NoError(t, err)
	assert.Equal(t, AckKindClaim, kind)

	_, err = ParseAckKind("toast")
	assert.Error(t, err)
}
