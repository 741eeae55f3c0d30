package application

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successBody(t *testing.T, value any) []byte {
	t.Helper()
	payload, err := json.Marshal(value)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "dontcare",
		"result": map[string]any{
			"status": map[string]any{
				"SuccessValue": base64.StdEncoding.EncodeToString(payload),
			},
			"transaction": map[string]any{
				"hash":        "abc123",
				"signer_id":   "alice.testnet",
				"receiver_id": "mysterybox.testnet",
				"actions": []any{
					map[string]any{"FunctionCall": map[string]any{"method_name": "claim"}},
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestDecodeOutcomeRoundTrip(t *testing.T) {
	values := []any{
		[]any{float64(1), "rare", map[string]any{"kind": "near", "amount": "500"}},
		float64(42),
		"ok",
		map[string]any{"quest_id": float64(3), "nested": []any{true, nil}},
	}
	for _, value := range values {
		outcome, err := DecodeOutcome(RawResponse{StatusCode: 200, Body: successBody(t, value)})
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Equal(t, value, outcome.Value)
		assert.Equal(t, "claim", outcome.Receipt.Method)
		assert.Equal(t, "alice.testnet", outcome.Receipt.SenderID)
		assert.Equal(t, "mysterybox.testnet", outcome.Receipt.ReceiverID)
	}
}

func TestDecodeOutcomePending(t *testing.T) {
	bodies := []string{
		`{"result":{"status":{}}}`,
		`{"result":{"status":{"Failure":{"ActionError":{}}}}}`,
		`{"result":{"transaction":{"hash":"abc"}}}`,
	}
	for _, body := range bodies {
		outcome, err := DecodeOutcome(RawResponse{Body: []byte(body)})
		require.NoError(t, err, body)
		assert.Nil(t, outcome, body)
	}
}

func TestDecodeOutcomeEmptySuccessValue(t *testing.T) {
	outcome, err := DecodeOutcome(RawResponse{Body: []byte(`{"result":{"status":{"SuccessValue":""},"transaction":{"actions":[{"FunctionCall":{"method_name":"mint"}}]}}}`)})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Empty())
	assert.Equal(t, "mint", outcome.Receipt.Method)
}

func TestDecodeOutcomeErrors(t *testing.T) {
	_, err := DecodeOutcome(RawResponse{})
	assert.ErrorIs(t, err, ErrMissingBody)

	_, err = DecodeOutcome(RawResponse{Body: []byte("  ")})
	assert.ErrorIs(t, err, ErrMissingBody)

	_, err = DecodeOutcome(RawResponse{Body: []byte("<html>")})
	assert.ErrorIs(t, err, ErrMalformedBody)

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"jsonrpc":"2.0"}`)})
	assert.ErrorIs(t, err, ErrMissingResult)

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"result":null}`)})
	assert.ErrorIs(t, err, ErrMissingResult)

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"result":{"status":{"SuccessValue":"***"}}}`)})
	assert.Error(t, err)

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"result":{"status":{"SuccessValue":"` + base64.StdEncoding.EncodeToString([]byte("{oops")) + `"}}}`)})
	assert.Error(t, err)
}

func TestDecodeOutcomeRPCError(t *testing.T) {
	_, err := DecodeOutcome(RawResponse{Body: []byte(`{"error":{"data":"boom"}}`)})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "boom", rpcErr.Error())

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"error":{"data":{"TxExecutionError":"nope"}}}`)})
	require.ErrorAs(t, err, &rpcErr)
	assert.JSONEq(t, `{"TxExecutionError":"nope"}`, rpcErr.Error())

	_, err = DecodeOutcome(RawResponse{Body: []byte(`{"error":{"code":-32000}}`)})
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "Unknown error", rpcErr.Error())
}
