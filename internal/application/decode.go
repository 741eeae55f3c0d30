package application

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"mysterybox/internal/domain"

	"github.com/tidwall/gjson"
)

// DecodeOutcome extracts the SuccessValue of a "tx" response. It returns a
// nil outcome without error while the transaction has no success value yet.
func DecodeOutcome(raw RawResponse) (*domain.Outcome, error) {
	if len(bytes.TrimSpace(raw.Body)) == 0 {
		return nil, ErrMissingBody
	}
	if !gjson.ValidBytes(raw.Body) {
		return nil, ErrMalformedBody
	}
	body := gjson.ParseBytes(raw.Body)

	if rpcErr := body.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		data := rpcErr.Get("data")
		if !data.Exists() || data.Type == gjson.Null || (data.Type == gjson.String && data.Str == "") {
			return nil, &RPCError{}
		}
		return nil, &RPCError{Data: json.RawMessage(data.Raw)}
	}

	result := body.Get("result")
	if !result.Exists() || result.Type == gjson.Null {
		return nil, ErrMissingResult
	}

	successValue := result.Get("status.SuccessValue")
	if successValue.Type != gjson.String {
		return nil, nil
	}

	payload, err := base64.StdEncoding.DecodeString(successValue.Str)
	if err != nil {
		return nil, fmt.Errorf("decode success value: %w", err)
	}

	receipt := domain.TransactionReceipt{
		Hash:         result.Get("transaction.hash").String(),
		SenderID:     result.Get("transaction.signer_id").String(),
		ReceiverID:   result.Get("transaction.receiver_id").String(),
		Method:       result.Get("transaction.actions.0.FunctionCall.method_name").String(),
		SuccessValue: successValue.Str,
	}
	return domain.NewOutcome(receipt, payload)
}
