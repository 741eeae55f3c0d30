package application

import (
	"encoding/json"
	"errors"
)

var (
	ErrMissingBody     = errors.New("response is missing body")
	ErrMissingResult   = errors.New("body is missing result field")
	ErrMalformedBody   = errors.New("response body is not valid json")
	ErrViewUnavailable = errors.New("view returned no result")
)

// RawResponse is a completed RPC round trip. Failures that never produced a
// response are reported as *TransportError instead.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "rpc transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RPCError carries the error.data payload reported by the node, which is
// either a string or an arbitrary JSON object.
type RPCError struct {
	Data json.RawMessage
}

func (e *RPCError) Error() string {
	if len(e.Data) == 0 {
		return "Unknown error"
	}
	var text string
	if err := json.Unmarshal(e.Data, &text); err == nil {
		return text
	}
	return string(e.Data)
}
