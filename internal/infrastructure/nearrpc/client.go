package nearrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mysterybox/internal/application"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const requestID = "dontcare"

type Client struct {
	url        string
	httpClient *http.Client
	observer   CallObserver
}

type Config struct {
	URL      string
	Timeout  time.Duration
	Observer CallObserver
}

// CallObserver receives the duration and outcome of every RPC round trip.
type CallObserver interface {
	ObserveRPC(method string, duration time.Duration, err error)
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rpc url is required")
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		observer:   cfg.Observer,
	}, nil
}

// FetchOutcome issues the "tx" method for hash as seen by senderID and
// returns the response untouched.
func (c *Client) FetchOutcome(ctx context.Context, hash, senderID string) (application.RawResponse, error) {
	return c.post(ctx, "tx", []any{hash, senderID})
}

// Ping asks the node for its status and fails unless it answers with a
// result.
func (c *Client) Ping(ctx context.Context) error {
	raw, err := c.post(ctx, "status", []any{})
	if err != nil {
		return err
	}
	var decoded rpcResponse
	if err := json.Unmarshal(raw.Body, &decoded); err != nil {
		return err
	}
	if decoded.Error != nil {
		return errors.New(decoded.Error.describe())
	}
	if len(decoded.Result) == 0 {
		return errors.New("rpc result is empty")
	}
	return nil
}

// View runs a read-only contract method and decodes its JSON result into out.
func (c *Client) View(ctx context.Context, contractID, method string, args any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return err
	}
	raw, err := c.post(ctx, "query", map[string]any{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(encodedArgs),
	})
	if err != nil {
		return err
	}

	var decoded rpcResponse
	if err := json.Unmarshal(raw.Body, &decoded); err != nil {
		return err
	}
	if decoded.Error != nil {
		return fmt.Errorf("view %s.%s: %s", contractID, method, decoded.Error.describe())
	}
	if len(decoded.Result) == 0 || string(decoded.Result) == "null" {
		return fmt.Errorf("view %s.%s: %w", contractID, method, application.ErrViewUnavailable)
	}
	var result callFunctionResult
	if err := json.Unmarshal(decoded.Result, &result); err != nil {
		return err
	}
	if result.Error != "" {
		return fmt.Errorf("view %s.%s: %s", contractID, method, result.Error)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(result.bytes(), out)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Name    string          `json:"name"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *rpcError) describe() string {
	if len(e.Data) > 0 {
		var text string
		if err := json.Unmarshal(e.Data, &text); err == nil {
			return text
		}
		return string(e.Data)
	}
	if e.Message != "" {
		return e.Message
	}
	return "Unknown error"
}

type callFunctionResult struct {
	Result []int  `json:"result"`
	Error  string `json:"error"`
}

func (r callFunctionResult) bytes() []byte {
	out := make([]byte, len(r.Result))
	for i, b := range r.Result {
		out[i] = byte(b)
	}
	return out
}

func (c *Client) post(ctx context.Context, method string, params any) (raw application.RawResponse, err error) {
	ctx, span := otel.Tracer("mysterybox/nearrpc").Start(ctx, "nearrpc."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveRPC(method, time.Since(start), err)
		}
	}()

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      requestID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return application.RawResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return application.RawResponse{}, &application.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return application.RawResponse{}, &application.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return application.RawResponse{}, &application.TransportError{Err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// NEAR nodes answer some RPC errors with a non-2xx status and a JSON
	// body; keep that body so the caller can surface error.data.
	if (resp.StatusCode < 200 || resp.StatusCode >= 300) && !json.Valid(body) {
		return application.RawResponse{}, &application.TransportError{
			Err: fmt.Errorf("rpc status %d", resp.StatusCode),
		}
	}
	return application.RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
