// Package wire defines the command/response envelope exchanged with the
// automation endpoint, and the newline-delimited JSON framing used to
// carry it over a stream connection.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command is an incoming request envelope. Immutable once decoded.
type Command struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Operation string         `json:"operation"`
	Payload   map[string]any `json:"payload,omitempty"`

	// PayloadOrder preserves the JSON key order of the payload object so
	// downstream per-member processing is deterministic and mirrors the
	// caller's intent. Not serialized.
	PayloadOrder []string `json:"-"`
}

// Response is the reply envelope for a single command.
type Response struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a typed failure carried in a response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest   = "bad_request"
	CodeNotSupported = "not_supported"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal"
	CodeCanceled     = "canceled"
)

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewID returns a fresh globally unique command id.
func NewID() string {
	return uuid.NewString()
}

// OK builds a success response for a command id.
func OK(id string, result any) *Response {
	return &Response{ID: id, Success: true, Result: result}
}

// Fail builds an error response for a command id.
func Fail(id, code, message string, details any) *Response {
	return &Response{ID: id, Error: &Error{Code: code, Message: message, Details: details}}
}

// DecodeCommand parses a single envelope, capturing payload key order.
// An envelope without an id gets one assigned so every response can be
// correlated.
func DecodeCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if cmd.Category == "" || cmd.Operation == "" {
		return nil, fmt.Errorf("malformed envelope: category and operation are required")
	}
	if cmd.ID == "" {
		cmd.ID = NewID()
	}
	order, err := payloadKeyOrder(data)
	if err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	cmd.PayloadOrder = order
	return &cmd, nil
}

// payloadKeyOrder walks the raw JSON token stream and records the key
// order of the top-level "payload" object. encoding/json maps lose
// ordering, so this is recovered from the bytes directly.
func payloadKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("envelope must be a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "payload" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			// Null or non-object payload: no ordering to capture.
			return nil, nil
		}
		var order []string
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			k, _ := keyTok.(string)
			order = append(order, k)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return order, nil
	}
	return nil, nil
}
