package ipc

import (
	"encoding/json"
	"time"
)

// Request is sent from the CLI to the daemon over the Unix socket.
type Request struct {
	Nonce     string          `json:"nonce"`               // daemon nonce for auth
	Type      string          `json:"type"`                // "status", "operations", "call", "pending", "reset", "shutdown"
	Category  string          `json:"category,omitempty"`  // command category for "call"
	Operation string          `json:"operation,omitempty"` // command operation for "call"
	Payload   json.RawMessage `json:"payload,omitempty"`   // command payload for "call"
	Cache     *time.Duration  `json:"cache,omitempty"`     // cache TTL override for "call"
	Verbose   bool            `json:"verbose,omitempty"`
}

// Response is sent from the daemon back to the CLI.
type Response struct {
	Content  []byte `json:"content"`          // raw output for stdout
	ExitCode int    `json:"exit_code"`        // 0=ok, 1=command error, 2=usage error, 3=internal error
	Stderr   string `json:"stderr,omitempty"` // error message for stderr
}

// Exit codes.
const (
	ExitOK         = 0
	ExitCommandErr = 1
	ExitUsageErr   = 2
	ExitInternal   = 3
)
