package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lydakis/hostbridge/internal/ipc"
	"github.com/lydakis/hostbridge/internal/session"
	"github.com/lydakis/hostbridge/internal/wire"
)

// handleControl serves the CLI over the unix control socket.
func (b *Bridge) handleControl(ctx context.Context, req *ipc.Request) *ipc.Response {
	switch req.Type {
	case "status":
		return b.controlStatus()
	case "operations":
		return b.controlOperations()
	case "call":
		return b.controlCall(ctx, req)
	case "pending":
		return b.controlPending()
	case "reset":
		return b.controlReset(ctx)
	case "shutdown":
		go signalShutdownFn()
		return &ipc.Response{Content: []byte("shutting down\n")}
	default:
		return &ipc.Response{ExitCode: ipc.ExitUsageErr, Stderr: fmt.Sprintf("unknown request type: %s", req.Type)}
	}
}

func (b *Bridge) controlStatus() *ipc.Response {
	state := b.sessionState().String()
	pendingCount := 0
	if cmds, err := b.pend.List(); err == nil {
		pendingCount = len(cmds)
	}

	payload := map[string]any{
		"version":   Version,
		"session":   state,
		"available": b.Available(),
		"endpoint":  b.cfg.Endpoint,
		"pending":   pendingCount,
		"uptime":    time.Since(b.started).Round(time.Second).String(),
	}
	return jsonResponse(payload)
}

func (b *Bridge) controlOperations() *ipc.Response {
	ops := make(map[string][]string)
	for _, cat := range b.router.Categories() {
		ops[cat] = b.router.Operations(cat)
	}
	return jsonResponse(ops)
}

func (b *Bridge) controlCall(ctx context.Context, req *ipc.Request) *ipc.Response {
	if req.Category == "" || req.Operation == "" {
		return &ipc.Response{ExitCode: ipc.ExitUsageErr, Stderr: "call needs category and operation"}
	}

	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	envelope, err := json.Marshal(map[string]any{
		"id":        wire.NewID(),
		"category":  req.Category,
		"operation": req.Operation,
		"payload":   payload,
	})
	if err != nil {
		return &ipc.Response{ExitCode: ipc.ExitInternal, Stderr: fmt.Sprintf("building envelope: %v", err)}
	}
	cmd, err := wire.DecodeCommand(envelope)
	if err != nil {
		return &ipc.Response{ExitCode: ipc.ExitUsageErr, Stderr: fmt.Sprintf("invalid payload: %v", err)}
	}

	resp := b.execute(ctx, cmd, req.Cache)
	if resp == nil {
		return &ipc.Response{
			Content:  []byte("queued: bridge is resetting\n"),
			ExitCode: ipc.ExitOK,
		}
	}
	if !resp.Success {
		return &ipc.Response{
			ExitCode: exitCodeFor(resp.Error),
			Stderr:   resp.Error.Message,
		}
	}
	if req.Verbose {
		// The full envelope, so callers can correlate by command id.
		return jsonResponse(resp)
	}
	return jsonResponse(resp.Result)
}

func (b *Bridge) controlPending() *ipc.Response {
	cmds, err := b.pend.List()
	if err != nil {
		return &ipc.Response{ExitCode: ipc.ExitInternal, Stderr: fmt.Sprintf("reading pending store: %v", err)}
	}
	out := make([]map[string]any, 0, len(cmds))
	for i := range cmds {
		out = append(out, map[string]any{
			"id":          cmds[i].CommandID,
			"category":    cmds[i].Category,
			"operation":   cmds[i].Operation,
			"enqueued_at": cmds[i].EnqueuedAt,
		})
	}
	return jsonResponse(out)
}

func (b *Bridge) controlReset(ctx context.Context) *ipc.Response {
	b.BeginReset()
	n, err := b.CompleteReset(ctx)
	if err != nil {
		return &ipc.Response{ExitCode: ipc.ExitInternal, Stderr: fmt.Sprintf("reset failed: %v", err)}
	}
	return jsonResponse(map[string]any{"reset": true, "replayed": n})
}

func exitCodeFor(werr *wire.Error) int {
	if werr == nil {
		return ipc.ExitCommandErr
	}
	switch werr.Code {
	case wire.CodeBadRequest, wire.CodeNotSupported:
		return ipc.ExitUsageErr
	case wire.CodeInternal, wire.CodeUnavailable:
		return ipc.ExitInternal
	default:
		return ipc.ExitCommandErr
	}
}

func jsonResponse(v any) *ipc.Response {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &ipc.Response{ExitCode: ipc.ExitInternal, Stderr: fmt.Sprintf("encoding response: %v", err)}
	}
	data = append(data, '\n')
	return &ipc.Response{Content: data}
}

// sessionState lets tests assert transitions without a live endpoint.
func (b *Bridge) sessionState() session.State {
	if b.sess == nil {
		return session.Disconnected
	}
	return b.sess.State()
}
