package mcpfront

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lydakis/hostbridge/internal/ipc"
)

type fakeSender struct {
	lastReq *ipc.Request
	resp    *ipc.Response
	err     error
}

func (f *fakeSender) Send(req *ipc.Request) (*ipc.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "bridge_call"
	req.Params.Arguments = args
	return req
}

func TestBridgeCallForwardsToDaemon(t *testing.T) {
	sender := &fakeSender{resp: &ipc.Response{
		Content:  []byte(`{"matches":[]}` + "\n"),
		ExitCode: ipc.ExitOK,
	}}

	result, err := bridgeCall(sender, callRequest(map[string]any{
		"category":  "object",
		"operation": "find",
		"payload":   map[string]any{"pattern": "Enemy*"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	require.NotNil(t, sender.lastReq)
	assert.Equal(t, "call", sender.lastReq.Type)
	assert.Equal(t, "object", sender.lastReq.Category)
	assert.Equal(t, "find", sender.lastReq.Operation)
	assert.JSONEq(t, `{"pattern":"Enemy*"}`, string(sender.lastReq.Payload))
}

func TestBridgeCallRequiresCategory(t *testing.T) {
	sender := &fakeSender{resp: &ipc.Response{ExitCode: ipc.ExitOK}}

	_, err := bridgeCall(sender, callRequest(map[string]any{
		"operation": "find",
	}))
	assert.Error(t, err)
	assert.Nil(t, sender.lastReq, "daemon must not be contacted on bad arguments")
}

func TestBridgeCallSurfacesDaemonErrors(t *testing.T) {
	sender := &fakeSender{resp: &ipc.Response{
		ExitCode: ipc.ExitUsageErr,
		Stderr:   `unknown category "ghost"`,
	}}

	result, err := bridgeCall(sender, callRequest(map[string]any{
		"category":  "ghost",
		"operation": "x",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestForwardUnreachableDaemon(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}

	result, err := forward(sender, &ipc.Request{Type: "status"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(&fakeSender{resp: &ipc.Response{ExitCode: ipc.ExitOK}}, "test")
	assert.NotNil(t, s)
}
