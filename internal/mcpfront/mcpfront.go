// Package mcpfront exposes the bridge over MCP stdio so AI agents can
// drive the object graph without speaking the control-socket protocol.
// Every tool call forwards to the daemon through the unix socket.
package mcpfront

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lydakis/hostbridge/internal/ipc"
)

// Sender is the daemon transport; *ipc.Client satisfies it.
type Sender interface {
	Send(req *ipc.Request) (*ipc.Response, error)
}

// NewServer builds the MCP server with the bridge tool set registered.
func NewServer(sender Sender, version string) *server.MCPServer {
	s := server.NewMCPServer("hostbridge", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.Tool{
		Name:        "bridge_call",
		Description: "Execute a bridge command against the host's live object graph",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"category":  map[string]any{"type": "string", "description": "Command category, e.g. object or transform"},
				"operation": map[string]any{"type": "string", "description": "Operation within the category"},
				"payload":   map[string]any{"type": "object", "description": "Operation payload"},
			},
			Required: []string{"category", "operation"},
		},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return bridgeCall(sender, request)
	})

	s.AddTool(mcp.Tool{
		Name:        "bridge_operations",
		Description: "List the operations the bridge currently supports, by category",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return forward(sender, &ipc.Request{Type: "operations"})
	})

	s.AddTool(mcp.Tool{
		Name:        "bridge_status",
		Description: "Report bridge daemon status: session state, availability, pending queue",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return forward(sender, &ipc.Request{Type: "status"})
	})

	return s
}

// Serve runs the facade on stdio until the client disconnects.
func Serve(sender Sender, version string) error {
	return server.ServeStdio(NewServer(sender, version))
}

func bridgeCall(sender Sender, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := request.RequireString("category")
	if err != nil {
		return nil, err
	}
	operation, err := request.RequireString("operation")
	if err != nil {
		return nil, err
	}

	var payload json.RawMessage
	if raw, ok := request.GetArguments()["payload"]; ok && raw != nil {
		data, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding payload: %v", err)), nil
		}
		payload = data
	}

	return forward(sender, &ipc.Request{
		Type:      "call",
		Category:  category,
		Operation: operation,
		Payload:   payload,
	})
}

func forward(sender Sender, req *ipc.Request) (*mcp.CallToolResult, error) {
	resp, err := sender.Send(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("daemon unreachable: %v", err)), nil
	}
	if resp.ExitCode != ipc.ExitOK {
		return mcp.NewToolResultError(resp.Stderr), nil
	}
	return mcp.NewToolResultText(string(resp.Content)), nil
}
