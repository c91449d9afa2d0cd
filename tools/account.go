package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerStatus(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "cin7_status",
		Description: "Verify Cin7 Core credentials by fetching a minimal page of products",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.client.HealthCheck(ctx)
	}

	decode := func(*mcp.CallToolRequest) (any, error) { return nil, nil }

	s.register(srv, tool, endpoint, decode)
}

func (s *Server) registerMe(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "cin7_me",
		Description: "Call the Cin7 Core Me endpoint to verify identity and account context",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.client.Me(ctx)
	}

	decode := func(*mcp.CallToolRequest) (any, error) { return nil, nil }

	s.register(srv, tool, endpoint, decode)
}
