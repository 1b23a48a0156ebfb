// Package mcp exposes the mediated capability surface to MCP clients over
// stdio. Every tool call passes through the same secure invoker as voice
// commands; there is no side door around policy.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vishwakarma-31/jarvis/internal/gate"
	"github.com/vishwakarma-31/jarvis/internal/invoke"
)

// Config holds MCP server configuration.
type Config struct {
	Version string
}

// Server wraps the MCP SDK server around the secure invoker. gateState and
// enrolled are optional and only feed the status tool.
type Server struct {
	mcpServer *mcpsdk.Server
	invoker   *invoke.Invoker
	gateState func() gate.State
	enrolled  func() bool
}

// New builds the server. gateState may be nil when no gate is running;
// enrolled may be nil when no voiceprint store is attached.
func New(cfg Config, invoker *invoke.Invoker, gateState func() gate.State, enrolled func() bool) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		invoker:   invoker,
		gateState: gateState,
		enrolled:  enrolled,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "jarvis",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds the jarvis tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jarvis_invoke",
		Description: "Invoke a capability through policy mediation. Denied or unconfirmed actions return the refusal reason instead of executing.",
	}, s.handleInvoke)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jarvis_check",
		Description: "Check what the policy would decide for an action without executing it (dry-run).",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "jarvis_status",
		Description: "Report the authorization gate state, the pinned policy hash, and the registered capabilities.",
	}, s.handleStatus)
}
