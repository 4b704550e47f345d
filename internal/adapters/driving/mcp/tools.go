package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// EmptyInput is the input schema of tools without arguments.
type EmptyInput struct{}

// StartOutput is the output schema for the start_sync tool.
type StartOutput struct {
	Started bool   `json:"started" jsonschema:"false when a sync was already running"`
	Message string `json:"message"`
}

// CancelOutput is the output schema for the cancel_sync tool.
type CancelOutput struct {
	Cancelled bool   `json:"cancelled" jsonschema:"false when no sync was running"`
	Message   string `json:"message"`
}

// StatusOutput is the output schema for the sync_status tool.
type StatusOutput struct {
	IsSyncing bool            `json:"is_syncing"`
	Progress  string          `json:"progress"`
	LastRun   *domain.SyncRun `json:"last_run,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "start_sync",
		Description: "Start syncing notes with the remote account. Does nothing if a sync is already running.",
	}, s.handleStartSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cancel_sync",
		Description: "Ask the running note sync to stop at its next safe point",
	}, s.handleCancelSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report whether a note sync is running, its progress and the last result",
	}, s.handleSyncStatus)
}

func (s *Server) handleStartSync(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StartOutput, error) {
	if s.ports.Coordinator.Start() {
		return nil, StartOutput{Started: true, Message: "Sync started"}, nil
	}
	return nil, StartOutput{Message: "A sync is already running"}, nil
}

func (s *Server) handleCancelSync(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, CancelOutput, error) {
	if s.ports.Coordinator.Cancel() {
		return nil, CancelOutput{Cancelled: true, Message: "Cancellation requested"}, nil
	}
	return nil, CancelOutput{Message: "No sync is running"}, nil
}

func (s *Server) handleSyncStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return nil, s.status(), nil
}

func (s *Server) status() StatusOutput {
	output := StatusOutput{
		IsSyncing: s.ports.Coordinator.IsSyncing(),
		Progress:  s.ports.Progress.Current().Message,
	}
	if run, ok := s.ports.Coordinator.LastRun(); ok {
		output.LastRun = &run
	}
	return output
}
