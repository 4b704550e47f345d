// Package mcp provides an MCP (Model Context Protocol) server adapter for notesync.
// It lets AI assistants start, cancel and watch note syncs.
package mcp

import "errors"

var (
	// ErrMissingCoordinator is returned when the sync coordinator is not provided.
	ErrMissingCoordinator = errors.New("mcp: sync coordinator is required")

	// ErrMissingProgress is returned when the progress channel is not provided.
	ErrMissingProgress = errors.New("mcp: progress channel is required")
)
