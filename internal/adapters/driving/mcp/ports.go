package mcp

import (
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
)

// Ports aggregates everything the MCP server drives.
type Ports struct {
	// Coordinator runs syncs.
	Coordinator driving.SyncCoordinator

	// Progress is read for status.
	Progress driving.ProgressChannel

	// History is optional.
	History driving.SyncHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Coordinator == nil {
		return ErrMissingCoordinator
	}
	if p.Progress == nil {
		return ErrMissingProgress
	}
	return nil
}
