package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/services"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestExtractRunID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid run URI", uri: "notesync://runs/run-123", expected: "run-123"},
		{name: "invalid prefix", uri: "file://runs/run-123", expected: ""},
		{name: "runs list", uri: "notesync://runs", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractRunID(tt.uri))
		})
	}
}

func TestHandleStatusResource(t *testing.T) {
	server, progress := newTestServer(t, &mockCoordinator{})
	progress.Publish(true, "Pushing local changes (1/3)")

	result, err := server.handleStatusResource(context.Background(), readRequest("notesync://status"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	var state domain.ProgressState
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &state))
	assert.True(t, state.Syncing)
	assert.Equal(t, "Pushing local changes (1/3)", state.Message)
}

func TestHandleRunsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("without history uses last run", func(t *testing.T) {
		server, _ := newTestServer(t, &mockCoordinator{lastRun: &domain.SyncRun{ID: "run-1"}})

		result, err := server.handleRunsResource(ctx, readRequest("notesync://runs"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, "run-1")
	})

	t.Run("without anything is empty list", func(t *testing.T) {
		server, _ := newTestServer(t, &mockCoordinator{})

		result, err := server.handleRunsResource(ctx, readRequest("notesync://runs"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("history error", func(t *testing.T) {
		server := &Server{ports: &Ports{
			Coordinator: &mockCoordinator{},
			Progress:    services.NewProgressBroadcaster(),
			History:     &mockHistory{err: errors.New("db locked")},
		}}

		_, err := server.handleRunsResource(ctx, readRequest("notesync://runs"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db locked")
	})
}

func TestHandleRunResource(t *testing.T) {
	ctx := context.Background()
	server := &Server{ports: &Ports{
		Coordinator: &mockCoordinator{},
		Progress:    services.NewProgressBroadcaster(),
		History: &mockHistory{runs: []domain.SyncRun{
			{ID: "run-2", Outcome: domain.OutcomeSucceeded},
			{ID: "run-1", Outcome: domain.OutcomeFailed, Message: "boom"},
		}},
	}}

	result, err := server.handleRunResource(ctx, readRequest("notesync://runs/run-1"))
	require.NoError(t, err)
	var run domain.SyncRun
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &run))
	assert.Equal(t, "boom", run.Message)

	_, err = server.handleRunResource(ctx, readRequest("notesync://runs/missing"))
	assert.Error(t, err)

	_, err = server.handleRunResource(ctx, readRequest("notesync://other"))
	assert.Error(t, err)
}
