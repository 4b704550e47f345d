package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/services"
)

// stubCoordinator records calls and returns canned answers.
type stubCoordinator struct {
	mu      sync.Mutex
	starts  int
	cancels int
	syncing bool
	lastRun *domain.SyncRun
}

func (s *stubCoordinator) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.syncing {
		return false
	}
	s.syncing = true
	return true
}

func (s *stubCoordinator) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	return s.syncing
}

func (s *stubCoordinator) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

func (s *stubCoordinator) CurrentProgress() string { return "" }

func (s *stubCoordinator) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (s *stubCoordinator) LastRun() (domain.SyncRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return domain.SyncRun{}, false
	}
	return *s.lastRun, true
}

func (s *stubCoordinator) Shutdown(context.Context) error { return nil }

func newTestAPI(t *testing.T, opts ...ServerOption) (*stubCoordinator, *services.ProgressBroadcaster, *Client) {
	t.Helper()
	coord := &stubCoordinator{}
	progress := services.NewProgressBroadcaster()
	srv := httptest.NewServer(NewServer(coord, progress, opts...))
	t.Cleanup(srv.Close)
	return coord, progress, NewClient(srv.URL)
}

func TestStartAndCancel(t *testing.T) {
	coord, _, client := newTestAPI(t)
	ctx := context.Background()

	cancelled, err := client.Cancel(ctx)
	require.NoError(t, err)
	assert.False(t, cancelled)

	started, err := client.Start(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = client.Start(ctx)
	require.NoError(t, err)
	assert.False(t, started)

	cancelled, err = client.Cancel(ctx)
	require.NoError(t, err)
	assert.True(t, cancelled)

	assert.Equal(t, 2, coord.starts)
	assert.Equal(t, 2, coord.cancels)
}

func TestStatus(t *testing.T) {
	coord, progress, client := newTestAPI(t)
	ctx := context.Background()

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Syncing)
	assert.Empty(t, status.Message)
	assert.Nil(t, status.LastRun)

	progress.Publish(true, "50%")
	coord.lastRun = &domain.SyncRun{ID: "run-1", Outcome: domain.OutcomeFailed, Message: "boom"}

	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Syncing)
	assert.Equal(t, "50%", status.Message)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "run-1", status.LastRun.ID)
	assert.Equal(t, domain.OutcomeFailed, status.LastRun.Outcome)
}

func TestStatus_WireFormat(t *testing.T) {
	_, progress, client := newTestAPI(t)
	progress.Publish(true, "Pushing local changes (1/2)")

	resp, err := http.Get(client.baseURL + "/v1/sync/status") //nolint:noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, true, raw["is_syncing"])
	assert.Equal(t, "Pushing local changes (1/2)", raw["message"])
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, client := newTestAPI(t)

	resp, err := http.Get(client.baseURL + "/v1/sync/start") //nolint:noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFollow(t *testing.T) {
	_, progress, client := newTestAPI(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	states := make(chan domain.ProgressState, 8)
	errCh := make(chan error, 1)
	go func() {
		seen := 0
		errCh <- client.Follow(ctx, func(s domain.ProgressState) bool {
			seen++
			states <- s
			return seen == 1 || !s.IsIdle()
		})
	}()

	first := <-states
	assert.True(t, first.IsIdle())

	progress.Publish(true, "")
	progress.Publish(true, "50%")
	progress.Publish(false, "")

	var got []domain.ProgressState
	for i := 0; i < 3; i++ {
		got = append(got, <-states)
	}
	assert.Equal(t, []domain.ProgressState{
		{Syncing: true},
		{Syncing: true, Message: "50%"},
		{},
	}, got)
	require.NoError(t, <-errCh)
}

func TestFollow_ContextCancelled(t *testing.T) {
	_, _, client := newTestAPI(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := client.Follow(ctx, func(domain.ProgressState) bool {
		cancel()
		return true
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_DaemonUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	_, err := NewClient(addr).Start(context.Background())

	assert.ErrorIs(t, err, ErrDaemonUnavailable)
}

func TestMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("notesync_sync_runs_total 1\n"))
	})
	_, _, client := newTestAPI(t, WithMetricsHandler(metrics), WithMiddlewares(LoggingMiddleware))

	resp, err := http.Get(client.baseURL + "/metrics") //nolint:noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewClient_NormalisesAddress(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:7878", NewClient("127.0.0.1:7878").baseURL)
	assert.Equal(t, "https://example.com", NewClient("https://example.com/").baseURL)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
