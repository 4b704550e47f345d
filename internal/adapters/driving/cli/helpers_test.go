package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/custodia-labs/notesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driven"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/core/services"
)

// engineFunc adapts a function to driven.SyncEngine.
type engineFunc func(ctx context.Context, account *domain.Account, token driven.CancellationToken, onProgress driven.ProgressFunc) error

func (f engineFunc) Run(ctx context.Context, account *domain.Account, token driven.CancellationToken, onProgress driven.ProgressFunc) error {
	return f(ctx, account, token, onProgress)
}

type staticResolver struct {
	account *domain.Account
	err     error
}

func (r *staticResolver) Resolve(_ context.Context) (*domain.Account, error) {
	return r.account, r.err
}

// gatedProgress closes subscribed on the first Subscribe so engines can
// wait until the command is listening.
type gatedProgress struct {
	*services.ProgressBroadcaster
	once       sync.Once
	subscribed chan struct{}
}

func newGatedProgress() *gatedProgress {
	return &gatedProgress{
		ProgressBroadcaster: services.NewProgressBroadcaster(),
		subscribed:          make(chan struct{}),
	}
}

func (g *gatedProgress) Subscribe(observer driving.ProgressObserver) func() {
	unsubscribe := g.ProgressBroadcaster.Subscribe(observer)
	g.once.Do(func() { close(g.subscribed) })
	return unsubscribe
}

type mockHistory struct {
	runs []domain.SyncRun
	err  error
}

func (m *mockHistory) ListRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

type testRuntime struct {
	*Runtime
	progress *gatedProgress
	config   *memory.ConfigStore
	accounts *mockAccounts
	history  *mockHistory
	closed   bool
}

// newTestRuntime installs a runtime driving a real coordinator over engine.
func newTestRuntime(t *testing.T, engine driven.SyncEngine, resolver driven.AccountResolver, opts ...services.CoordinatorOption) *testRuntime {
	t.Helper()
	if resolver == nil {
		resolver = &staticResolver{account: &domain.Account{ID: "me@example.com"}}
	}

	tr := &testRuntime{
		progress: newGatedProgress(),
		config:   memory.NewConfigStore(),
		accounts: &mockAccounts{},
		history:  &mockHistory{},
	}
	coordinator := services.NewSyncCoordinator(engine, resolver, tr.progress, opts...)

	tr.Runtime = &Runtime{
		Settings:    domain.DefaultSettings(),
		Config:      tr.config,
		Coordinator: coordinator,
		Progress:    tr.progress,
		Accounts:    tr.accounts,
		History:     tr.history,
		Close: func() error {
			tr.closed = true
			return nil
		},
	}

	active = tr.Runtime
	t.Cleanup(func() {
		_ = coordinator.Shutdown(context.Background())
		active = nil
	})
	return tr
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single Execute.
	syncTUI = false
	daemonAddr = ""
	progressFollow = false
	historyLimit = 10
	authLoginPort = 0
	authLoginNoBrowser = false
	opts = Options{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func noopEngine() engineFunc {
	return func(_ context.Context, _ *domain.Account, _ driven.CancellationToken, _ driven.ProgressFunc) error {
		return nil
	}
}
