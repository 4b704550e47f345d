// Package tui renders a running sync in the terminal with Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notesync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/core/services"
)

// progressMsg carries one published progress state.
type progressMsg domain.ProgressState

// doneMsg is sent when the watched run completes.
type doneMsg struct{}

// SyncView shows the progress of one run and lets the user cancel it.
type SyncView struct {
	coordinator driving.SyncCoordinator
	updates     <-chan domain.ProgressState
	done        <-chan struct{}

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model

	message    string
	cancelling bool
	finished   bool
	run        *domain.SyncRun
}

// Ensure SyncView implements tea.Model.
var _ tea.Model = (*SyncView)(nil)

// NewSyncView watches the run that is current on coordinator.
func NewSyncView(coordinator driving.SyncCoordinator, updates <-chan domain.ProgressState) *SyncView {
	s := styles.DefaultStyles()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner))
	return &SyncView{
		coordinator: coordinator,
		updates:     updates,
		done:        coordinator.Done(),
		styles:      s,
		keymap:      keymap.DefaultKeyMap(),
		spinner:     sp,
		message:     coordinator.CurrentProgress(),
	}
}

// Init implements tea.Model.
func (v *SyncView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.waitProgress(), v.waitDone())
}

func (v *SyncView) waitProgress() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-v.updates
		if !ok {
			return nil
		}
		return progressMsg(state)
	}
}

func (v *SyncView) waitDone() tea.Cmd {
	return func() tea.Msg {
		<-v.done
		return doneMsg{}
	}
}

// Update implements tea.Model.
func (v *SyncView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.finished {
			if key.Matches(msg, v.keymap.Quit, v.keymap.Cancel) {
				return v, tea.Quit
			}
			return v, nil
		}
		if key.Matches(msg, v.keymap.Cancel) && !v.cancelling {
			v.cancelling = v.coordinator.Cancel()
		}
		return v, nil

	case progressMsg:
		if msg.Message != "" {
			v.message = msg.Message
		}
		return v, v.waitProgress()

	case doneMsg:
		v.finished = true
		if run, ok := v.coordinator.LastRun(); ok {
			v.run = &run
		}
		return v, tea.Quit

	case spinner.TickMsg:
		if v.finished {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}
	return v, nil
}

// View implements tea.Model.
func (v *SyncView) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("notesync"))
	b.WriteString("\n\n")

	if v.finished {
		b.WriteString(RenderRun(v.styles, v.run))
		b.WriteString("\n")
		return b.String()
	}

	message := v.message
	if message == "" {
		message = "Starting sync"
	}
	b.WriteString(v.spinner.View())
	b.WriteString(" ")
	b.WriteString(v.styles.Normal.Render(message))
	b.WriteString("\n\n")

	if v.cancelling {
		b.WriteString(v.styles.Warning.Render("Cancelling..."))
	} else {
		hints := make([]string, 0, 1)
		for _, binding := range v.keymap.ShortHelp() {
			h := binding.Help()
			hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
		}
		b.WriteString(v.styles.Muted.Render(strings.Join(hints, " | ")))
	}
	b.WriteString("\n")
	return b.String()
}

// Run returns the finished run, if the view saw one.
func (v *SyncView) Run() (domain.SyncRun, bool) {
	if v.run == nil {
		return domain.SyncRun{}, false
	}
	return *v.run, true
}

// RenderRun formats the result of a run in its outcome colour.
func RenderRun(s *styles.Styles, run *domain.SyncRun) string {
	if run == nil {
		return s.Muted.Render("Sync finished")
	}
	switch run.Outcome {
	case domain.OutcomeSucceeded:
		msg := run.Message
		if msg == "" {
			msg = "Sync complete"
		}
		return s.Success.Render("✓ "+msg) + s.Muted.Render(fmt.Sprintf(" (%s)", run.Duration().Round(10*time.Millisecond)))
	case domain.OutcomeCancelled:
		return s.Warning.Render("■ " + run.Message)
	default:
		return s.Error.Render("✗ " + run.Message)
	}
}

// Watch runs the view for the current run until it completes or ctx ends.
// The caller starts the sync first.
func Watch(ctx context.Context, coordinator driving.SyncCoordinator, progress driving.ProgressChannel) (domain.SyncRun, bool, error) {
	obs := services.NewChannelObserver(16)
	unsubscribe := progress.Subscribe(obs)
	defer unsubscribe()

	view := NewSyncView(coordinator, obs.C())
	if _, err := tea.NewProgram(view, tea.WithContext(ctx)).Run(); err != nil {
		return domain.SyncRun{}, false, fmt.Errorf("run sync view: %w", err)
	}
	run, ok := view.Run()
	return run, ok, nil
}
