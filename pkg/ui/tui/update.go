package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mediafetch/internal/control"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

// StateMsg reports an engine state change.
type StateMsg struct {
	State fetcher.State
}

// TransferStartMsg is sent when a candidate starts downloading.
type TransferStartMsg struct {
	Candidate models.Candidate
	Dest      string
}

// ProgressMsg carries a progress sample of the active transfer.
type ProgressMsg struct {
	Progress models.Progress
}

// CandidateDoneMsg is sent when a candidate reaches an outcome.
type CandidateDoneMsg struct {
	Candidate models.Candidate
	Outcome   models.Outcome
}

// SweepMsg reports a quota sweep that evicted files.
type SweepMsg struct {
	Result storage.SweepResult
}

// CheckpointMsg reports a checkpoint save.
type CheckpointMsg struct {
	Err error
}

// RunDoneMsg is sent once the run has finished.
type RunDoneMsg struct {
	Stats models.RunStats
	Err   error
}

// TickMsg refreshes elapsed time.
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case StateMsg:
		m.state = msg.State
		return m, nil

	case TransferStartMsg:
		m.startTransfer(msg.Candidate, msg.Dest)
		return m, nil

	case ProgressMsg:
		m.updateProgress(msg.Progress)
		return m, nil

	case CandidateDoneMsg:
		m.finishCandidate(msg.Candidate, msg.Outcome)
		return m, nil

	case SweepMsg:
		m.recordSweep(msg.Result)
		return m, nil

	case CheckpointMsg:
		m.recordSave(msg.Err)
		return m, nil

	case RunDoneMsg:
		m.finishRun(msg.Stats, msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress maps keys to control events.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.done || m.stopping {
			return m, tea.Quit
		}
		m.stopping = true
		m.send(control.Terminate)
		m.addLog(levelWarn, "Stopping, progress will be saved")
		return m, nil

	case "s", "S":
		if m.current == nil {
			return m, nil
		}
		m.send(control.Cancel)
		m.addLog(levelWarn, "Skip requested")
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logs = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func barWidth(termWidth int) int {
	w := termWidth - 30
	if w < 10 {
		return 10
	}
	if w > 80 {
		return 80
	}
	return w
}
