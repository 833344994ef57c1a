package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mediafetch/internal/control"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

// progressInterval throttles progress messages sent to the program.
const progressInterval = 100 * time.Millisecond

// TUI is a full-screen view of a fetch run. It observes the engine as a
// fetcher.Reporter and feeds key presses back as a control.Listener.
type TUI struct {
	program  *tea.Program
	model    *Model
	controls *control.Chan

	mu           sync.Mutex
	lastProgress time.Time
	now          func() time.Time

	done chan struct{}
	err  error
}

var (
	_ fetcher.Reporter = (*TUI)(nil)
	_ control.Listener = (*TUI)(nil)
)

// NewTUI creates a TUI for a run reading from source into folder. Extra
// program options are appended after the alternate screen option.
func NewTUI(source, folder string, opts ...tea.ProgramOption) *TUI {
	controls := control.NewChan(8)
	model := NewModel(source, folder, controls)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program:  tea.NewProgram(&model, opts...),
		model:    &model,
		controls: controls,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the program in the background. Reporter calls block until the
// program is running, so Start must be called before the engine runs.
func (t *TUI) Start() {
	go func() {
		defer close(t.done)
		_, err := t.program.Run()
		if !t.model.done {
			// Quit before the run ended: stop the engine too.
			t.controls.Send(control.Terminate)
		}
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
}

// Wait blocks until the program has exited.
func (t *TUI) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Stop quits the program.
func (t *TUI) Stop() {
	t.program.Quit()
}

// Events implements control.Listener.
func (t *TUI) Events() <-chan control.Event { return t.controls.Events() }

// Close implements control.Listener.
func (t *TUI) Close() error { return t.controls.Close() }

func (t *TUI) send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) StateChanged(s fetcher.State) {
	t.send(StateMsg{State: s})
}

func (t *TUI) TransferStarted(c models.Candidate, dest string) {
	t.mu.Lock()
	t.lastProgress = time.Time{}
	t.mu.Unlock()
	t.send(TransferStartMsg{Candidate: c, Dest: dest})
}

func (t *TUI) Progress(p models.Progress) {
	t.mu.Lock()
	now := t.now()
	complete := p.TotalBytes > 0 && p.BytesTransferred >= p.TotalBytes
	if !complete && !t.lastProgress.IsZero() && now.Sub(t.lastProgress) < progressInterval {
		t.mu.Unlock()
		return
	}
	t.lastProgress = now
	t.mu.Unlock()

	t.send(ProgressMsg{Progress: p})
}

func (t *TUI) CandidateFinished(c models.Candidate, o models.Outcome) {
	t.send(CandidateDoneMsg{Candidate: c, Outcome: o})
}

func (t *TUI) QuotaSwept(r storage.SweepResult) {
	t.send(SweepMsg{Result: r})
}

func (t *TUI) CheckpointSaved(err error) {
	t.send(CheckpointMsg{Err: err})
}

func (t *TUI) RunFinished(stats models.RunStats, err error) {
	t.send(RunDoneMsg{Stats: stats, Err: err})
}
