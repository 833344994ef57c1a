package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mediafetch/internal/control"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

const (
	levelInfo    = "INFO"
	levelSuccess = "SUCCESS"
	levelWarn    = "WARN"
	levelError   = "ERROR"

	defaultMaxLogs = 50
)

// transfer is the candidate currently being downloaded.
type transfer struct {
	Candidate models.Candidate
	Dest      string
	Progress  models.Progress
}

// logEntry is one line of the log tail.
type logEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the bubbletea model of a fetch run. It is only touched from the
// program goroutine.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	source string
	folder string

	controls *control.Chan
	stats    *fetcher.Stats

	state      fetcher.State
	current    *transfer
	sweeps     int
	evicted    int
	saveErrors int

	logs    []logEntry
	maxLogs int

	width    int
	height   int
	showHelp bool
	stopping bool
	done     bool
	runErr   error
	final    models.RunStats

	now func() time.Time
}

// NewModel creates a model. Key presses are forwarded to controls.
func NewModel(source, folder string, controls *control.Chan) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	stats := fetcher.NewStats(nil)
	stats.Reset()

	return Model{
		spinner:  s,
		bar:      bar,
		source:   source,
		folder:   folder,
		controls: controls,
		stats:    stats,
		maxLogs:  defaultMaxLogs,
		now:      time.Now,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m *Model) startTransfer(c models.Candidate, dest string) {
	m.current = &transfer{
		Candidate: c,
		Dest:      dest,
		Progress:  models.Progress{CandidateID: c.ID, TotalBytes: c.Size},
	}
	m.addLog(levelInfo, "Downloading "+storage.FileName(c))
}

func (m *Model) updateProgress(p models.Progress) {
	if m.current == nil || m.current.Candidate.ID != p.CandidateID {
		return
	}
	m.current.Progress = p
}

func (m *Model) finishCandidate(c models.Candidate, o models.Outcome) {
	if m.current != nil && m.current.Candidate.ID == c.ID {
		m.current = nil
	}
	m.stats.Apply(o)

	name := storage.FileName(c)
	switch o.Kind {
	case models.OutcomeDownloaded:
		m.addLog(levelSuccess, "Downloaded "+name)
	case models.OutcomeFailed:
		m.addLog(levelError, "Failed "+name+": "+o.Reason)
	case models.OutcomeSkippedByUser:
		m.addLog(levelWarn, "Skipped "+name)
	case models.OutcomeInterrupted:
		m.addLog(levelWarn, "Interrupted "+name)
	case models.OutcomeAlreadyPresent:
		m.addLog(levelInfo, "Already downloaded "+name)
	}
}

func (m *Model) recordSweep(r storage.SweepResult) {
	m.sweeps++
	m.evicted += len(r.Deleted)
	m.addLog(levelWarn, "Disk quota reached, removed "+plural(len(r.Deleted), "file"))
}

func (m *Model) recordSave(err error) {
	if err == nil {
		return
	}
	m.saveErrors++
	m.addLog(levelError, "Checkpoint save failed: "+err.Error())
}

func (m *Model) finishRun(stats models.RunStats, err error) {
	m.done = true
	m.current = nil
	m.final = stats
	m.runErr = err
}

// Stats returns the counters shown in the panel. After the run has finished
// they are the engine's final figures.
func (m *Model) Stats() models.RunStats {
	if m.done {
		return m.final
	}
	return m.stats.Snapshot()
}

// addLog appends to the log tail, keeping the last maxLogs entries.
func (m *Model) addLog(level, message string) {
	m.logs = append(m.logs, logEntry{Time: m.now(), Level: level, Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

func (m *Model) send(ev control.Event) {
	if m.controls != nil {
		m.controls.Send(ev)
	}
}
