package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/storage"
	"mediafetch/pkg/ui"
)

const logo = "M E D I A F E T C H"

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	width := m.width - 2
	if width < 40 {
		width = 40
	}

	sections := []string{
		logoStyle.Render(logo) + "  " + dimStyle.Render(m.source+" → "+m.folder),
		m.renderStatusLine(),
		m.renderTransferPanel(width),
		m.renderStatsPanel(width),
		m.renderLogsPanel(width),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp(width))
	} else {
		sections = append(sections, helpStyle.Render("s skip • q stop • ? help"))
	}

	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderStatusLine() string {
	switch {
	case m.done && m.runErr == nil:
		return successStyle.Render("✓ All done, no more videos to download")
	case m.done && errors.Is(m.runErr, fetcher.ErrInterrupted):
		return warningStyle.Render("! Stopped. Run again to resume")
	case m.done:
		return errorStyle.Render("✗ " + m.runErr.Error())
	case m.stopping:
		return warningStyle.Render(m.spinner.View() + " Stopping...")
	default:
		return m.spinner.View() + " " + labelStyle.Render(stateLabel(m.state))
	}
}

func (m Model) renderTransferPanel(width int) string {
	title := titleStyle.Render(" TRANSFER ")

	if m.current == nil {
		content := dimStyle.Render("Waiting for the next video")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	c := m.current.Candidate
	p := m.current.Progress
	info := fmt.Sprintf("#%d %s", c.ID, storage.FileName(c))
	detail := fmt.Sprintf("%s / %s @ %s  ETA %s",
		ui.FormatBytes(p.BytesTransferred),
		ui.FormatBytes(p.TotalBytes),
		speedStyle.Render(fmt.Sprintf("%.2f MB/s", ui.MegabytesPerSecond(p.Speed))),
		ui.FormatClock(p.ETA),
	)

	lines := []string{title, labelStyle.Render(info), m.bar.ViewAs(p.Percent() / 100), detail}
	if c.Link != "" {
		lines = append(lines, dimStyle.Render(c.Link))
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" STATS ")
	stats := m.Stats()

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(label), valueStyle.Render(value))
	}

	lines := []string{
		title,
		row("Elapsed:", ui.FormatClock(stats.Elapsed)),
		row("Downloaded:", fmt.Sprintf("%d (%s)", stats.Downloaded, ui.FormatBytes(stats.BytesDownloaded))),
		row("Failed:", fmt.Sprintf("%d", stats.Failed)),
		row("Skipped:", fmt.Sprintf("%d (%d filtered)", stats.Skipped, stats.Filtered)),
		row("Already present:", fmt.Sprintf("%d", stats.AlreadyPresent)),
	}
	if m.sweeps > 0 {
		lines = append(lines, row("Evicted:", fmt.Sprintf("%s in %s", plural(m.evicted, "file"), plural(m.sweeps, "sweep"))))
	}
	if m.saveErrors > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Checkpoint save errors: %d", m.saveErrors)))
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	rows := 8
	if m.height > 0 {
		if free := m.height - 26; free > rows {
			rows = free
		}
	}
	start := len(m.logs) - rows
	if start < 0 {
		start = 0
	}

	maxLen := width - 22
	var lines []string
	for _, entry := range m.logs[start:] {
		msg := entry.Message
		if maxLen > 3 && len(msg) > maxLen {
			msg = msg[:maxLen-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(entry.Time.Format("15:04:05")),
			levelStyle(entry.Level).Render(fmt.Sprintf("[%-7s]", entry.Level)),
			msg,
		))
	}

	content := strings.Join(lines, "\n")
	if content == "" {
		content = dimStyle.Render("No events yet...")
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m Model) renderHelp(width int) string {
	help := `Keys:
  s        - Skip the current video
  q        - Stop the run (press again to force)
  ctrl+l   - Clear the log
  ?        - Toggle this help

Skipped and finished videos are remembered; a stopped run resumes
where it left off.`
	return panelStyle.Width(width).Render(help)
}

func stateLabel(s fetcher.State) string {
	switch s {
	case fetcher.StateIdle:
		return "Starting"
	case fetcher.StateConnecting:
		return "Connecting to source"
	case fetcher.StateStreaming, fetcher.StateCheckingCheckpoint, fetcher.StateFiltering:
		return "Scanning messages"
	case fetcher.StateEnforcingQuota:
		return "Checking disk quota"
	case fetcher.StateTransferring:
		return "Downloading"
	case fetcher.StateRecording:
		return "Saving progress"
	case fetcher.StateDraining:
		return "Finishing"
	default:
		return s.String()
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
