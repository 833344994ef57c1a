package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "mediafetch/pkg/errors"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

// redrawInterval throttles progress line updates.
const redrawInterval = 100 * time.Millisecond

// ProgressDisplay renders a run on a plain terminal: one progress bar per
// transfer, a status line per outcome and a summary at the end.
type ProgressDisplay struct {
	fetcher.NopReporter

	mu        sync.Mutex
	out       io.Writer
	label     string
	lastDraw  time.Time
	lineWidth int
	verbose   bool
	now       func() time.Time
}

// NewProgressDisplay writes to out. Verbose also reports filtered and
// already present candidates.
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{out: out, verbose: verbose, now: time.Now}
}

// TransferStarted prints the transfer header.
func (p *ProgressDisplay) TransferStarted(c models.Candidate, dest string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.label = fmt.Sprintf("#%d", c.ID)
	p.lastDraw = time.Time{}
	fmt.Fprintf(p.out, "\n%s %s (%s)\n", Cyan("▼"), storage.FileName(c), FormatBytes(c.Size))
	if c.Link != "" {
		fmt.Fprintf(p.out, "  %s\n", Dim(c.Link))
	}
}

// Progress redraws the bar.
func (p *ProgressDisplay) Progress(pr models.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	done := pr.TotalBytes > 0 && pr.BytesTransferred >= pr.TotalBytes
	if !done && !p.lastDraw.IsZero() && now.Sub(p.lastDraw) < redrawInterval {
		return
	}
	p.lastDraw = now

	line := ProgressLine(p.label, pr)
	pad := ""
	if n := p.lineWidth - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lineWidth = len(line)
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
}

// ProgressLine formats "label |bar| pct% ETA mm:ss speed MB/s".
func ProgressLine(label string, pr models.Progress) string {
	return fmt.Sprintf("%s |%s| %5.1f%% ETA %s %6.2f MB/s",
		label,
		Bar(pr.Percent(), BarWidth),
		pr.Percent(),
		FormatClock(pr.ETA),
		MegabytesPerSecond(pr.Speed),
	)
}

// CandidateFinished prints the outcome of one candidate.
func (p *ProgressDisplay) CandidateFinished(c models.Candidate, o models.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lineWidth = 0
	switch o.Kind {
	case models.OutcomeDownloaded:
		fmt.Fprintf(p.out, "\n%s Downloaded (%s)\n", Green("✓"), FormatBytes(o.Bytes))
	case models.OutcomeFailed:
		fmt.Fprintf(p.out, "\n%s Download failed: %s\n", Red("✗"), apperrors.Truncate(o.Reason, apperrors.MaxReasonLength))
	case models.OutcomeSkippedByUser:
		fmt.Fprintf(p.out, "\n%s Download skipped by user\n", Yellow("»"))
	case models.OutcomeInterrupted:
		fmt.Fprintf(p.out, "\n%s Download interrupted\n", Yellow("!"))
	case models.OutcomeAlreadyPresent:
		fmt.Fprintf(p.out, "%s Already downloaded, skipping\n", Dim("•"))
	case models.OutcomeFiltered:
		if p.verbose {
			fmt.Fprintf(p.out, "%s #%d skipped: %s\n", Dim("•"), c.ID, o.Reason)
		}
	}
}

// QuotaSwept reports evictions.
func (p *ProgressDisplay) QuotaSwept(r storage.SweepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s Disk quota reached: removed %d old files, freed %s\n",
		Yellow("!"), len(r.Deleted), FormatBytes(r.Freed()))
}

// RunFinished prints the summary line.
func (p *ProgressDisplay) RunFinished(stats models.RunStats, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case err == nil:
		fmt.Fprintf(p.out, "\n%s All done, no more videos to download.\n", Green("✓"))
	case errors.Is(err, fetcher.ErrInterrupted):
		fmt.Fprintf(p.out, "\n%s Stopped. Progress is saved; run again to resume.\n", Yellow("!"))
	default:
		fmt.Fprintf(p.out, "\n%s %s\n", Red("✗"), apperrors.Truncate(err.Error(), apperrors.MaxReasonLength))
	}
	fmt.Fprintln(p.out, SummaryLine(stats))
}

// SummaryLine formats "Summary: downloaded N | failed N | skipped N | time".
func SummaryLine(stats models.RunStats) string {
	line := fmt.Sprintf("Summary: %s %d | %s %d | %s %d | %s",
		Green("downloaded"), stats.Downloaded,
		Red("failed"), stats.Failed,
		Yellow("skipped"), stats.Skipped,
		FormatClock(stats.Elapsed),
	)
	if stats.AlreadyPresent > 0 {
		line += fmt.Sprintf(" | %s %d", Dim("present"), stats.AlreadyPresent)
	}
	return line
}
