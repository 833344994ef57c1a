package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediafetch/pkg/config"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Second, "01:01"},
		{time.Hour - time.Second, "59:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{26 * time.Hour, "26:00:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "50.0 MB", FormatBytes(50*1024*1024))
	assert.Equal(t, "1.5 GB", FormatBytes(1536*1024*1024))
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("-", 10), Bar(0, 10))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("-", 5), Bar(50, 10))
	assert.Equal(t, strings.Repeat("█", 10), Bar(150, 10))
	assert.Equal(t, strings.Repeat("-", 10), Bar(-5, 10))
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine("#42", models.Progress{
		BytesTransferred: 25 * 1024 * 1024,
		TotalBytes:       50 * 1024 * 1024,
		Speed:            2 * 1024 * 1024,
		ETA:              75 * time.Second,
	})
	assert.Equal(t, "#42 |"+strings.Repeat("█", 15)+strings.Repeat("-", 15)+"|  50.0% ETA 01:15   2.00 MB/s", line)
}

func TestProgressDisplayThrottlesRedraws(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, false)
	now := time.Unix(0, 0)
	d.now = func() time.Time { return now }

	d.TransferStarted(models.Candidate{ID: 1, Name: "a.mp4", Size: 100}, "/tmp/1_a.mp4")
	d.Progress(models.Progress{BytesTransferred: 0, TotalBytes: 100})
	d.Progress(models.Progress{BytesTransferred: 10, TotalBytes: 100})
	now = now.Add(200 * time.Millisecond)
	d.Progress(models.Progress{BytesTransferred: 50, TotalBytes: 100})
	d.Progress(models.Progress{BytesTransferred: 100, TotalBytes: 100})

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\r#1 |"), "second tick is throttled, final tick always drawn")
	assert.Contains(t, out, "1_a.mp4")
	assert.Contains(t, out, "100.0%")
}

func TestProgressDisplayOutcomesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, true)

	c := models.Candidate{ID: 3}
	d.CandidateFinished(c, models.Outcome{Kind: models.OutcomeDownloaded, Bytes: 2048})
	d.CandidateFinished(c, models.Outcome{Kind: models.OutcomeFailed, Reason: strings.Repeat("x", 300)})
	d.CandidateFinished(c, models.Outcome{Kind: models.OutcomeSkippedByUser})
	d.CandidateFinished(c, models.Outcome{Kind: models.OutcomeFiltered, Reason: "not a video (other)"})
	d.QuotaSwept(storage.SweepResult{Before: 300, After: 200, Deleted: []storage.DiskEntry{{Size: 100}}})
	d.RunFinished(models.RunStats{Downloaded: 1, Failed: 1, Skipped: 2, Elapsed: 65 * time.Second}, fetcher.ErrInterrupted)

	out := buf.String()
	assert.Contains(t, out, "Downloaded (2.0 KB)")
	assert.Contains(t, out, "Download failed: "+strings.Repeat("x", 97)+"...")
	assert.Contains(t, out, "skipped by user")
	assert.Contains(t, out, "not a video (other)")
	assert.Contains(t, out, "removed 1 old files")
	assert.Contains(t, out, "run again to resume")
	assert.Contains(t, out, "01:05")
}

func TestSummaryLine(t *testing.T) {
	line := SummaryLine(models.RunStats{Downloaded: 4, Failed: 1, Skipped: 2, AlreadyPresent: 3, Elapsed: 2 * time.Hour})
	assert.Contains(t, line, "downloaded")
	assert.Contains(t, line, " 4 |")
	assert.Contains(t, line, "02:00:00")
	assert.Contains(t, line, "present")
}

type recordingSender struct {
	titles   []string
	messages []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func TestRunNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewRunNotifier(NewNotifierWithSender(sender), config.NotificationConfig{Enabled: true, OnComplete: true, OnError: true})

	n.RunFinished(models.RunStats{Downloaded: 2}, nil)
	n.RunFinished(models.RunStats{}, errors.New("stream: connection lost"))
	require.Len(t, sender.titles, 2)
	assert.Contains(t, sender.messages[0], "2 downloaded")
	assert.Equal(t, "mediafetch stopped", sender.titles[1])

	disabled := &recordingSender{}
	NewRunNotifier(NewNotifierWithSender(disabled), config.NotificationConfig{Enabled: false, OnComplete: true}).
		RunFinished(models.RunStats{}, nil)
	assert.Empty(t, disabled.titles)

	assert.NoError(t, NewNotifierWithSender(nil).Send("t", "m"))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	PrintBanner("https://feed.example.com/demo", "downloads", "ss", true)
	assert.Contains(t, buf.String(), "M E D I A F E T C H")
	assert.Contains(t, buf.String(), "Type 'ss' to skip")

	buf.Reset()
	PrintBanner("src", "dir", "ss", false)
	assert.NotContains(t, buf.String(), "Type 'ss'")
}
