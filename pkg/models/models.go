package models

import (
	"fmt"
	"time"
)

// MediaKind classifies the attachment carried by a message.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindOther MediaKind = "other"
)

// Candidate is one attachment yielded by a message source.
type Candidate struct {
	ID       int64     `json:"id"`
	Kind     MediaKind `json:"kind"`
	MimeType string    `json:"mime_type"`
	Size     int64     `json:"size"`
	Name     string    `json:"name"`

	// URL is the source-private locator of the payload.
	URL string `json:"url,omitempty"`
	// Link is a human-facing reference to the message, used in logs.
	Link string `json:"link,omitempty"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("#%d %s (%s, %d bytes)", c.ID, c.Name, c.MimeType, c.Size)
}

// OutcomeKind is the terminal classification of a candidate.
type OutcomeKind int

const (
	OutcomeDownloaded OutcomeKind = iota
	OutcomeAlreadyPresent
	OutcomeSkippedByUser
	OutcomeFailed
	OutcomeFiltered
	// OutcomeInterrupted is produced when the whole run is terminated
	// mid-transfer. It is never recorded in the checkpoint.
	OutcomeInterrupted
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeDownloaded:     "downloaded",
	OutcomeAlreadyPresent: "already_present",
	OutcomeSkippedByUser:  "skipped_by_user",
	OutcomeFailed:         "failed",
	OutcomeFiltered:       "filtered",
	OutcomeInterrupted:    "interrupted",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the outcome finishes the candidate for good.
func (k OutcomeKind) Terminal() bool {
	return k != OutcomeInterrupted
}

// Outcome describes how a single candidate ended.
type Outcome struct {
	Kind     OutcomeKind
	Reason   string
	Bytes    int64
	Duration time.Duration
}

// Progress is a point-in-time sample of an active transfer.
type Progress struct {
	CandidateID      int64
	BytesTransferred int64
	TotalBytes       int64
	Elapsed          time.Duration
	// Speed is in bytes per second.
	Speed float64
	ETA   time.Duration
}

// Percent returns completion in the range [0, 100].
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := float64(p.BytesTransferred) / float64(p.TotalBytes) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// RunStats aggregates outcomes for a single run.
type RunStats struct {
	Downloaded      int           `json:"downloaded"`
	AlreadyPresent  int           `json:"already_present"`
	Failed          int           `json:"failed"`
	Skipped         int           `json:"skipped"`
	Filtered        int           `json:"filtered"`
	BytesDownloaded int64         `json:"bytes_downloaded"`
	StartTime       time.Time     `json:"start_time"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Total returns the number of candidates that reached a terminal outcome.
func (s RunStats) Total() int {
	return s.Downloaded + s.AlreadyPresent + s.Failed + s.Skipped
}
