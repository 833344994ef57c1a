package fetcher

import (
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

// State is the engine's position in a run.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCheckingCheckpoint
	StateFiltering
	StateEnforcingQuota
	StateTransferring
	StateRecording
	StateDraining
	StateDone
	StateAborted
)

var stateNames = [...]string{
	"idle", "connecting", "streaming", "checking_checkpoint", "filtering",
	"enforcing_quota", "transferring", "recording", "draining", "done", "aborted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the run has ended.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Reporter observes a run. Calls are made from the engine goroutine.
type Reporter interface {
	StateChanged(s State)
	TransferStarted(c models.Candidate, dest string)
	Progress(p models.Progress)
	CandidateFinished(c models.Candidate, o models.Outcome)
	QuotaSwept(r storage.SweepResult)
	CheckpointSaved(err error)
	RunFinished(stats models.RunStats, err error)
}

// NopReporter ignores every event. Embed it to implement only some methods.
type NopReporter struct{}

func (NopReporter) StateChanged(State)                                {}
func (NopReporter) TransferStarted(models.Candidate, string)           {}
func (NopReporter) Progress(models.Progress)                           {}
func (NopReporter) CandidateFinished(models.Candidate, models.Outcome) {}
func (NopReporter) QuotaSwept(storage.SweepResult)                     {}
func (NopReporter) CheckpointSaved(error)                              {}
func (NopReporter) RunFinished(models.RunStats, error)                 {}

// MultiReporter fans events out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) StateChanged(s State) {
	for _, r := range m {
		r.StateChanged(s)
	}
}

func (m MultiReporter) TransferStarted(c models.Candidate, dest string) {
	for _, r := range m {
		r.TransferStarted(c, dest)
	}
}

func (m MultiReporter) Progress(p models.Progress) {
	for _, r := range m {
		r.Progress(p)
	}
}

func (m MultiReporter) CandidateFinished(c models.Candidate, o models.Outcome) {
	for _, r := range m {
		r.CandidateFinished(c, o)
	}
}

func (m MultiReporter) QuotaSwept(res storage.SweepResult) {
	for _, r := range m {
		r.QuotaSwept(res)
	}
}

func (m MultiReporter) CheckpointSaved(err error) {
	for _, r := range m {
		r.CheckpointSaved(err)
	}
}

func (m MultiReporter) RunFinished(stats models.RunStats, err error) {
	for _, r := range m {
		r.RunFinished(stats, err)
	}
}
