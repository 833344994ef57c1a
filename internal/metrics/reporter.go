package metrics

import (
	"errors"

	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

var allStates = []fetcher.State{
	fetcher.StateIdle,
	fetcher.StateConnecting,
	fetcher.StateStreaming,
	fetcher.StateCheckingCheckpoint,
	fetcher.StateFiltering,
	fetcher.StateEnforcingQuota,
	fetcher.StateTransferring,
	fetcher.StateRecording,
	fetcher.StateDraining,
	fetcher.StateDone,
	fetcher.StateAborted,
}

// Reporter records engine events into Metrics.
type Reporter struct {
	fetcher.NopReporter
	m *Metrics
}

var _ fetcher.Reporter = (*Reporter)(nil)

// NewReporter returns a fetcher.Reporter backed by m.
func NewReporter(m *Metrics) *Reporter {
	return &Reporter{m: m}
}

func (r *Reporter) StateChanged(s fetcher.State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		r.m.State.WithLabelValues(st.String()).Set(v)
	}
}

func (r *Reporter) CandidateFinished(_ models.Candidate, o models.Outcome) {
	r.m.Outcomes.WithLabelValues(o.Kind.String()).Inc()
	if o.Kind == models.OutcomeDownloaded {
		r.m.BytesDownloaded.Add(float64(o.Bytes))
		r.m.TransferSeconds.Observe(o.Duration.Seconds())
	}
}

func (r *Reporter) QuotaSwept(res storage.SweepResult) {
	r.m.Evictions.Add(float64(len(res.Deleted)))
	r.m.EvictedBytes.Add(float64(res.Freed()))
	r.m.DirectoryBytes.Set(float64(res.After))
}

func (r *Reporter) CheckpointSaved(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.m.CheckpointSaves.WithLabelValues(result).Inc()
}

func (r *Reporter) RunFinished(_ models.RunStats, err error) {
	switch {
	case err == nil:
		r.m.Runs.WithLabelValues("completed").Inc()
	case errors.Is(err, fetcher.ErrInterrupted):
		r.m.Runs.WithLabelValues("interrupted").Inc()
	default:
		r.m.Runs.WithLabelValues("failed").Inc()
	}
}
