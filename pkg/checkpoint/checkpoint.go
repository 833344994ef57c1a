package checkpoint

import (
	"encoding/json"
	"sort"
)

// Checkpoint is the durable resume state of a fetch run.
//
// LastID is the high-water mark of ids seen; ProcessedIDs holds every id that
// reached a terminal outcome. FailedIDs is the subset whose transfer failed,
// kept so failures can be retried on request.
type Checkpoint struct {
	LastID    int64
	processed map[int64]struct{}
	failed    map[int64]struct{}
}

// fileFormat is the on-disk JSON layout.
type fileFormat struct {
	LastID       int64   `json:"last_id"`
	ProcessedIDs []int64 `json:"processed_ids"`
	FailedIDs    []int64 `json:"failed_ids,omitempty"`
}

// New returns an empty checkpoint.
func New() *Checkpoint {
	return &Checkpoint{
		processed: make(map[int64]struct{}),
		failed:    make(map[int64]struct{}),
	}
}

// IsProcessed reports whether id already reached a terminal outcome.
func (c *Checkpoint) IsProcessed(id int64) bool {
	_, ok := c.processed[id]
	return ok
}

// IsFailed reports whether id is recorded as a failed transfer.
func (c *Checkpoint) IsFailed(id int64) bool {
	_, ok := c.failed[id]
	return ok
}

// Record marks id processed and advances LastID.
func (c *Checkpoint) Record(id int64) {
	c.processed[id] = struct{}{}
	delete(c.failed, id)
	if id > c.LastID {
		c.LastID = id
	}
}

// RecordFailed is Record for a candidate whose transfer failed.
func (c *Checkpoint) RecordFailed(id int64) {
	c.Record(id)
	c.failed[id] = struct{}{}
}

// Forget removes ids from the checkpoint and lowers LastID below the smallest
// forgotten id so the next run streams them again. It returns how many ids
// were actually present.
func (c *Checkpoint) Forget(ids ...int64) int {
	removed := 0
	lowest := int64(-1)
	for _, id := range ids {
		if _, ok := c.processed[id]; !ok {
			continue
		}
		delete(c.processed, id)
		delete(c.failed, id)
		removed++
		if lowest < 0 || id < lowest {
			lowest = id
		}
	}
	if removed > 0 && lowest-1 < c.LastID {
		c.LastID = lowest - 1
		if c.LastID < 0 {
			c.LastID = 0
		}
	}
	return removed
}

// RetryFailed forgets every failed id and returns them in ascending order.
func (c *Checkpoint) RetryFailed() []int64 {
	ids := c.Failed()
	c.Forget(ids...)
	return ids
}

// Processed returns the processed ids in ascending order.
func (c *Checkpoint) Processed() []int64 {
	return sortedKeys(c.processed)
}

// Failed returns the failed ids in ascending order.
func (c *Checkpoint) Failed() []int64 {
	return sortedKeys(c.failed)
}

// Len returns the number of processed ids.
func (c *Checkpoint) Len() int {
	return len(c.processed)
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	out := New()
	out.LastID = c.LastID
	for id := range c.processed {
		out.processed[id] = struct{}{}
	}
	for id := range c.failed {
		out.failed[id] = struct{}{}
	}
	return out
}

// MarshalJSON writes the checkpoint with sorted id lists.
func (c *Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileFormat{
		LastID:       c.LastID,
		ProcessedIDs: c.Processed(),
		FailedIDs:    c.Failed(),
	})
}

// UnmarshalJSON accepts files with or without failed_ids.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = *New()
	c.LastID = f.LastID
	for _, id := range f.ProcessedIDs {
		c.processed[id] = struct{}{}
	}
	for _, id := range f.FailedIDs {
		if _, ok := c.processed[id]; ok {
			c.failed[id] = struct{}{}
		}
	}
	return nil
}

func sortedKeys(m map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
