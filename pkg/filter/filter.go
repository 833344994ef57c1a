// Package filter decides which candidates are worth downloading.
package filter

import (
	"fmt"

	"mediafetch/pkg/models"
)

// AcceptedMimeType is the only container format fetched.
const AcceptedMimeType = "video/mp4"

// Accept reports whether c is an mp4 video whose size lies in [minSize, maxSize].
func Accept(c models.Candidate, minSize, maxSize int64) bool {
	return rejectReason(c, minSize, maxSize) == ""
}

// Criteria bundles the size bounds, in bytes, applied by Accept.
type Criteria struct {
	MinSize int64
	MaxSize int64
}

// Accept applies the criteria to c.
func (cr Criteria) Accept(c models.Candidate) bool {
	return Accept(c, cr.MinSize, cr.MaxSize)
}

// Reject returns why c would be rejected, or "" when it is accepted.
func (cr Criteria) Reject(c models.Candidate) string {
	return rejectReason(c, cr.MinSize, cr.MaxSize)
}

func rejectReason(c models.Candidate, minSize, maxSize int64) string {
	switch {
	case c.Kind != models.MediaKindVideo:
		return fmt.Sprintf("not a video (%s)", c.Kind)
	case c.MimeType != AcceptedMimeType:
		return fmt.Sprintf("unsupported mime type %q", c.MimeType)
	case c.Size < minSize:
		return fmt.Sprintf("too small (%d < %d bytes)", c.Size, minSize)
	case c.Size > maxSize:
		return fmt.Sprintf("too large (%d > %d bytes)", c.Size, maxSize)
	}
	return ""
}
