package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediafetch/pkg/models"
)

const mb = 1024 * 1024

func video(size int64) models.Candidate {
	return models.Candidate{ID: 1, Kind: models.MediaKindVideo, MimeType: "video/mp4", Size: size, Name: "a.mp4"}
}

func TestAccept(t *testing.T) {
	min, max := int64(1*mb), int64(2000*mb)

	tests := []struct {
		name string
		c    models.Candidate
		want bool
	}{
		{"at minimum", video(min), true},
		{"below minimum", video(min - 1), false},
		{"at maximum", video(max), true},
		{"above maximum", video(max + 1), false},
		{"typical", video(50 * mb), true},
		{"webm", models.Candidate{Kind: models.MediaKindVideo, MimeType: "video/webm", Size: 50 * mb}, false},
		{"document", models.Candidate{Kind: models.MediaKindOther, MimeType: "video/mp4", Size: 50 * mb}, false},
		{"no mime", models.Candidate{Kind: models.MediaKindVideo, Size: 50 * mb}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accept(tt.c, min, max))
		})
	}
}

func TestCriteriaReject(t *testing.T) {
	cr := Criteria{MinSize: 10, MaxSize: 20}

	assert.Empty(t, cr.Reject(video(15)))
	assert.True(t, cr.Accept(video(10)))
	assert.Contains(t, cr.Reject(video(9)), "too small")
	assert.Contains(t, cr.Reject(video(21)), "too large")
	assert.Contains(t, cr.Reject(models.Candidate{Kind: models.MediaKindOther}), "not a video")
	assert.Contains(t, cr.Reject(models.Candidate{Kind: models.MediaKindVideo, MimeType: "image/png", Size: 15}), "mime")
}
