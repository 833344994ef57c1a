package feed

import (
	"mediafetch/pkg/models"
)

// ChannelInfo is returned by the channel endpoint.
type ChannelInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int64  `json:"message_count"`
	LastID       int64  `json:"last_id"`
}

// MessagePage is one listing response.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// Message is a single stream entry.
type Message struct {
	ID    int64  `json:"id"`
	Link  string `json:"link,omitempty"`
	Media *Media `json:"media,omitempty"`
}

// Media describes a message attachment.
type Media struct {
	Kind     string `json:"kind"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// Candidate converts m into the engine's view of it.
func (m Message) Candidate(base, channel string) models.Candidate {
	c := models.Candidate{
		ID:   m.ID,
		Kind: models.MediaKindOther,
		Link: m.Link,
	}
	if c.Link == "" {
		c.Link = MessageLink(base, channel, m.ID)
	}
	if m.Media == nil {
		return c
	}

	if m.Media.Kind == string(models.MediaKindVideo) {
		c.Kind = models.MediaKindVideo
	}
	c.MimeType = m.Media.MimeType
	c.Size = m.Media.Size
	c.Name = m.Media.FileName
	c.URL = m.Media.URL
	return c
}
