package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// ChannelEndpoint is the channel info path pattern
	ChannelEndpoint = "/api/v1/channels/%s"

	// MessagesEndpoint is the message listing path pattern
	MessagesEndpoint = "/api/v1/channels/%s/messages"

	// DefaultPageSize is used when the configured page size is not positive
	DefaultPageSize = 100

	// MaxPageSize caps a single listing request
	MaxPageSize = 1000
)

// ChannelURL builds the channel info URL.
func ChannelURL(base, channel string) string {
	return strings.TrimRight(base, "/") + fmt.Sprintf(ChannelEndpoint, url.PathEscape(channel))
}

// MessagesURL builds the listing URL for messages with id > afterID.
func MessagesURL(base, channel string, afterID int64, limit int) string {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("after_id", strconv.FormatInt(afterID, 10))
	params.Set("limit", strconv.Itoa(limit))

	return strings.TrimRight(base, "/") + fmt.Sprintf(MessagesEndpoint, url.PathEscape(channel)) + "?" + params.Encode()
}

// MessageLink is the human-facing reference to a message, logged with
// each transfer.
func MessageLink(base, channel string, id int64) string {
	return fmt.Sprintf("%s/c/%s/%d", strings.TrimRight(base, "/"), url.PathEscape(channel), id)
}

// ResolveMediaURL resolves ref against base. Absolute refs are returned as is.
func ResolveMediaURL(base, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid media url %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return b.ResolveReference(u).String(), nil
}
