package feed

import (
	"context"
	"fmt"
	"io"

	"mediafetch/pkg/config"
	apperrors "mediafetch/pkg/errors"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/models"
	"mediafetch/pkg/ratelimit"
	"mediafetch/pkg/retry"
)

// Source is a fetcher.Source backed by the feed HTTP API.
type Source struct {
	client *Client
	cfg    config.SourceConfig
	logger logger.Logger
}

// NewSource builds a Source from configuration.
func NewSource(cfg config.SourceConfig, limiter ratelimit.Limiter, policy *retry.Config, log logger.Logger) *Source {
	log = logger.OrDefault(log)
	return &Source{
		client: NewClient(cfg, limiter, policy, log),
		cfg:    cfg,
		logger: log.WithField("component", "feed"),
	}
}

// Client exposes the underlying API client.
func (s *Source) Client() *Client {
	return s.client
}

// Connect verifies the channel is reachable with the configured token.
func (s *Source) Connect(ctx context.Context) (fetcher.Session, error) {
	info, err := s.client.Channel(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.InfoWithFields("Connected to channel", map[string]interface{}{
		"channel":       s.cfg.Channel,
		"title":         info.Title,
		"message_count": info.MessageCount,
		"last_id":       info.LastID,
	})
	return &session{client: s.client, cfg: s.cfg, logger: s.logger}, nil
}

type session struct {
	client *Client
	cfg    config.SourceConfig
	logger logger.Logger
}

func (s *session) Candidates(ctx context.Context, afterID int64) fetcher.Iterator {
	return &iterator{session: s, cursor: afterID, more: true}
}

func (s *session) Open(ctx context.Context, c models.Candidate) (io.ReadCloser, error) {
	return s.client.OpenMedia(ctx, c.URL)
}

func (s *session) Close() error {
	s.client.httpClient.CloseIdleConnections()
	s.logger.Debug("Disconnected from channel")
	return nil
}

// iterator pages through the listing in ascending id order.
type iterator struct {
	session *session
	cursor  int64
	buf     []Message
	more    bool
}

func (it *iterator) Next(ctx context.Context) (models.Candidate, error) {
	for len(it.buf) == 0 {
		if !it.more {
			return models.Candidate{}, io.EOF
		}
		if err := it.fill(ctx); err != nil {
			return models.Candidate{}, err
		}
	}

	m := it.buf[0]
	it.buf = it.buf[1:]
	it.cursor = m.ID
	return m.Candidate(it.session.cfg.BaseURL, it.session.cfg.Channel), nil
}

func (it *iterator) fill(ctx context.Context) error {
	page, err := it.session.client.Messages(ctx, it.cursor)
	if err != nil {
		return err
	}

	last := it.cursor
	for _, m := range page.Messages {
		// drop anything out of order so ids stay strictly ascending
		if m.ID <= last {
			continue
		}
		it.buf = append(it.buf, m)
		last = m.ID
	}

	if page.HasMore && len(it.buf) == 0 {
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeParsing,
			Message: fmt.Sprintf("page after message %d has more messages but none with a higher id", it.cursor),
		}
	}
	it.more = page.HasMore
	it.session.logger.DebugWithFields("Fetched message page", map[string]interface{}{
		"after_id": it.cursor,
		"count":    len(page.Messages),
		"has_more": page.HasMore,
	})
	return nil
}
