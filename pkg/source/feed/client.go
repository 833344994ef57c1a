package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mediafetch/pkg/config"
	apperrors "mediafetch/pkg/errors"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/ratelimit"
	"mediafetch/pkg/retry"
)

// Client talks to the feed HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	channel    string
	headers    map[string]string
	timeout    time.Duration
	pageSize   int
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client for the configured channel. A nil limiter
// means no pacing.
func NewClient(cfg config.SourceConfig, limiter ratelimit.Limiter, policy *retry.Config, log logger.Logger) *Client {
	log = logger.OrDefault(log).WithField("component", "feed")
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if policy == nil {
		policy = retry.DefaultConfig()
	}
	if policy.Logger == nil {
		p := *policy
		p.Logger = log
		policy = &p
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	return &Client{
		// media bodies stream for as long as they need; API calls are
		// bounded per request instead
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		channel:    cfg.Channel,
		headers:    headers,
		timeout:    cfg.RequestTimeout,
		pageSize:   cfg.PageSize,
		limiter:    limiter,
		retry:      policy,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, float64(duration.Microseconds())/1000)
	return resp, nil
}

// checkResponseStatus maps non-2xx responses onto typed errors.
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var msg string
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		msg = "authentication required"
	case http.StatusNotFound:
		msg = "resource not found"
	case http.StatusTooManyRequests:
		msg = "rate limit exceeded"
	default:
		msg = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}
	return apperrors.FromStatus(resp.StatusCode, msg)
}

// getJSON performs a paced, retried GET and decodes the body into target.
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	return retry.Do(ctx, func(parent context.Context) error {
		if err := c.limiter.Wait(parent); err != nil {
			return err
		}

		ctx := parent
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &apperrors.Error{
				Type:    apperrors.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
			}
		}

		resp, err := c.doRequest(req)
		if err != nil {
			if perr := parent.Err(); perr != nil {
				return perr
			}
			return err
		}
		defer resp.Body.Close()

		if err := checkResponseStatus(resp); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &apperrors.Error{
				Type:    apperrors.ErrorTypeNetwork,
				Message: fmt.Sprintf("failed to read response body: %v", err),
				Code:    resp.StatusCode,
			}
		}

		if err := json.Unmarshal(body, target); err != nil {
			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": apperrors.Truncate(string(body), 200),
			})
			return &apperrors.Error{
				Type:    apperrors.ErrorTypeParsing,
				Message: fmt.Sprintf("failed to parse JSON: %v", err),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}, c.retry)
}

// Channel fetches channel info. It doubles as a reachability and token check.
func (c *Client) Channel(ctx context.Context) (*ChannelInfo, error) {
	var info ChannelInfo
	if err := c.getJSON(ctx, ChannelURL(c.baseURL, c.channel), &info); err != nil {
		return nil, fmt.Errorf("fetch channel %q: %w", c.channel, err)
	}
	return &info, nil
}

// Messages fetches one page of messages with id > afterID.
func (c *Client) Messages(ctx context.Context, afterID int64) (*MessagePage, error) {
	var page MessagePage
	if err := c.getJSON(ctx, MessagesURL(c.baseURL, c.channel, afterID, c.pageSize), &page); err != nil {
		return nil, fmt.Errorf("list messages after %d: %w", afterID, err)
	}
	return &page, nil
}

// OpenMedia starts streaming a media body. The caller closes it.
func (c *Client) OpenMedia(ctx context.Context, ref string) (io.ReadCloser, error) {
	if ref == "" {
		return nil, errors.New("message has no media url")
	}
	mediaURL, err := ResolveMediaURL(c.baseURL, ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	if err := checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}
