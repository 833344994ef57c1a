// Package retry runs source requests with backoff.
//
// Typed errors from mediafetch/pkg/errors decide what is retried: network,
// rate limit and server errors are, auth and not-found errors are not.
// Rate limit errors wait the configured maximum delay rather than the
// exponential schedule.
//
//	policy := retry.FromConfig(cfg.Retry, log)
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (*Page, error) {
//	    return client.fetchPage(ctx, afterID)
//	}, policy)
package retry
