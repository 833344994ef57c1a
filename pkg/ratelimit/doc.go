// Package ratelimit paces requests to the message source.
//
// TokenBucket refills continuously, so a limit of 60 per minute admits one
// request per second after the initial burst is spent. Wait honors context
// cancellation so a terminated run never sits in a limiter.
//
//	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
