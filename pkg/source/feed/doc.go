// Package feed adapts an HTTP JSON message feed to fetcher.Source.
//
// Listing requests are paced by a ratelimit.Limiter and retried with the
// retry package; media bodies are streamed without an overall timeout so
// large files are bounded only by the run context.
package feed
