package llm

import "errors"

var (
	// ErrRateLimited marks a response that signalled the rate-limit
	// condition. The retrying wrapper backs off longer for these.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTransport marks a failure below the service protocol (network,
	// timeout). Retryable with a short backoff.
	ErrTransport = errors.New("transport failure")

	// ErrMaxRetries is returned after all attempts are exhausted. It wraps
	// the last attempt's error.
	ErrMaxRetries = errors.New("max retries exceeded")
)
