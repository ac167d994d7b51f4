package resolve

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedHTTPClient wraps an HTTPClient with a token-bucket rate
// limiter. Each provider carries its own instance so one chatty
// provider cannot starve the others.
type RateLimitedHTTPClient struct {
	underlying HTTPClient
	limiter    *rate.Limiter
}

// NewRateLimitedHTTPClient creates a client that spaces requests by at
// least requestInterval, allowing a burst of one.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	if underlying == nil {
		underlying = &http.Client{Timeout: 10 * time.Second}
	}
	return &RateLimitedHTTPClient{
		underlying: underlying,
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
	}
}

// Do waits for the rate limiter, honoring the request context, then
// forwards to the underlying client.
func (client *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := client.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return client.underlying.Do(req)
}
