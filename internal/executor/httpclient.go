package executor

import (
	"net/http"
	"time"
)

// NewPooledHTTPClient builds an http.Client tuned for many short-lived
// calls to a local inference sidecar: a bounded idle-connection pool and a
// fixed per-request timeout.
func NewPooledHTTPClient(poolSize int, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          poolSize,
			MaxIdleConnsPerHost:   poolSize,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}
