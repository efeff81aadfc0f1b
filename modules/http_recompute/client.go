package http_recompute

import (
	"net/http"
	"time"
)

const defaultTimeout = 60 * time.Second

// newHTTPClient returns a pooled client. An empty timeout means the default.
func newHTTPClient(timeout string) (*http.Client, error) {
	d := defaultTimeout
	if timeout != "" {
		var err error
		if d, err = time.ParseDuration(timeout); err != nil {
			return nil, err
		}
	}

	return &http.Client{
		Timeout: d,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}, nil
}
