package app

import (
	"net"
	"net/http"
	"time"
)

// newHighThroughputHTTPClient returns an HTTP client tuned for many parallel
// requests to distinct hosts. Connection setup is bounded by timeout, the
// configured per-call limit; whole-request deadlines come from contexts, so
// the client itself sets none.
func newHighThroughputHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,  // no global limit
		MaxIdleConnsPerHost:   16, // pages rarely repeat a host
		MaxConnsPerHost:       0,  // unlimited
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{Transport: transport}
}
