// ABOUTME: HTTP client configuration for artifact downloads and JSON endpoints
// ABOUTME: Per-request timeout, bounded header/handshake waits, proxy-aware, fixed User-Agent

package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the launcher to remote hosts.
const DefaultUserAgent = "mclaunch-go"

// NewClient creates an HTTP client whose every request is bounded by timeout.
// A zero timeout leaves requests bounded only by the caller's context.
// Proxy support comes from HTTP_PROXY/HTTPS_PROXY.
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			agent: userAgent,
			next: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          32,
				MaxIdleConnsPerHost:   8,
			},
		},
	}
}

// userAgentTransport sets a User-Agent header on requests that lack one.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(clone)
}
