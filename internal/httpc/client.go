// Package httpc builds the HTTP clients used for the vision and speech services.
// Every client carries an overall timeout so a stalled service surfaces as an error.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	DefaultTLSTimeout      = 10 * time.Second
)

// UserAgent is sent on every request made through a client from this package.
const UserAgent = "go-sight/1.0"

// NewClient creates an HTTP client with the given overall timeout.
// A zero timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgent{
			next: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   DefaultConnectTimeout,
					KeepAlive: DefaultKeepAlive,
				}).DialContext,
				MaxIdleConns:          4,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       DefaultIdleConnTimeout,
				TLSHandshakeTimeout:   DefaultTLSTimeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// userAgent sets a default User-Agent without overriding one set by the caller.
type userAgent struct {
	next http.RoundTripper
}

func (u *userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}
	return u.next.RoundTrip(req)
}

// CloseIdle releases idle connections held by c's transport.
func CloseIdle(c *http.Client) {
	c.CloseIdleConnections()
}
