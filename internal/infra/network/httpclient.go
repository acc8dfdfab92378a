// Package network holds outbound HTTP plumbing shared by venue adapters.
package network

import (
	"net"
	"net/http"
	"time"

	"venuegw/internal/infra/version"
)

// NewHTTPClient returns a pooled client whose requests carry the service
// User-Agent. The client timeout is a backstop; callers bound requests with
// their context.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: userAgent{next: tr}, Timeout: 15 * time.Second}
}

type userAgent struct{ next http.RoundTripper }

func (u userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", "venuegw/"+version.Version)
	return u.next.RoundTrip(r)
}
