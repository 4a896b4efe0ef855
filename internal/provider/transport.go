package provider

import (
	"net/http"
	"time"
)

// userAgentTransport stamps every outbound request with a fixed User-Agent.
// Reddit rejects API calls that use a generic client string.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

func newHTTPClient(base *http.Client, userAgent string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport
	if base != nil && base.Transport != nil {
		transport = base.Transport
	}

	if timeout == 0 && base != nil {
		timeout = base.Timeout
	}

	if userAgent != "" {
		transport = &userAgentTransport{userAgent: userAgent, base: transport}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
