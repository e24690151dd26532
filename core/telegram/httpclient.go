package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/examsbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 15 * time.Second
	defaultClientTimeout     = 60 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 2
	defaultRetryBackoff      = time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// timeout bounds a whole request including document uploads; zero selects the default.
// Long polling adds its own timeout on top so getUpdates is never cut short.
func BuildHTTPClient(timeout, longPoll time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout + longPoll,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: timeout + longPoll,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: defaultRetryAttempts,
			backoff:    defaultRetryBackoff,
		},
	}
}

// retryTransport replays requests that failed before reaching Telegram.
// A request whose body cannot be rewound (a streamed upload) is tried once.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

// rewind returns a copy of req with a fresh body, or false if that is impossible.
func rewind(req *http.Request) (*http.Request, bool, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, true, nil
	}
	if req.GetBody == nil {
		return nil, false, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, true, nil
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	for retry := 1; err != nil && retry <= t.maxRetries && netutil.ShouldRetry(err); retry++ {
		next, ok, rerr := rewind(req)
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			break
		}

		timer := time.NewTimer(t.backoff * time.Duration(retry))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}
