package netutil

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// ShouldRetry reports whether err is a transient transport failure: a timeout,
// a failed dial, a refused or reset connection, or a temporary DNS error.
// Bot API errors and cancellations are never retried.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var (
		netErr net.Error
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	// errors.As unwraps *url.Error, so the checks below see the transport cause.
	switch {
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return true
	case errors.As(err, &dnsErr):
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return false
}
