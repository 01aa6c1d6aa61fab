package transport

import (
	"context"
	"net"
	"time"

	cerr "simplechat/internal/errors"
)

// TCPDialer establishes plain TCP connections.
type TCPDialer struct {
	Timeout time.Duration
}

// Dial connects to address over TCP.  Failures are returned as
// *errors.NetworkError so callers can decide whether to retry.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	nc, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, cerr.Wrap("dial", address, err)
	}
	return nc, nil
}

// Close is a no-op for TCP dialers.
func (d *TCPDialer) Close() error { return nil }
