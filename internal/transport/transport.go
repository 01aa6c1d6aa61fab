// Package transport opens the chat client's connection to its server,
// either directly over TCP or through an SSH gateway.
package transport

import (
	"context"
	"net"

	"simplechat/config"
	"simplechat/tunnel"
	"simplechat/util"
)

// Dialer opens outbound connections to a chat server.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources such as an SSH session.
	// Stateless dialers return nil.
	Close() error
}

// ForConfig returns the dialer selected by cfg: an SSH-tunnelled one
// when a tunnel is enabled, plain TCP otherwise.
func ForConfig(cfg *config.Config, logger *util.Logger) Dialer {
	if cfg.TunnelEnabled {
		return NewSSHDialer(tunnel.FromConfig(cfg), logger)
	}
	return &TCPDialer{Timeout: cfg.Timeout}
}
