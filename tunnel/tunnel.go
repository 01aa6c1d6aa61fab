// Package tunnel lets the chat client reach a server that is only
// visible from an SSH gateway.  The client's TCP stream to the chat
// server is carried inside the gateway's SSH connection.
package tunnel

import (
	"context"
	"net"
)

// Tunnel is an encrypted channel through which the client dials the
// chat server.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel.
	Close() error

	// IsAlive reports whether the gateway connection is still up.
	IsAlive() bool
}
