package transport

import (
	"context"
	"net"
	"sync"

	"simplechat/tunnel"
	"simplechat/util"
)

// SSHDialer routes connections through a [tunnel.Tunnel].  The tunnel
// is connected lazily on the first Dial and torn down on Close.
type SSHDialer struct {
	tunnel tunnel.Tunnel
	label  string
	logger *util.Logger

	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards through an SSH gateway.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	t := tunnel.NewSSHTunnel(cfg, logger)
	return NewTunnelDialer(t, cfg.User+"@"+cfg.Addr(), logger)
}

// NewTunnelDialer wraps an existing tunnel.  label names the gateway in
// log lines.
func NewTunnelDialer(t tunnel.Tunnel, label string, logger *util.Logger) *SSHDialer {
	return &SSHDialer{tunnel: t, label: label, logger: logger.Named("transport")}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.tunnel.IsAlive() {
		return nil
	}

	d.logger.Verbose("establishing SSH tunnel to %s", d.label)
	if err := d.tunnel.Connect(ctx); err != nil {
		return err
	}
	d.connected = true
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to address from the gateway's side.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.tunnel.Dial(ctx, network, address)
}

// Close tears down the tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}
	d.connected = false
	return d.tunnel.Close()
}
