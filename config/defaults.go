package config

import "time"

// ── Default values ───────────────────────────────────────────────────

const (
	// DefaultPort is used whenever no valid port is given.
	DefaultPort = 5555

	// DefaultHost is the server the client connects to by default.
	DefaultHost = "localhost"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH dial timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultConnectAttempts is how many times the client dials before
	// giving up.  One attempt means no retry.
	DefaultConnectAttempts = 1

	// DefaultOutboxSize is how many lines may be queued for one
	// connection before senders wait for its writer.
	DefaultOutboxSize = 64

	// DefaultSendTimeout is how long a sender waits on a full queue
	// before the peer is treated as stalled.
	DefaultSendTimeout = 5 * time.Second

	// DefaultMaxLineLength caps one inbound protocol line.
	DefaultMaxLineLength = 64 * 1024
)
