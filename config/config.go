// Package config defines the runtime configuration for simplechat and
// provides helpers for parsing ports and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	cerr "simplechat/internal/errors"
)

// Config holds every tuneable for one simplechat process, either a
// server (Listen) or a client.
type Config struct {
	// ── Mode ─────────────────────────────────────────────────────────
	Listen bool

	// ── Connection ───────────────────────────────────────────────────
	LoginID  string // client only
	Host     string // client only
	Port     int
	Timeout  time.Duration
	Attempts int // client connect attempts

	// ── SSH tunnel (client) ──────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in the range 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil {
		return 0, fmt.Errorf("%w %q", cerr.ErrInvalidPort, spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %d out of range 1-65535", cerr.ErrInvalidPort, port)
	}
	return port, nil
}

// PortOrDefault parses spec and falls back to DefaultPort when it is
// not a valid port.
func PortOrDefault(spec string) int {
	port, err := ParsePort(spec)
	if err != nil {
		return DefaultPort
	}
	return port
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &cerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("omit the port to use %d", DefaultPort),
		}
	}

	if c.Listen {
		if c.TunnelEnabled {
			return &cerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "the server cannot listen through an SSH tunnel",
				Hint:    "use -T on the client side only",
			}
		}
		return nil
	}

	if strings.TrimSpace(c.LoginID) == "" {
		return &cerr.ConfigError{
			Field:   "login",
			Message: "a login id is required",
			Hint:    "simplechat <login-id> [host] [port]",
		}
	}
	if strings.ContainsAny(c.LoginID, " \t\r\n") {
		return &cerr.ConfigError{
			Field:   "login",
			Value:   c.LoginID,
			Message: "login id must be a single word",
		}
	}
	if c.Host == "" {
		return &cerr.ConfigError{Field: "host", Message: "host is required"}
	}
	if c.Attempts < 0 {
		return &cerr.ConfigError{Field: "retries", Value: c.Attempts, Message: "must not be negative"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &cerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}
	return nil
}
