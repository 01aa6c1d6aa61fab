// Package metrics provides lock-free counters for a running chat server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime statistics of one server.
type Collector struct {
	connectionsActive  atomic.Int64
	connectionsTotal   atomic.Int64
	loginsAccepted     atomic.Int64
	protocolViolations atomic.Int64
	messagesBroadcast  atomic.Int64
	linesDelivered     atomic.Int64
	deliveryFailures   atomic.Int64
	errorsTotal        atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connections ──────────────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Sessions ─────────────────────────────────────────────────────────

// LoginAccepted records a session becoming authenticated.
func (c *Collector) LoginAccepted() {
	if c == nil {
		return
	}
	c.loginsAccepted.Add(1)
}

// ProtocolViolation records a connection dropped for breaking the
// login rules.
func (c *Collector) ProtocolViolation() {
	if c == nil {
		return
	}
	c.protocolViolations.Add(1)
}

// Logins returns the number of accepted logins.
func (c *Collector) Logins() int64 {
	if c == nil {
		return 0
	}
	return c.loginsAccepted.Load()
}

// Violations returns the number of protocol violations.
func (c *Collector) Violations() int64 {
	if c == nil {
		return 0
	}
	return c.protocolViolations.Load()
}

// ── Fan-out ──────────────────────────────────────────────────────────

// Broadcast records one broadcast that reached delivered connections
// and failed on failed others.
func (c *Collector) Broadcast(delivered, failed int) {
	if c == nil {
		return
	}
	c.messagesBroadcast.Add(1)
	c.linesDelivered.Add(int64(delivered))
	c.deliveryFailures.Add(int64(failed))
}

// DeliveryFailed records one line that could not be queued or written.
func (c *Collector) DeliveryFailed() {
	if c == nil {
		return
	}
	c.deliveryFailures.Add(1)
}

// Broadcasts returns the number of broadcasts.
func (c *Collector) Broadcasts() int64 {
	if c == nil {
		return 0
	}
	return c.messagesBroadcast.Load()
}

// Delivered returns the number of lines queued for delivery by
// broadcasts.
func (c *Collector) Delivered() int64 {
	if c == nil {
		return 0
	}
	return c.linesDelivered.Load()
}

// DeliveryFailures returns the number of failed deliveries.
func (c *Collector) DeliveryFailures() int64 {
	if c == nil {
		return 0
	}
	return c.deliveryFailures.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string `json:"uptime"`
	ConnectionsActive  int64  `json:"connections_active"`
	ConnectionsTotal   int64  `json:"connections_total"`
	LoginsAccepted     int64  `json:"logins_accepted"`
	ProtocolViolations int64  `json:"protocol_violations"`
	MessagesBroadcast  int64  `json:"messages_broadcast"`
	LinesDelivered     int64  `json:"lines_delivered"`
	DeliveryFailures   int64  `json:"delivery_failures"`
	ErrorsTotal        int64  `json:"errors_total"`
	LastError          string `json:"last_error,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive:  c.connectionsActive.Load(),
		ConnectionsTotal:   c.connectionsTotal.Load(),
		LoginsAccepted:     c.loginsAccepted.Load(),
		ProtocolViolations: c.protocolViolations.Load(),
		MessagesBroadcast:  c.messagesBroadcast.Load(),
		LinesDelivered:     c.linesDelivered.Load(),
		DeliveryFailures:   c.deliveryFailures.Load(),
		ErrorsTotal:        c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
