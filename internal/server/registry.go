package server

import (
	"errors"
	"sync"

	"simplechat/internal/conn"
	cerr "simplechat/internal/errors"
	"simplechat/internal/metrics"
	"simplechat/util"
)

// Registry is the set of live connections and the session bound to
// each.  All methods are safe for concurrent use.
type Registry struct {
	logger  *util.Logger
	metrics *metrics.Collector

	mu       sync.RWMutex
	sessions map[*conn.Conn]*Session
}

// NewRegistry returns an empty registry.  m may be nil.
func NewRegistry(logger *util.Logger, m *metrics.Collector) *Registry {
	return &Registry{
		logger:   logger,
		metrics:  m,
		sessions: make(map[*conn.Conn]*Session),
	}
}

// Add registers c with a fresh, unauthenticated session.
func (r *Registry) Add(c *conn.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[c]; !ok {
		r.sessions[c] = &Session{}
	}
}

// Remove unregisters c and returns the session it had.
func (r *Registry) Remove(c *conn.Conn) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[c]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, c)
	return *s, true
}

// Session returns a copy of c's session.
func (r *Registry) Session(c *conn.Conn) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[c]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Login authenticates c's session as id.
func (r *Registry) Login(c *conn.Conn, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[c]
	if !ok {
		return cerr.ErrConnClosed
	}
	return s.Login(id)
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Connections returns a snapshot of the registered connections.
func (r *Registry) Connections() []*conn.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*conn.Conn, 0, len(r.sessions))
	for c := range r.sessions {
		out = append(out, c)
	}
	return out
}

// Send queues msg for c alone.  A failure is logged and returned.
func (r *Registry) Send(c *conn.Conn, msg string) error {
	if err := c.Send(msg); err != nil {
		r.deliveryFailed(c, "send", err)
		r.metrics.DeliveryFailed()
		return err
	}
	return nil
}

// Broadcast queues msg for every registered connection and returns how
// many accepted it.  A connection that fails is logged and skipped; one
// that has stopped reading is dropped.
func (r *Registry) Broadcast(msg string) int {
	delivered, failed := 0, 0
	for _, c := range r.Connections() {
		if err := c.Send(msg); err != nil {
			failed++
			r.deliveryFailed(c, "broadcast", err)
			continue
		}
		delivered++
	}
	r.metrics.Broadcast(delivered, failed)
	r.logger.Debug("broadcast to %d connection(s), %d failed", delivered, failed)
	return delivered
}

// deliveryFailed logs a failed send.  A stalled peer is aborted so its
// handler exits and later broadcasts do not wait on it again.
func (r *Registry) deliveryFailed(c *conn.Conn, op string, err error) {
	if errors.Is(err, cerr.ErrSendTimeout) {
		r.logger.Error("%s to %s: %v; dropping connection", op, c, err)
		c.Abort() //nolint:errcheck
		return
	}
	r.logger.Warn("%s to %s skipped: %v", op, c, err)
}

// CloseAll closes every registered connection, flushing queued lines
// first.  The sessions stay registered until their handlers exit.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, c := range r.Connections() {
		if err := c.Close(); err != nil {
			errs = append(errs, cerr.Transport("close", err))
		}
	}
	return cerr.Join(errs...)
}

// AbortAll drops every registered connection without flushing.
func (r *Registry) AbortAll() {
	for _, c := range r.Connections() {
		c.Abort() //nolint:errcheck
	}
}
