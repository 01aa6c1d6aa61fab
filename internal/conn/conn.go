// Package conn wraps a stream connection with newline framing and a
// bounded outbound queue drained by its own writer goroutine.
//
// Send waits while the queue is full, up to the send timeout.  Only a
// peer that stops reading for that long fails a Send, and write
// failures are reported through the OnError hook rather than to the
// caller that queued the line.
package conn

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"simplechat/config"
	cerr "simplechat/internal/errors"
)

var nextID atomic.Uint64 //nolint:gochecknoglobals

// Options tunes a Conn.  Zero values select the defaults.
type Options struct {
	OutboxSize    int
	MaxLineLength int
	SendTimeout   time.Duration

	// OnError is called from the writer goroutine when a queued line
	// cannot be written.  The connection is closed afterwards.
	OnError func(c *Conn, err error)
}

// Conn is one framed peer connection.
type Conn struct {
	id      uint64
	name    string
	netConn net.Conn
	scanner *bufio.Scanner
	onError func(c *Conn, err error)
	timeout time.Duration

	// mu is held shared by senders and exclusively by whoever marks the
	// connection closed, so no line is queued after the final drain.
	mu        sync.RWMutex
	closed    bool
	outbox    chan string
	closing   chan struct{}
	closeOnce sync.Once

	done chan struct{}
}

// New wraps nc and starts its writer goroutine.
func New(nc net.Conn, opts Options) *Conn {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = config.DefaultOutboxSize
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = config.DefaultMaxLineLength
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = config.DefaultSendTimeout
	}

	sc := bufio.NewScanner(nc)
	sc.Buffer(make([]byte, 0, 4096), opts.MaxLineLength)

	c := &Conn{
		id:      nextID.Add(1),
		name:    nc.RemoteAddr().String(),
		netConn: nc,
		scanner: sc,
		onError: opts.OnError,
		timeout: opts.SendTimeout,
		outbox:  make(chan string, opts.OutboxSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// ID returns the process-unique connection number.
func (c *Conn) ID() uint64 { return c.id }

// Name returns the peer's address.
func (c *Conn) Name() string { return c.name }

func (c *Conn) String() string { return fmt.Sprintf("#%d(%s)", c.id, c.name) }

// ReadLine blocks for the next inbound line, without its terminator.
// It returns io.EOF once the peer or Close ends the connection.
func (c *Conn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
	}
	if err := c.scanner.Err(); err != nil && !cerr.IsClosed(err) {
		return "", cerr.Transport("read", err)
	}
	return "", io.EOF
}

// Send queues msg for delivery.  When the queue is full it waits for
// the writer, and fails with ErrSendTimeout if the peer has not drained
// a line within the send timeout.
func (c *Conn) Send(msg string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return cerr.Transport("send", cerr.ErrConnClosed)
	}
	select {
	case c.outbox <- msg:
		return nil
	default:
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case c.outbox <- msg:
		return nil
	case <-c.closing:
		return cerr.Transport("send", cerr.ErrConnClosed)
	case <-timer.C:
		return cerr.Transport("send", fmt.Errorf("%w after %s", cerr.ErrSendTimeout, c.timeout))
	}
}

// Close stops accepting new lines.  Lines already queued are flushed
// before the socket is closed.  Close is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closing) })
	c.markClosed()
	return nil
}

// Abort closes the socket immediately, discarding queued lines.
func (c *Conn) Abort() error {
	c.Close() //nolint:errcheck
	return c.netConn.Close()
}

// Done is closed once the writer has finished and the socket is closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// markClosed waits for in-flight senders and rejects later ones.
func (c *Conn) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Conn) writeLoop() {
	defer close(c.done)
	defer c.netConn.Close()

	w := bufio.NewWriter(c.netConn)
	for {
		select {
		case msg := <-c.outbox:
			if err := c.write(w, msg); err != nil {
				if c.onError != nil && !cerr.IsClosed(err) {
					c.onError(c, cerr.Transport("write", err))
				}
				c.Close() //nolint:errcheck
				return
			}
		case <-c.closing:
			c.markClosed()
			for {
				select {
				case msg := <-c.outbox:
					if c.write(w, msg) != nil {
						return
					}
				default:
					w.Flush() //nolint:errcheck
					return
				}
			}
		}
	}
}

// write buffers msg and flushes once the queue is empty.  Write errors
// are sticky in bufio and surface from Flush.
func (c *Conn) write(w *bufio.Writer, msg string) error {
	w.WriteString(msg) //nolint:errcheck
	w.WriteByte('\n')  //nolint:errcheck
	if len(c.outbox) > 0 {
		return nil
	}
	return w.Flush()
}
