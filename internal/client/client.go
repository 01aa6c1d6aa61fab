// Package client is the chat client: it keeps one connection to a chat
// server, logs in automatically and turns the user's input into chat
// lines or local commands.
package client

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"simplechat/config"
	"simplechat/internal/conn"
	"simplechat/internal/console"
	cerr "simplechat/internal/errors"
	"simplechat/internal/retry"
	"simplechat/internal/transport"
	"simplechat/util"
)

// Messages shown to the user.
const (
	MsgHostLocked       = "Cannot change host while connected"
	MsgPortLocked       = "Cannot change port while connected"
	MsgAlreadyConnected = "Already connected"
	MsgInvalidCommand   = "Invalid command"
	MsgInvalidPort      = "Error: Invalid port number."
	MsgSendFailed       = "Could not send message to server.  Terminating client."
	MsgServerClosed     = "Connection with server closed."
	MsgLoggedOff        = "Connection closed."
	MsgCannotOpen       = "Cannot open connection.  Awaiting command."
)

// quitGrace bounds how long Quit waits for queued lines to reach the
// server.
const quitGrace = 2 * time.Second

// Options configures a Client.
type Options struct {
	LoginID string
	Host    string
	Port    int

	Dialer  transport.Dialer
	Backoff *retry.Backoff // nil dials once
	Display console.Display
	Logger  *util.Logger
	Conn    conn.Options
}

// Client is one user's session with a chat server.
type Client struct {
	loginID string
	dialer  transport.Dialer
	backoff *retry.Backoff
	display console.Display
	logger  *util.Logger
	opts    conn.Options

	mu   sync.Mutex
	host string
	port int
	conn *conn.Conn

	quit sync.Once
	done chan struct{}
}

// New creates a disconnected client.
func New(opts Options) *Client {
	if opts.Host == "" {
		opts.Host = config.DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = config.DefaultPort
	}
	if opts.Dialer == nil {
		opts.Dialer = &transport.TCPDialer{Timeout: config.DefaultConnTimeout}
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.Attempts(1)
	}
	if opts.Logger == nil {
		opts.Logger = util.NewLogger(0)
	}
	c := &Client{
		loginID: opts.LoginID,
		dialer:  opts.Dialer,
		backoff: opts.Backoff,
		display: opts.Display,
		logger:  opts.Logger.Named("client"),
		opts:    opts.Conn,
		host:    opts.Host,
		port:    opts.Port,
		done:    make(chan struct{}),
	}
	if c.display == nil {
		c.display = console.New(nil, nil)
	}
	return c
}

// LoginID returns the identifier sent on every login.
func (c *Client) LoginID() string { return c.loginID }

// Host returns the server host.
func (c *Client) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// Port returns the server port.
func (c *Client) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// IsConnected reports whether a server connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetHost changes the server host.  Only allowed while disconnected.
func (c *Client) SetHost(host string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return cerr.Precondition("sethost", cerr.ErrAlreadyConnected)
	}
	c.host = host
	return nil
}

// SetPort changes the server port.  Only allowed while disconnected.
func (c *Client) SetPort(port int) error {
	if port < 1 || port > 65535 {
		return cerr.InvalidArgument("setport", cerr.ErrInvalidPort)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return cerr.Precondition("setport", cerr.ErrAlreadyConnected)
	}
	c.port = port
	return nil
}

// Open connects to the server and logs in.  The login line is queued
// before the connection is visible to anything else, so it is always
// the first line the server sees.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return cerr.Precondition("open", cerr.ErrAlreadyConnected)
	}
	select {
	case <-c.done:
		return cerr.Precondition("open", cerr.ErrConnClosed)
	default:
	}

	c.display.Display("Connecting to server " + c.host + " on port " + strconv.Itoa(c.port))
	addr := util.FormatAddr(c.host, c.port)

	b := *c.backoff
	b.Retryable = cerr.IsRetryable
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.Verbose("connect attempt %d failed: %v; retrying in %s", attempt, err, wait)
	}

	var nc *conn.Conn
	err := b.Do(ctx, func(int) error {
		raw, err := c.dialer.Dial(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		nc = conn.New(raw, c.opts)
		return nil
	})
	if err != nil {
		return err
	}

	if err := nc.Send(LoginLine(c.loginID)); err != nil {
		nc.Abort() //nolint:errcheck
		return err
	}
	c.conn = nc
	c.logger.Verbose("connected to %s as %q", addr, c.loginID)
	go c.receive(nc)
	return nil
}

// LoginLine is the line that authenticates id with the server.
func LoginLine(id string) string { return "#login " + id }

// Send passes a chat line to the server.  It waits while earlier lines
// are still queued and fails only once the connection is gone or the
// server has stopped reading.
func (c *Client) Send(msg string) error {
	c.mu.Lock()
	cc := c.conn
	c.mu.Unlock()

	if cc == nil {
		return cerr.Transport("send", cerr.ErrNotConnected)
	}
	return cc.Send(msg)
}

// Logoff closes the connection and keeps the client running.
func (c *Client) Logoff() error {
	c.mu.Lock()
	cc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cc == nil {
		return cerr.Precondition("logoff", cerr.ErrNotConnected)
	}
	return cc.Close()
}

// Quit closes any connection and signals Done.  It is idempotent.
func (c *Client) Quit() {
	c.quit.Do(func() {
		c.mu.Lock()
		cc := c.conn
		c.conn = nil
		c.mu.Unlock()

		if cc != nil {
			cc.Close() //nolint:errcheck
			select {
			case <-cc.Done():
			case <-time.After(quitGrace):
				cc.Abort() //nolint:errcheck
			}
		}
		c.logger.Verbose("client terminated")
		close(c.done)
	})
}

// Done is closed once the client has terminated.
func (c *Client) Done() <-chan struct{} { return c.done }

// Run feeds user input to HandleInput until the client terminates,
// ctx is cancelled or the input ends.
func (c *Client) Run(ctx context.Context, lines <-chan string) error {
	defer c.Quit()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c.HandleInput(ctx, line)
		}
	}
}

// HandleInput runs one line typed by the user: '#' lines are local
// commands, anything else is sent to the server.
func (c *Client) HandleInput(ctx context.Context, line string) {
	if strings.TrimSpace(line) == "" || c.terminated() {
		return
	}
	if strings.HasPrefix(line, "#") {
		c.runCommand(ctx, line)
		return
	}
	if err := c.Send(line); err != nil {
		c.logger.Debug("send failed: %v", err)
		c.display.Display(MsgSendFailed)
		c.Quit()
	}
}

func (c *Client) terminated() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// receive shows server lines until the connection ends.
func (c *Client) receive(cc *conn.Conn) {
	for {
		line, err := cc.ReadLine()
		if err != nil {
			c.connectionLost(cc, err)
			return
		}
		c.display.Display(line)
	}
}

func (c *Client) connectionLost(cc *conn.Conn, err error) {
	c.mu.Lock()
	current := c.conn == cc
	if current {
		c.conn = nil
	}
	c.mu.Unlock()

	cc.Close() //nolint:errcheck
	if !current {
		// Closed locally by #logoff or Quit.
		return
	}

	if errors.Is(err, io.EOF) {
		c.display.Display(MsgServerClosed)
	} else {
		c.logger.Warn("connection error: %v", err)
		c.display.Display(err.Error())
	}
	c.Quit()
}
