// Package server is the chat server: it accepts client connections,
// gates each one behind a #login, relays chat lines between logged-in
// clients and executes the operator's control commands.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"simplechat/config"
	"simplechat/internal/conn"
	"simplechat/internal/console"
	cerr "simplechat/internal/errors"
	"simplechat/internal/metrics"
	"simplechat/util"
)

// DefaultShutdownGrace bounds how long Shutdown waits for queued lines
// to drain before dropping the remaining connections.
const DefaultShutdownGrace = 2 * time.Second

// Options configures a Server.
type Options struct {
	Port          int
	Display       console.Display
	Logger        *util.Logger
	Metrics       *metrics.Collector
	Conn          conn.Options
	ShutdownGrace time.Duration
}

// Server owns the listener, the registry and the runtime state the
// operator controls.
type Server struct {
	display  console.Display
	logger   *util.Logger
	metrics  *metrics.Collector
	registry *Registry
	connOpts conn.Options
	grace    time.Duration

	mu         sync.Mutex
	port       int
	listener   net.Listener
	acceptDone chan struct{}
	closing    bool

	handlers sync.WaitGroup
	shutdown sync.Once
	done     chan struct{}
}

type discardDisplay struct{}

func (discardDisplay) Display(string) {}

// New creates a server.  It does not listen until Listen is called.
func New(opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = config.DefaultPort
	}
	if opts.Display == nil {
		opts.Display = discardDisplay{}
	}
	if opts.Logger == nil {
		opts.Logger = util.NewLogger(0)
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}
	logger := opts.Logger.Named("server")

	s := &Server{
		display:  opts.Display,
		logger:   logger,
		metrics:  opts.Metrics,
		registry: NewRegistry(logger.Named("registry"), opts.Metrics),
		grace:    opts.ShutdownGrace,
		port:     opts.Port,
		done:     make(chan struct{}),
	}
	s.connOpts = opts.Conn
	s.connOpts.OnError = s.onConnError
	return s
}

// Registry exposes the connection registry.
func (s *Server) Registry() *Registry { return s.registry }

// Port returns the configured port, or the bound port while listening.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// IsListening reports whether new connections are being accepted.
func (s *Server) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int { return s.registry.Count() }

// Addr returns the listener's address, or nil when not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// SetPort changes the port used by the next Listen.  It is only
// allowed while no client is connected and the server is not
// listening.
func (s *Server) SetPort(port int) error {
	if port < 1 || port > 65535 {
		return cerr.InvalidArgument("setport", cerr.ErrInvalidPort)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil || s.registry.Count() > 0 {
		return cerr.Precondition("setport", cerr.ErrServerRunning)
	}
	s.port = port
	s.logger.Verbose("port set to %d", port)
	return nil
}

// Listen starts accepting connections on the configured port.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return cerr.Precondition("listen", cerr.ErrConnClosed)
	}
	if s.listener != nil {
		return cerr.Precondition("listen", cerr.ErrAlreadyListening)
	}

	addr := util.ListenAddr(s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.metrics.RecordError(err.Error())
		return cerr.Transport("listen", cerr.Wrap("listen", addr, err))
	}
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcp.Port
	}

	s.listener = ln
	s.acceptDone = make(chan struct{})
	go s.acceptLoop(ln, s.acceptDone)

	s.logger.Info("listening for connections on port %d", s.port)
	s.display.Display("Server listening for connections on port " + strconv.Itoa(s.port))
	return nil
}

// StopListening stops accepting new connections.  Connected clients
// are unaffected.  It reports whether the server was listening.
func (s *Server) StopListening() bool {
	s.mu.Lock()
	ln, acceptDone := s.listener, s.acceptDone
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return false
	}
	ln.Close()
	<-acceptDone
	s.serverStopped()
	return true
}

// Close stops listening and closes every client connection.
func (s *Server) Close() error {
	s.StopListening()
	if err := s.registry.CloseAll(); err != nil {
		s.logger.Error("closing connections: %v", err)
		s.metrics.RecordError(err.Error())
		return err
	}
	return nil
}

// Shutdown closes the server for good and signals Done.  Connections
// get the grace period to flush queued lines before being dropped.
func (s *Server) Shutdown() error {
	var err error
	s.shutdown.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()

		err = s.Close()

		if !waitTimeout(&s.handlers, s.grace) {
			s.logger.Warn("dropping %d connection(s) that did not drain", s.registry.Count())
			s.registry.AbortAll()
			s.handlers.Wait()
		}

		s.logger.Verbose("final stats:\n%s", s.metrics.JSON())
		close(s.done)
	})
	return err
}

// Done is closed once Shutdown has finished.
func (s *Server) Done() <-chan struct{} { return s.done }

// Run reads operator commands from lines until #quit or ctx
// cancellation, then shuts the server down.  When the input ends the
// server keeps serving clients until ctx is cancelled.
func (s *Server) Run(ctx context.Context, lines <-chan string) error {
	defer s.Shutdown() //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				s.logger.Verbose("operator input closed; serving until interrupted")
				lines = nil
				continue
			}
			s.HandleCommand(line)
		}
	}
}

// ── connection handling ──────────────────────────────────────────────

func (s *Server) acceptLoop(ln net.Listener, done chan struct{}) {
	defer close(done)

	for {
		nc, err := ln.Accept()
		if err != nil {
			if cerr.IsClosed(err) {
				return
			}
			s.logger.Error("accept: %v", err)
			s.metrics.RecordError(err.Error())

			s.mu.Lock()
			if s.listener == ln {
				s.listener = nil
			}
			s.mu.Unlock()
			ln.Close()
			go s.serverStopped()
			return
		}

		c := conn.New(nc, s.connOpts)
		s.registry.Add(c)
		s.metrics.ConnectionOpened()
		s.handlers.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c *conn.Conn) {
	defer s.handlers.Done()
	defer s.disconnect(c)

	s.logger.Verbose("client connected: %s", c)
	s.display.Display("Client connected: " + c.Name())

	for {
		line, err := c.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("%s: %v", c, err)
				s.metrics.RecordError(err.Error())
			}
			return
		}
		if err := s.handleMessage(c, line); err != nil {
			s.logger.Warn("%s: dropping connection: %v", c, err)
			if cerr.KindOf(err) == cerr.KindProtocolViolation {
				s.metrics.ProtocolViolation()
			}
			return
		}
	}
}

func (s *Server) disconnect(c *conn.Conn) {
	sess, _ := s.registry.Remove(c)
	c.Close() //nolint:errcheck
	s.metrics.ConnectionClosed()

	who := sess.LoginID()
	if who == "" {
		who = c.Name()
	}
	s.logger.Verbose("client disconnected: %s", who)
	s.display.Display("Client disconnected: " + who)
}

func (s *Server) onConnError(c *conn.Conn, err error) {
	s.logger.Warn("%s: %v", c, err)
	s.metrics.RecordError(err.Error())
}

func (s *Server) serverStopped() {
	s.logger.Info("stopped listening for connections")
	s.display.Display("Server has stopped listening for connections.")
}

// waitTimeout waits for wg and reports whether it finished in time.
func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}
