package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"simplechat/internal/metrics"
	"simplechat/util"
)

const testTimeout = 2 * time.Second

// recorder is a console.Display that keeps every line for inspection.
type recorder struct {
	mu    sync.Mutex
	lines []string
	ch    chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 256)} }

func (r *recorder) Display(msg string) {
	r.mu.Lock()
	r.lines = append(r.lines, msg)
	r.mu.Unlock()
	select {
	case r.ch <- msg:
	default:
	}
}

// waitFor consumes displayed lines until one equals want.
func (r *recorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case got := <-r.ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("display never showed %q; saw %q", want, r.all())
		}
	}
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) contains(want string) bool {
	for _, l := range r.all() {
		if l == want {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T) (*Server, *recorder) {
	t.Helper()
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	s := New(Options{
		Port:          port,
		Display:       rec,
		Logger:        util.NewLogger(0),
		Metrics:       metrics.New(),
		ShutdownGrace: 500 * time.Millisecond,
	})
	t.Cleanup(func() { s.Shutdown() }) //nolint:errcheck
	return s, rec
}

func startTestServer(t *testing.T) (*Server, *recorder) {
	t.Helper()
	s, rec := newTestServer(t)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	return s, rec
}

// peer is a raw TCP chat client.
type peer struct {
	t  *testing.T
	nc net.Conn
	r  *bufio.Reader
}

func dialPeer(t *testing.T, s *Server) *peer {
	t.Helper()
	nc, err := net.DialTimeout("tcp", util.FormatAddr("127.0.0.1", s.Port()), testTimeout)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return &peer{t: t, nc: nc, r: bufio.NewReader(nc)}
}

// loginPeer connects and logs in as id, consuming the announcement.
func loginPeer(t *testing.T, s *Server, id string) *peer {
	t.Helper()
	p := dialPeer(t, s)
	p.send("#login " + id)
	p.expect(LoggedOn(id))
	return p
}

func (p *peer) send(line string) {
	p.t.Helper()
	if _, err := p.nc.Write([]byte(line + "\n")); err != nil {
		p.t.Fatalf("write %q: %v", line, err)
	}
}

func (p *peer) readLine() (string, error) {
	p.nc.SetReadDeadline(time.Now().Add(testTimeout)) //nolint:errcheck
	line, err := p.r.ReadString('\n')
	return strings.TrimSuffix(line, "\n"), err
}

func (p *peer) expect(want string) {
	p.t.Helper()
	got, err := p.readLine()
	if err != nil {
		p.t.Fatalf("waiting for %q: %v", want, err)
	}
	if got != want {
		p.t.Fatalf("got %q, want %q", got, want)
	}
}

func (p *peer) expectClosed() {
	p.t.Helper()
	got, err := p.readLine()
	if err == nil {
		p.t.Fatalf("expected connection to close, got line %q", got)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		p.t.Fatal("connection was not closed by the server")
	}
	if !errors.Is(err, io.EOF) {
		// A reset is also an acceptable close.
		p.t.Logf("connection closed with %v", err)
	}
}

// eventually polls cond until it holds or the test timeout expires.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
