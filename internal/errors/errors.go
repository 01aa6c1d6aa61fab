// Package errors provides the error vocabulary shared by the chat server
// and client.
//
// Every failure is classified by [Kind] so callers can apply the right
// policy: protocol violations close the offending connection, invalid
// arguments and failed preconditions are reported to the operator, and
// transport failures are isolated to the connection they happened on.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrMissingLoginID   = errors.New("missing login id")
	ErrConnClosed       = errors.New("connection is closed")
	ErrSendTimeout      = errors.New("peer is not reading")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrAlreadyListening = errors.New("already listening")
	ErrServerRunning    = errors.New("server is running")
	ErrInvalidPort      = errors.New("invalid port")
	ErrUnknownCommand   = errors.New("unknown command")
)

// ── Kinds ────────────────────────────────────────────────────────────

// Kind classifies a failure for policy decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindProtocolViolation
	KindInvalidArgument
	KindPreconditionFailed
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindProtocolViolation:
		return "protocol violation"
	case KindInvalidArgument:
		return "invalid argument"
	case KindPreconditionFailed:
		return "precondition failed"
	case KindTransportFailure:
		return "transport failure"
	default:
		return "unknown"
	}
}

// Error is a classified failure of a single operation.
type Error struct {
	Kind Kind
	Op   string // "login", "chat", "setport", "send", ...
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Protocol wraps err as a protocol violation.
func Protocol(op string, err error) *Error {
	return &Error{Kind: KindProtocolViolation, Op: op, Err: err}
}

// InvalidArgument wraps err as an invalid argument.
func InvalidArgument(op string, err error) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: err}
}

// Precondition wraps err as a failed precondition.
func Precondition(op string, err error) *Error {
	return &Error{Kind: KindPreconditionFailed, Op: op, Err: err}
}

// Transport wraps err as a transport failure.
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransportFailure, Op: op, Err: err}
}

// KindOf returns the Kind of the first classified error in err's chain.
// Unclassified network errors count as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return KindTransportFailure
	}
	return KindUnknown
}

// ── Structured network errors ────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // "dial", "listen", "accept", "write", "read"
	Addr      string
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with gateway context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "forward"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string
	Value   interface{} // nil if missing
	Message string
	Hint    string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// Wrap creates a NetworkError, detecting retryability from err.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsClosed reports whether err is the expected result of reading from
// or writing to a connection that has been closed on either side.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, ErrConnClosed) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Refused dials are worth retrying while the server starts up.
		if opErr.Op == "dial" {
			return true
		}
		return opErr.Temporary() //nolint:staticcheck // still the best hint available
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
