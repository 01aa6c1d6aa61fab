package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with op",
			err:  Protocol("login", ErrAlreadyLoggedIn),
			want: "login: protocol violation: already logged in",
		},
		{
			name: "without op",
			err:  &Error{Kind: KindInvalidArgument, Err: ErrInvalidPort},
			want: "invalid argument: invalid port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"protocol", Protocol("chat", ErrNotLoggedIn), KindProtocolViolation},
		{"invalid", InvalidArgument("setport", ErrInvalidPort), KindInvalidArgument},
		{"precondition", Precondition("start", ErrAlreadyListening), KindPreconditionFailed},
		{"transport", Transport("send", ErrSendTimeout), KindTransportFailure},
		{"wrapped", fmt.Errorf("outer: %w", Precondition("setport", ErrServerRunning)), KindPreconditionFailed},
		{"network", Wrap("dial", "x:1", io.EOF), KindTransportFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := Protocol("login", ErrAlreadyLoggedIn)
	if !errors.Is(err, ErrAlreadyLoggedIn) {
		t.Error("should unwrap to ErrAlreadyLoggedIn")
	}
}

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "localhost:5555", Err: io.EOF, Retryable: true},
			want: "dial localhost:5555: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "listen", Addr: ":5555", Err: fmt.Errorf("bind failed")},
			want: "listen :5555: bind failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	err := ConfigError{
		Field:   "port",
		Value:   99999,
		Message: "out of range 1-65535",
		Hint:    "use a port between 1 and 65535",
	}
	want := "config: --port=99999: out of range 1-65535\n  hint: use a port between 1 and 65535"
	if got := err.Error(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}, false},
		{"plain error", fmt.Errorf("boom"), false},
		{"refused dial", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("connection refused")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"net closed", net.ErrClosed, true},
		{"op closed", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"conn closed", Transport("send", ErrConnClosed), true},
		{"other", fmt.Errorf("reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.want {
				t.Errorf("IsClosed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrAlreadyLoggedIn, ErrNotLoggedIn, ErrMissingLoginID, ErrConnClosed,
		ErrSendTimeout, ErrNotConnected, ErrAlreadyConnected, ErrAlreadyListening,
		ErrServerRunning, ErrInvalidPort, ErrUnknownCommand,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
