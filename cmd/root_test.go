package cmd

import (
	"context"
	"errors"
	"testing"

	"simplechat/config"
	cerr "simplechat/internal/errors"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestExecute_DryRun(t *testing.T) {
	tests := [][]string{
		{"-l", "--dry-run"},
		{"-l", "6000", "--dry-run"},
		{"alice", "--dry-run"},
		{"alice", "chat.example.org", "6000", "--dry-run"},
		{"-T", "admin@bastion:2222", "alice", "10.0.0.5", "--dry-run"},
	}
	for _, args := range tests {
		if err := Execute(context.Background(), args); err != nil {
			t.Errorf("%v: unexpected error: %v", args, err)
		}
	}
}

func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"server tunnel", []string{"-l", "-T", "gw", "--dry-run"}},
		{"flag port out of range", []string{"-l", "-p", "70000", "--dry-run"}},
		{"negative retries", []string{"alice", "--retries", "-1", "--dry-run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), tt.args)
			var ce *cerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
		})
	}
}

func TestExecute_ArgumentErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--nonexistent-flag"},
		{"-v"},
		{"-l", "6000", "extra"},
		{"a", "b", "1", "extra"},
		{"-T", "bad:spec:x", "alice", "--dry-run"},
	} {
		if err := Execute(context.Background(), args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestParsePositional(t *testing.T) {
	tests := []struct {
		name   string
		listen bool
		args   []string
		want   config.Config
	}{
		{"server default", true, nil, config.Config{Listen: true, Host: "localhost", Port: 5555}},
		{"server port", true, []string{"6000"}, config.Config{Listen: true, Host: "localhost", Port: 6000}},
		{"server bad port", true, []string{"chat"}, config.Config{Listen: true, Host: "localhost", Port: 5555}},
		{"client id", false, []string{"alice"}, config.Config{LoginID: "alice", Host: "localhost", Port: 5555}},
		{"client host", false, []string{"alice", "example.org"}, config.Config{LoginID: "alice", Host: "example.org", Port: 5555}},
		{"client port", false, []string{"alice", "example.org", "6000"}, config.Config{LoginID: "alice", Host: "example.org", Port: 6000}},
		{"client bad port", false, []string{"alice", "example.org", "99999"}, config.Config{LoginID: "alice", Host: "example.org", Port: 5555}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Listen: tt.listen, Host: config.DefaultHost, Port: config.DefaultPort}
			if err := parsePositional(cfg, tt.args); err != nil {
				t.Fatal(err)
			}
			if *cfg != tt.want {
				t.Errorf("got %+v, want %+v", *cfg, tt.want)
			}
		})
	}

	if err := parsePositional(&config.Config{}, nil); err == nil {
		t.Error("client without login id should fail")
	}
}

func TestDescribe(t *testing.T) {
	cfg := &config.Config{
		LoginID:       "alice",
		Host:          "10.0.0.5",
		Port:          5555,
		TunnelEnabled: true,
		TunnelHost:    "bastion",
		TunnelPort:    22,
	}
	if got, want := describe(cfg), "client: alice → 10.0.0.5:5555 via ssh bastion:22"; got != want {
		t.Errorf("describe = %q, want %q", got, want)
	}
}
