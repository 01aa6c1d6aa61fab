// Package cmd wires up the CLI flags and dispatches to the chat server
// or client.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"simplechat/config"
	"simplechat/internal/core"
	"simplechat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X simplechat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the chat server or client.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("simplechat", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", false, "Run the chat server")
	fs.IntVarP(&cfg.Port, "port", "p", config.DefaultPort, "Port to listen on or connect to")
	fs.StringVarP(&cfg.Host, "host", "H", config.DefaultHost, "Server host (client)")
	fs.IntVar(&cfg.Attempts, "retries", config.DefaultConnectAttempts, "Connect attempts before giving up (client)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Dial timeout in seconds")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", "", "Reach the server via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("simplechat %s\n", version)
		return nil
	}

	cfg.Timeout = config.DefaultConnTimeout
	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── build ────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintln(os.Stderr, describe(cfg))
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional fills in the server's [port] or the client's
// <login-id> [host] [port].  Ports that do not parse fall back to the
// default port.
func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		switch len(remaining) {
		case 0: // simplechat -l [-p PORT]
		case 1:
			cfg.Port = config.PortOrDefault(remaining[0])
		default:
			return fmt.Errorf("too many arguments for server mode")
		}
		return nil
	}

	switch len(remaining) {
	case 0:
		return fmt.Errorf("login id required (use --help for usage)")
	case 3:
		cfg.Port = config.PortOrDefault(remaining[2])
		fallthrough
	case 2:
		cfg.Host = remaining[1]
		fallthrough
	case 1:
		cfg.LoginID = remaining[0]
	default:
		return fmt.Errorf("too many arguments for client mode")
	}
	return nil
}

func describe(cfg *config.Config) string {
	if cfg.Listen {
		return fmt.Sprintf("server: listen on port %d", cfg.Port)
	}
	s := fmt.Sprintf("client: %s → %s", cfg.LoginID, util.FormatAddr(cfg.Host, cfg.Port))
	if cfg.TunnelEnabled {
		s += fmt.Sprintf(" via ssh %s", util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	return s
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `SimpleChat v%s

A line-oriented chat server and client.

Usage:
  simplechat -l [port] [options]                   Server
  simplechat [options] <login-id> [host] [port]    Client
  simplechat -T user@gateway <login-id> host port  Client via SSH

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Server commands:
  #quit #stop #close #setport <port> #start #getport
  any other line is broadcast as "SERVER MSG> <line>"

Client commands:
  #quit #logoff #sethost <host> #setport <port> #login #gethost #getport

Examples:
  simplechat -l                                    Serve on 5555
  simplechat -l 6000                               Serve on 6000
  simplechat alice chat.example.org                Join as alice
  simplechat -T admin@bastion bob 10.0.0.5 5555    Join through a gateway
`)
}
