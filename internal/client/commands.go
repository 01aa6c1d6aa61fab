package client

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"simplechat/config"
	cerr "simplechat/internal/errors"
)

// CommandKind enumerates the client's local commands.
type CommandKind int

const (
	CmdQuit CommandKind = iota
	CmdLogoff
	CmdSetHost
	CmdSetPort
	CmdLogin
	CmdGetHost
	CmdGetPort
)

type command struct {
	name  string
	arity int
	usage string
	run   func(c *Client, ctx context.Context, args []string)
}

var commands = map[CommandKind]command{
	CmdQuit:    {"#quit", 0, "#quit", (*Client).cmdQuit},
	CmdLogoff:  {"#logoff", 0, "#logoff", (*Client).cmdLogoff},
	CmdSetHost: {"#sethost", 1, "#sethost <host>", (*Client).cmdSetHost},
	CmdSetPort: {"#setport", 1, "#setport <port>", (*Client).cmdSetPort},
	CmdLogin:   {"#login", 0, "#login", (*Client).cmdLogin},
	CmdGetHost: {"#gethost", 0, "#gethost", (*Client).cmdGetHost},
	CmdGetPort: {"#getport", 0, "#getport", (*Client).cmdGetPort},
}

var commandByName = func() map[string]CommandKind {
	m := make(map[string]CommandKind, len(commands))
	for k, cmd := range commands {
		m[cmd.name] = k
	}
	return m
}()

func (k CommandKind) String() string {
	if cmd, ok := commands[k]; ok {
		return cmd.name
	}
	return "CommandKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseCommand resolves a '#' line to its command and arguments.
func ParseCommand(line string) (CommandKind, []string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, cerr.InvalidArgument("command", cerr.ErrUnknownCommand)
	}
	kind, ok := commandByName[fields[0]]
	if !ok {
		return 0, nil, cerr.InvalidArgument(fields[0], cerr.ErrUnknownCommand)
	}
	args := fields[1:]
	if len(args) < commands[kind].arity {
		return kind, nil, cerr.InvalidArgument(fields[0], errors.New("missing argument"))
	}
	return kind, args, nil
}

func (c *Client) runCommand(ctx context.Context, line string) {
	kind, args, err := ParseCommand(line)
	switch {
	case errors.Is(err, cerr.ErrUnknownCommand):
		c.display.Display(MsgInvalidCommand)
		return
	case err != nil && kind == CmdSetPort:
		c.display.Display(MsgInvalidPort)
		return
	case err != nil:
		c.display.Display("Usage: " + commands[kind].usage)
		return
	}
	commands[kind].run(c, ctx, args)
}

// ── command handlers ─────────────────────────────────────────────────

func (c *Client) cmdQuit(_ context.Context, _ []string) {
	c.Quit()
}

func (c *Client) cmdLogoff(_ context.Context, _ []string) {
	if err := c.Logoff(); err != nil {
		c.logger.Debug("logoff: %v", err)
	}
	c.display.Display(MsgLoggedOff)
}

func (c *Client) cmdSetHost(_ context.Context, args []string) {
	if err := c.SetHost(args[0]); err != nil {
		c.display.Display(MsgHostLocked)
	}
}

func (c *Client) cmdSetPort(_ context.Context, args []string) {
	port, err := config.ParsePort(args[0])
	if err != nil {
		c.display.Display(MsgInvalidPort)
		return
	}
	if err := c.SetPort(port); err != nil {
		c.display.Display(MsgPortLocked)
	}
}

func (c *Client) cmdLogin(ctx context.Context, _ []string) {
	err := c.Open(ctx)
	switch {
	case err == nil:
	case errors.Is(err, cerr.ErrAlreadyConnected):
		c.display.Display(MsgAlreadyConnected)
	default:
		c.logger.Warn("login: %v", err)
		c.display.Display(MsgCannotOpen)
	}
}

func (c *Client) cmdGetHost(_ context.Context, _ []string) {
	c.display.Display("Current host: " + c.Host())
}

func (c *Client) cmdGetPort(_ context.Context, _ []string) {
	c.display.Display("Current port: " + strconv.Itoa(c.Port()))
}
