package server

import (
	"errors"
	"strconv"
	"strings"

	"simplechat/config"
	cerr "simplechat/internal/errors"
)

// Operator-facing replies.
const (
	MsgCloseFailed      = "Error closing server."
	MsgInvalidPort      = "Error: Invalid port number."
	MsgPortLocked       = "Error: Cannot change port number while server is running."
	MsgListenFailed     = "Error: Could not listen for clients."
	MsgAlreadyListening = "Error: Server is already listening for clients."
	MsgInvalidCommand   = "Error: Invalid command."
)

// ControlKind enumerates the operator commands.
type ControlKind int

const (
	ControlQuit ControlKind = iota
	ControlStop
	ControlClose
	ControlSetPort
	ControlStart
	ControlGetPort
)

type controlCommand struct {
	name  string
	arity int // required arguments; extra ones are ignored
	run   func(s *Server, args []string) error
}

var controlTable = map[ControlKind]controlCommand{
	ControlQuit:    {"#quit", 0, (*Server).cmdQuit},
	ControlStop:    {"#stop", 0, (*Server).cmdStop},
	ControlClose:   {"#close", 0, (*Server).cmdClose},
	ControlSetPort: {"#setport", 1, (*Server).cmdSetPort},
	ControlStart:   {"#start", 0, (*Server).cmdStart},
	ControlGetPort: {"#getport", 0, (*Server).cmdGetPort},
}

var controlByName = func() map[string]ControlKind {
	m := make(map[string]ControlKind, len(controlTable))
	for k, cmd := range controlTable {
		m[cmd.name] = k
	}
	return m
}()

func (k ControlKind) String() string {
	if cmd, ok := controlTable[k]; ok {
		return cmd.name
	}
	return "ControlKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseControl resolves an operator line starting with '#' to its
// command and arguments.  Unknown commands fail with ErrUnknownCommand
// and missing arguments with an invalid-argument error.
func ParseControl(line string) (ControlKind, []string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, cerr.InvalidArgument("control", cerr.ErrUnknownCommand)
	}
	kind, ok := controlByName[fields[0]]
	if !ok {
		return 0, nil, cerr.InvalidArgument(fields[0], cerr.ErrUnknownCommand)
	}
	args := fields[1:]
	if want := controlTable[kind].arity; len(args) < want {
		return kind, nil, cerr.InvalidArgument(fields[0], errors.New("missing argument"))
	}
	return kind, args, nil
}

// HandleCommand runs one line typed by the operator.  Lines starting
// with '#' are commands; anything else is broadcast to every client
// and echoed to the operator.
func (s *Server) HandleCommand(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if !strings.HasPrefix(line, "#") {
		msg := ServerMsgPrefix + line
		s.display.Display(msg)
		s.registry.Broadcast(msg)
		return
	}

	kind, args, err := ParseControl(line)
	if err == nil {
		err = controlTable[kind].run(s, args)
	}
	if err != nil {
		s.logger.Debug("operator command %q: %v", line, err)
		s.display.Display(operatorMessage(kind, err))
	}
}

// operatorMessage maps a failed command to the reply shown to the
// operator.
func operatorMessage(kind ControlKind, err error) string {
	switch {
	case errors.Is(err, cerr.ErrUnknownCommand):
		return MsgInvalidCommand
	case errors.Is(err, cerr.ErrServerRunning):
		return MsgPortLocked
	case errors.Is(err, cerr.ErrAlreadyListening):
		return MsgAlreadyListening
	}
	switch kind {
	case ControlSetPort:
		return MsgInvalidPort
	case ControlStart:
		return MsgListenFailed
	case ControlClose, ControlQuit:
		return MsgCloseFailed
	}
	return "Error: " + err.Error()
}

// ── command handlers ─────────────────────────────────────────────────

func (s *Server) cmdQuit(_ []string) error {
	return s.Shutdown()
}

func (s *Server) cmdStop(_ []string) error {
	s.StopListening()
	return nil
}

func (s *Server) cmdClose(_ []string) error {
	return s.Close()
}

func (s *Server) cmdSetPort(args []string) error {
	port, err := config.ParsePort(args[0])
	if err != nil {
		return cerr.InvalidArgument("setport", err)
	}
	return s.SetPort(port)
}

func (s *Server) cmdStart(_ []string) error {
	return s.Listen()
}

func (s *Server) cmdGetPort(_ []string) error {
	s.display.Display("Port: " + strconv.Itoa(s.Port()))
	return nil
}
