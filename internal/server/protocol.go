package server

import (
	"errors"
	"fmt"
	"strings"

	"simplechat/internal/conn"
	cerr "simplechat/internal/errors"
	"simplechat/util"
)

// Lines the server sends to clients.
const (
	MsgAlreadyLoggedIn = "You are already logged in."
	MsgLoginRequired   = "Error: You must log in first with #login <id>."
	ServerMsgPrefix    = "SERVER MSG> "
)

// MsgNewClient is shown to the operator when a client logs in.
const MsgNewClient = "A new client has connected to the server."

// LoginCommand is the only command a client may send.
const LoginCommand = "#login"

// RequestKind tells a login apart from a chat line.
type RequestKind int

const (
	RequestChat RequestKind = iota
	RequestLogin
)

// Request is one parsed line from a client.
type Request struct {
	Kind    RequestKind
	LoginID string // RequestLogin only; "" when missing
	Text    string // the full line
}

// ParseRequest classifies line.  A login carries the first word after
// the command as its id; anything else is chat.
func ParseRequest(line string) Request {
	cmd, rest := util.SplitCommand(line)
	if cmd != LoginCommand {
		return Request{Kind: RequestChat, Text: line}
	}
	req := Request{Kind: RequestLogin, Text: line}
	if f := strings.Fields(rest); len(f) > 0 {
		req.LoginID = f[0]
	}
	return req
}

// LoggedOn is the announcement broadcast when id logs in.
func LoggedOn(id string) string { return id + " has logged on." }

// ChatLine is the broadcast form of text sent by id.
func ChatLine(id, text string) string { return id + "> " + text }

// handleMessage applies one client line to c's session.  A returned
// error is a protocol violation and the caller must drop c.
func (s *Server) handleMessage(c *conn.Conn, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	req := ParseRequest(line)
	switch req.Kind {
	case RequestLogin:
		return s.handleLogin(c, req)
	default:
		return s.handleChat(c, req)
	}
}

func (s *Server) handleLogin(c *conn.Conn, req Request) error {
	err := s.registry.Login(c, req.LoginID)
	switch {
	case err == nil:
		s.metrics.LoginAccepted()
		s.logger.Info("%s logged in as %q", c, req.LoginID)
		s.display.Display(MsgNewClient)
		s.display.Display(LoggedOn(req.LoginID))
		s.registry.Broadcast(LoggedOn(req.LoginID))
		return nil

	case errors.Is(err, cerr.ErrAlreadyLoggedIn):
		s.registry.Send(c, MsgAlreadyLoggedIn) //nolint:errcheck
		return cerr.Protocol("login", err)

	case errors.Is(err, cerr.ErrMissingLoginID):
		s.registry.Send(c, MsgLoginRequired) //nolint:errcheck
		return cerr.Protocol("login", err)

	default:
		return cerr.Transport("login", err)
	}
}

func (s *Server) handleChat(c *conn.Conn, req Request) error {
	sess, ok := s.registry.Session(c)
	if !ok || !sess.Authenticated() {
		s.registry.Send(c, MsgLoginRequired) //nolint:errcheck
		return cerr.Protocol("chat", cerr.ErrNotLoggedIn)
	}

	s.display.Display(fmt.Sprintf("Message received: %q from %s", req.Text, sess.LoginID()))
	s.registry.Broadcast(ChatLine(sess.LoginID(), req.Text))
	return nil
}
