package server

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	cerr "simplechat/internal/errors"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line   string
		kind   RequestKind
		login  string
		reason string
	}{
		{"#login alice", RequestLogin, "alice", "plain login"},
		{"#login  alice  extra", RequestLogin, "alice", "first word only"},
		{"#login", RequestLogin, "", "missing id"},
		{"#login ", RequestLogin, "", "blank id"},
		{"hello world", RequestChat, "", "chat"},
		{"#loginalice", RequestChat, "", "no separator"},
		{"#quit", RequestChat, "", "operator commands are chat from clients"},
		{" #login bob", RequestChat, "", "leading space"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			req := ParseRequest(tt.line)
			if req.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", req.Kind, tt.kind)
			}
			if req.LoginID != tt.login {
				t.Errorf("login = %q, want %q", req.LoginID, tt.login)
			}
			if req.Text != tt.line {
				t.Errorf("text = %q, want %q", req.Text, tt.line)
			}
		})
	}
}

func TestBroadcastShapes(t *testing.T) {
	if got := LoggedOn("alice"); got != "alice has logged on." {
		t.Errorf("LoggedOn = %q", got)
	}
	if got := ChatLine("alice", "hello"); got != "alice> hello" {
		t.Errorf("ChatLine = %q", got)
	}
}

func TestProtocol_LoginAnnouncedToAll(t *testing.T) {
	s, rec := startTestServer(t)

	alice := loginPeer(t, s, "alice")
	bob := dialPeer(t, s)
	bob.send("#login bob")

	bob.expect("bob has logged on.")
	alice.expect("bob has logged on.")
	rec.waitFor(t, MsgNewClient)
	rec.waitFor(t, "bob has logged on.")
}

func TestProtocol_PastedLinesReachEveryPeer(t *testing.T) {
	s, _ := startTestServer(t)
	const pasted = 150

	alice := loginPeer(t, s, "alice")
	bob := loginPeer(t, s, "bob")
	alice.expect(LoggedOn("bob"))

	var paste strings.Builder
	for i := 0; i < pasted; i++ {
		fmt.Fprintf(&paste, "line %d\n", i)
	}
	if _, err := alice.nc.Write([]byte(paste.String())); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < pasted; i++ {
		bob.expect(ChatLine("alice", fmt.Sprintf("line %d", i)))
	}
	for i := 0; i < pasted; i++ {
		alice.expect(ChatLine("alice", fmt.Sprintf("line %d", i)))
	}
	if n := s.metrics.DeliveryFailures(); n != 0 {
		t.Errorf("delivery failures = %d, want 0", n)
	}
}

func TestProtocol_ChatBroadcast(t *testing.T) {
	s, rec := startTestServer(t)

	alice := loginPeer(t, s, "alice")
	bob := loginPeer(t, s, "bob")
	alice.expect("bob has logged on.")

	alice.send("hello")
	alice.expect("alice> hello")
	bob.expect("alice> hello")
	rec.waitFor(t, `Message received: "hello" from alice`)
}

func TestProtocol_DuplicateLogin(t *testing.T) {
	s, _ := startTestServer(t)

	alice := loginPeer(t, s, "alice")
	bob := loginPeer(t, s, "bob")
	alice.expect("bob has logged on.")

	bob.send("#login bob")
	bob.expect(MsgAlreadyLoggedIn)
	bob.expectClosed()

	// alice is unaffected and sees nothing about bob's rejection.
	alice.send("still here")
	alice.expect("alice> still here")

	if !s.IsListening() {
		t.Error("a duplicate login must not stop the server")
	}
	if v := s.metrics.Violations(); v != 1 {
		t.Errorf("violations = %d, want 1", v)
	}
}

func TestProtocol_DuplicateLoginKeepsID(t *testing.T) {
	s, _ := newTestServer(t)
	p := newPipe(t)
	s.registry.Add(p.c)

	if err := s.handleMessage(p.c, "#login bob"); err != nil {
		t.Fatal(err)
	}
	err := s.handleMessage(p.c, "#login mallory")
	if cerr.KindOf(err) != cerr.KindProtocolViolation {
		t.Fatalf("expected protocol violation, got %v", err)
	}
	if sess, _ := s.registry.Session(p.c); sess.LoginID() != "bob" {
		t.Errorf("login id = %q, want bob", sess.LoginID())
	}

	if got := p.read(t); got != "bob has logged on." {
		t.Errorf("got %q", got)
	}
	if got := p.read(t); got != MsgAlreadyLoggedIn {
		t.Errorf("got %q", got)
	}
}

func TestProtocol_UnauthenticatedChatIsViolation(t *testing.T) {
	s, _ := newTestServer(t)
	p := newPipe(t)
	s.registry.Add(p.c)

	err := s.handleMessage(p.c, "hello")
	if !errors.Is(err, cerr.ErrNotLoggedIn) || cerr.KindOf(err) != cerr.KindProtocolViolation {
		t.Fatalf("expected not-logged-in violation, got %v", err)
	}
	if s.metrics.Broadcasts() != 0 {
		t.Error("nothing may be broadcast for an unauthenticated session")
	}
}

func TestProtocol_ChatBeforeLogin(t *testing.T) {
	s, _ := startTestServer(t)

	alice := loginPeer(t, s, "alice")

	carol := dialPeer(t, s)
	carol.send("hello before login")
	carol.expect(MsgLoginRequired)
	carol.expectClosed()

	// Nothing was broadcast on carol's behalf: alice's next line is her own.
	alice.send("ping")
	alice.expect("alice> ping")
}

func TestProtocol_LoginWithoutID(t *testing.T) {
	s, _ := startTestServer(t)

	alice := loginPeer(t, s, "alice")

	p := dialPeer(t, s)
	p.send("#login")
	p.expect(MsgLoginRequired)
	p.expectClosed()

	alice.send("ping")
	alice.expect("alice> ping")

	if s.metrics.Logins() != 1 {
		t.Errorf("logins = %d, want 1", s.metrics.Logins())
	}
}

func TestProtocol_BlankLinesIgnored(t *testing.T) {
	s, _ := startTestServer(t)

	p := dialPeer(t, s)
	p.send("")
	p.send("   ")
	p.send("#login dave")
	p.expect("dave has logged on.")
}
