package core

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"simplechat/internal/client"
	"simplechat/internal/metrics"
	"simplechat/internal/retry"
	"simplechat/internal/transport"
	"simplechat/util"
)

func TestServerMode_Run(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	m := &ServerMode{
		stdio:   stdio{Stdin: strings.NewReader("#getport\n#quit\n"), Stdout: &out},
		Port:    port,
		Logger:  util.NewLogger(0),
		Metrics: metrics.New(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"> Server listening for connections on port " + strconv.Itoa(port),
		"> Port: " + strconv.Itoa(port),
		"> Server has stopped listening for connections.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestServerMode_ListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	var out bytes.Buffer
	m := &ServerMode{
		stdio:  stdio{Stdin: strings.NewReader("#quit\n"), Stdout: &out},
		Port:   busy.Addr().(*net.TCPAddr).Port,
		Logger: util.NewLogger(-1),
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Error: Could not listen for clients.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestClientMode_Run(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	received := make(chan []string, 1)
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		defer nc.Close()
		var lines []string
		sc := bufio.NewScanner(nc)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		received <- lines
	}()

	var out bytes.Buffer
	m := &ClientMode{
		stdio:   stdio{Stdin: strings.NewReader("hello everyone\n#quit\n"), Stdout: &out},
		LoginID: "bob",
		Host:    "127.0.0.1",
		Port:    port,
		Dialer:  &transport.TCPDialer{Timeout: time.Second},
		Backoff: retry.Attempts(1),
		Logger:  util.NewLogger(0),
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case lines := <-received:
		want := []string{"#login bob", "hello everyone"}
		if strings.Join(lines, "|") != strings.Join(want, "|") {
			t.Errorf("server received %q, want %q", lines, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the client disconnect")
	}
	if !strings.Contains(out.String(), "> Connecting to server 127.0.0.1 on port "+strconv.Itoa(port)) {
		t.Errorf("output = %q", out.String())
	}
}

func TestClientMode_OpenFailure(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	m := &ClientMode{
		stdio:   stdio{Stdin: strings.NewReader("#getport\n#quit\n"), Stdout: &out},
		LoginID: "bob",
		Host:    "127.0.0.1",
		Port:    port,
		Dialer:  &transport.TCPDialer{Timeout: time.Second},
		Backoff: retry.Attempts(1),
		Logger:  util.NewLogger(-1),
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{client.MsgCannotOpen, "Current port: " + strconv.Itoa(port)} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}
