// Package console is the line-oriented front end shared by the chat
// server's operator and the chat client's user.  It reads commands from
// an input stream and prints messages to an output stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// DefaultPrefix is prepended to every displayed message.
const DefaultPrefix = "> "

// Display shows one message to the person at the console.
type Display interface {
	Display(msg string)
}

// Console reads lines from In and displays messages on Out.
type Console struct {
	prefix string
	in     io.Reader

	mu  sync.Mutex
	out io.Writer
}

// New returns a console over in and out.  Nil streams default to
// os.Stdin and os.Stdout.
func New(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{prefix: DefaultPrefix, in: in, out: out}
}

// Display prints msg on its own line.  Safe for concurrent use.
func (c *Console) Display(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s%s\n", c.prefix, msg)
}

// Lines streams input lines, without terminators, until the input ends
// or ctx is cancelled.  The channel is closed when reading stops; a read
// error is displayed first.
//
// The reader goroutine may stay blocked on the underlying stream after
// ctx is cancelled; nothing is delivered once that happens.
func (c *Console) Lines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			line := strings.TrimSuffix(sc.Text(), "\r")
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			c.Display("Error reading input: " + err.Error())
		}
	}()
	return out
}

// IsInteractive reports whether r is a terminal.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether the console reads from a terminal.
func (c *Console) Interactive() bool { return IsInteractive(c.in) }
