// Package core composes the building blocks into the two things the
// simplechat binary can do: host a chat server with an operator
// console, or join one as a client.
//
// Layers (bottom → top):
//
//	conn / transport  →  server / client  →  core  →  cmd (CLI)
package core

import (
	"context"
	"io"
	"os"
)

// Mode is one complete run of simplechat, from start-up to the point
// where the process may exit.
type Mode interface {
	Run(ctx context.Context) error
}

// stdio supplies a mode's console streams.  Nil fields default to the
// process's stdin and stdout.
type stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
}

func (s stdio) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s stdio) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}
