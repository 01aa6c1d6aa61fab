package core

import (
	"context"

	"simplechat/internal/console"
	"simplechat/internal/metrics"
	"simplechat/internal/server"
	"simplechat/util"
)

// ServerMode runs the chat server with the operator console attached
// to stdin/stdout.
type ServerMode struct {
	stdio

	Port    int
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Run listens, then executes operator commands until #quit, the end
// of input or ctx cancellation.  A failure to listen is reported to the
// operator, who may pick another port and #start again.
func (m *ServerMode) Run(ctx context.Context) error {
	con := console.New(m.stdin(), m.stdout())

	srv := server.New(server.Options{
		Port:    m.Port,
		Display: con,
		Logger:  m.Logger,
		Metrics: m.Metrics,
	})

	if err := srv.Listen(); err != nil {
		m.Logger.Error("%v", err)
		con.Display(server.MsgListenFailed)
	}
	if con.Interactive() {
		con.Display("Type #quit to stop the server.")
	}

	return srv.Run(ctx, con.Lines(ctx))
}
