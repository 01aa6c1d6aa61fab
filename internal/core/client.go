package core

import (
	"context"

	"simplechat/internal/client"
	"simplechat/internal/console"
	"simplechat/internal/retry"
	"simplechat/internal/transport"
	"simplechat/util"
)

// ClientMode joins a chat server as LoginID and relays the user's
// console.
type ClientMode struct {
	stdio

	LoginID string
	Host    string
	Port    int
	Dialer  transport.Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
}

// Run connects, logs in and forwards input until the client
// terminates.  The dialer is closed when Run returns.
func (m *ClientMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	con := console.New(m.stdin(), m.stdout())
	c := client.New(client.Options{
		LoginID: m.LoginID,
		Host:    m.Host,
		Port:    m.Port,
		Dialer:  m.Dialer,
		Backoff: m.Backoff,
		Display: con,
		Logger:  m.Logger,
	})

	if err := c.Open(ctx); err != nil {
		m.Logger.Error("%v", err)
		con.Display(client.MsgCannotOpen)
	}

	return c.Run(ctx, con.Lines(ctx))
}
