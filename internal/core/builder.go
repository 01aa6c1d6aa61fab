package core

import (
	"io"

	"simplechat/config"
	"simplechat/internal/metrics"
	"simplechat/internal/retry"
	"simplechat/internal/transport"
	"simplechat/util"
)

// Build constructs the Mode selected by cfg.  stdin and stdout may be
// nil to use the process streams.
func Build(cfg *config.Config, logger *util.Logger, stdin io.Reader, stdout io.Writer) (Mode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	streams := stdio{Stdin: stdin, Stdout: stdout}

	if cfg.Listen {
		return &ServerMode{
			stdio:   streams,
			Port:    cfg.Port,
			Logger:  logger,
			Metrics: metrics.New(),
		}, nil
	}

	return &ClientMode{
		stdio:   streams,
		LoginID: cfg.LoginID,
		Host:    cfg.Host,
		Port:    cfg.Port,
		Dialer:  transport.ForConfig(cfg, logger),
		Backoff: retry.Attempts(cfg.Attempts),
		Logger:  logger,
	}, nil
}
