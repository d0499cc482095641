package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/peerhub-go/internal/cli/output"
	"github.com/yndnr/peerhub-go/internal/infra/buildinfo"
	"github.com/yndnr/peerhub-go/internal/peeragent"
	"github.com/yndnr/peerhub-go/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "peerhub-peer",
		Usage:   "run a peerhub peer or talk to a tracker",
		Version: buildinfo.String(),
		Flags:   append(globalFlags(), runFlags()...),
		Action:  runPeer,
		Commands: []*cli.Command{
			ListCommand(),
			ConnectCommand(),
			SendCommand(),
			BroadcastCommand(),
		},
	}
}

// globalFlags returns the flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tracker",
			Aliases: []string{"t"},
			Usage:   "tracker address (host:port or URL)",
			EnvVars: []string{"PEERHUB_TRACKER"},
			Value:   "127.0.0.1:8080",
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "log in to the tracker before any call",
			EnvVars: []string{"PEERHUB_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "password for --username",
			EnvVars: []string{"PEERHUB_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "tracker request timeout",
			Value: 10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level: debug, info, warn, error",
			EnvVars: []string{"PEERHUB_LOG_LEVEL"},
			Value:   "info",
		},
	}
}

// newClient builds a tracker client from the global flags and logs in
// when credentials are given.
func newClient(c *cli.Context) (*peeragent.Client, error) {
	client, err := peeragent.NewClient(c.String("tracker"), c.Duration("timeout"))
	if err != nil {
		return nil, err
	}
	if user := c.String("username"); user != "" {
		if err := client.Login(c.Context, user, c.String("password")); err != nil {
			return nil, fmt.Errorf("login as %s: %w", user, err)
		}
	}
	return client, nil
}

// newLogger builds the command logger writing to the app's error stream.
func newLogger(c *cli.Context) (logger.Logger, error) {
	cfg := logger.DefaultConfig()
	cfg.Level = c.String("log-level")
	cfg.Format = "text"
	cfg.Output = c.App.ErrWriter
	return logger.New(cfg)
}

// render writes data in the --output format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// callContext bounds one tracker call.
func callContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, c.Duration("timeout"))
}
