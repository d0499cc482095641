package command

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/peerhub-go/internal/infra/shutdown"
	"github.com/yndnr/peerhub-go/internal/peeragent"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "peer name to register",
			EnvVars: []string{"PEERHUB_PEER_NAME"},
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "host to listen on and announce",
			Value: "127.0.0.1",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port to listen on and announce (0 picks a free port)",
		},
		&cli.StringFlag{
			Name:  "item",
			Usage: "item to announce (defaults to the peer name)",
		},
		&cli.StringSliceFlag{
			Name:  "connect",
			Usage: "peer to connect to after registering (repeatable)",
		},
		&cli.StringFlag{
			Name:    "message",
			Aliases: []string{"m"},
			Usage:   "message to send to every --connect peer",
		},
	}
}

// runPeer starts the listener, registers with the tracker and waits for
// interruption.
func runPeer(c *cli.Context) error {
	name := c.String("name")
	if name == "" {
		return cli.ShowAppHelp(c)
	}

	log, err := newLogger(c)
	if err != nil {
		return err
	}
	log = log.With("peer", name)

	client, err := newClient(c)
	if err != nil {
		return err
	}

	// 1. Listen
	listener := peeragent.NewListener(peeragent.ListenerConfig{
		Addr: net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port"))),
	}, log)
	if err := listener.Start(c.Context); err != nil {
		return err
	}

	shut := shutdown.NewHandler(5*time.Second, log)
	shut.OnShutdown("listener", func(context.Context) error { return listener.Close() })

	// 2. Register
	item := c.String("item")
	if item == "" {
		item = name
	}
	ctx, cancel := callContext(c)
	err = client.Register(ctx, name, item, c.String("host"), listener.Port())
	cancel()
	if err != nil {
		shut.Shutdown()
		return fmt.Errorf("register %s: %w", name, err)
	}
	log.Info("registered with tracker", "tracker", c.String("tracker"), "port", listener.Port())

	// 3. Connect and message
	for _, peer := range c.StringSlice("connect") {
		if err := connectAndSend(c, client, name, peer); err != nil {
			log.Warn("peer interaction failed", "target", peer, "error", err)
		}
	}

	return shut.Wait(c.Context)
}

func connectAndSend(c *cli.Context, client *peeragent.Client, name, peer string) error {
	ctx, cancel := callContext(c)
	defer cancel()

	resp, err := client.Connect(ctx, peer)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "connected to %s at %s\n", resp.PeerUser, net.JoinHostPort(resp.Host, strconv.Itoa(resp.Port)))

	msg := c.String("message")
	if msg == "" {
		return nil
	}
	if err := client.Send(ctx, name, peer, msg); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "sent to %s: %s\n", peer, msg)
	return nil
}
