package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/peerhub-go/internal/cli/output"
	"github.com/yndnr/peerhub-go/internal/server/httpserver/handler"
)

// peerList renders the tracker directory as a table.
type peerList handler.GetListResponse

func (p peerList) Table() *output.Table {
	t := output.NewTable("USER", "ITEM", "HOST", "PORT", "STATE")
	for _, e := range p.List {
		t.AddRow(e.User, e.Item, e.Host, strconv.Itoa(e.Port), e.State)
	}
	return t
}

// ListCommand returns the list subcommand.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "list peers registered with the tracker",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			ctx, cancel := callContext(c)
			defer cancel()

			list, err := client.List(ctx)
			if err != nil {
				return err
			}
			return render(c, peerList(list))
		},
	}
}

// ConnectCommand returns the connect subcommand.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "make a registered peer reachable for messages",
		ArgsUsage: "PEER",
		Action: func(c *cli.Context) error {
			peer := c.Args().First()
			if peer == "" {
				return errors.New("connect requires a peer name")
			}
			client, err := newClient(c)
			if err != nil {
				return err
			}
			ctx, cancel := callContext(c)
			defer cancel()

			resp, err := client.Connect(ctx, peer)
			if err != nil {
				return err
			}
			return render(c, resp)
		},
	}
}

// SendCommand returns the send subcommand.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "send a private message to a connected peer",
		ArgsUsage: "MESSAGE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "sender name", Required: true},
			&cli.StringFlag{Name: "to", Usage: "target peer", Required: true},
		},
		Action: func(c *cli.Context) error {
			msg := strings.Join(c.Args().Slice(), " ")
			if msg == "" {
				return errors.New("send requires a message")
			}
			client, err := newClient(c)
			if err != nil {
				return err
			}
			ctx, cancel := callContext(c)
			defer cancel()

			if err := client.Send(ctx, c.String("from"), c.String("to"), msg); err != nil {
				return err
			}
			return render(c, fmt.Sprintf("sent to %s", c.String("to")))
		},
	}
}

// BroadcastCommand returns the broadcast subcommand.
func BroadcastCommand() *cli.Command {
	return &cli.Command{
		Name:      "broadcast",
		Usage:     "send a message to every connected peer",
		ArgsUsage: "MESSAGE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "sender name", Required: true},
		},
		Action: func(c *cli.Context) error {
			msg := strings.Join(c.Args().Slice(), " ")
			if msg == "" {
				return errors.New("broadcast requires a message")
			}
			client, err := newClient(c)
			if err != nil {
				return err
			}
			ctx, cancel := callContext(c)
			defer cancel()

			confirm, err := client.Broadcast(ctx, c.String("from"), msg)
			if err != nil {
				return err
			}
			return render(c, stripTags(confirm))
		},
	}
}

// stripTags reduces the tracker's HTML confirmation to its text.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
