// Package command defines the peerhub-peer command line.
//
// Without a subcommand, peerhub-peer starts a peer: it listens on its
// own port, registers with the tracker, optionally connects to and
// messages other peers, and logs every message it receives until
// interrupted. The list, connect, send and broadcast subcommands make a
// single tracker call each.
package command
