// Package main provides the entry point for peerhub-peer.
//
// peerhub-peer runs a peer that registers with a peerhub tracker and
// prints the messages relayed to it, and offers one-shot commands for
// listing, connecting and messaging peers.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/peerhub-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
