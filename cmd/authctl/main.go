// Package main is the entry point for authctl, the authkeeper CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/authkeeper/internal/client/cli"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cmd := cli.NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
