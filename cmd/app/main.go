// Package main provides the entry point for the cipher CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "cipher",
		Usage:    "Envelope encryption with a local or Google Cloud KMS master key",
		Version:  version,
		Flags:    getGlobalFlags(),
		Commands: getCommands(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
