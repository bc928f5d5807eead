package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/suryadisoft/cipher/cmd/app/commands"
	"github.com/suryadisoft/cipher/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-key",
			Usage: "Generate key material for a LOCAL master key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   config.DefaultAlgorithm,
					Usage:   "Key algorithm (AES, AES_128, AES_192 or AES_256)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunGenerateKey(
					slog.Default(),
					commands.DefaultIO().Writer,
					cmd.String("algorithm"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "generate-salt",
			Usage: "Generate a random salt for hashing",
			Flags: []cli.Flag{
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunGenerateSalt(commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "master-key-info",
			Usage: "Describe the configured master key without revealing it",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				c, err := commands.OpenCipher(cmd.String("properties"))
				if err != nil {
					return err
				}
				defer commands.CloseCipher(ctx, c, slog.Default())

				return commands.RunMasterKeyInfo(c, commands.DefaultIO().Writer)
			},
		},
	}
}
