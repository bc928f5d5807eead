package main

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/suryadisoft/cipher/cmd/app/commands"
)

func getCryptCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "Encrypt a value (read from stdin when --input is omitted)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "input",
					Aliases: []string{"i"},
					Usage:   "Plaintext to encrypt",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				c, err := commands.OpenCipher(cmd.String("properties"))
				if err != nil {
					return err
				}
				defer commands.CloseCipher(ctx, c, slog.Default())

				return commands.RunEncrypt(
					ctx,
					c,
					slog.Default(),
					commands.DefaultIO(),
					cmd.String("input"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "decrypt",
			Usage: "Decrypt a {wrappedDataKey}ciphertext value (read from stdin when --input is omitted)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "input",
					Aliases: []string{"i"},
					Usage:   "Ciphertext to decrypt",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				c, err := commands.OpenCipher(cmd.String("properties"))
				if err != nil {
					return err
				}
				defer commands.CloseCipher(ctx, c, slog.Default())

				return commands.RunDecrypt(
					ctx,
					c,
					slog.Default(),
					commands.DefaultIO(),
					cmd.String("input"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "hash",
			Usage: "Hash a value with a salt (read from stdin when --input is omitted)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "input",
					Aliases: []string{"i"},
					Usage:   "Plaintext to hash",
				},
				&cli.StringFlag{
					Name:     "salt",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Base64 salt (see generate-salt)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				c, err := commands.OpenCipher(cmd.String("properties"))
				if err != nil {
					return err
				}
				defer commands.CloseCipher(ctx, c, slog.Default())

				return commands.RunHash(
					c,
					commands.DefaultIO(),
					cmd.String("input"),
					cmd.String("salt"),
					cmd.String("format"),
				)
			},
		},
	}
}
