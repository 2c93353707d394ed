package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/pkg/token"
)

// TokenView is what token generate prints.
type TokenView struct {
	Token string `json:"token" yaml:"token" toml:"token"`
	Hash  string `json:"hash" yaml:"hash" toml:"hash"`
}

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Create bearer tokens for the agent API",
		Subcommands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Generate a random token and its server.http.auth_token_hash",
				Action: tokenGenerate,
			},
			{
				Name:      "hash",
				Usage:     "Hash a token read from the argument or stdin",
				ArgsUsage: "[TOKEN]",
				Action:    tokenHash,
			},
		},
	}
}

func tokenGenerate(c *cli.Context) error {
	tok, err := token.Generate()
	if err != nil {
		return err
	}
	hash, err := token.Hash(tok)
	if err != nil {
		return err
	}
	return render(c, TokenView{Token: tok, Hash: hash})
}

func tokenHash(c *cli.Context) error {
	tok := c.Args().First()
	if tok == "" || tok == "-" {
		input, err := readInput(c)
		if err != nil {
			return err
		}
		tok = strings.TrimSpace(input)
	}
	if tok == "" {
		return cli.Exit("empty token", 2)
	}

	hash, err := token.Hash(tok)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, hash)
	return err
}
