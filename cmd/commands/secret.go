package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/threatthriver/thinkchat/internal/config"
	"github.com/threatthriver/thinkchat/internal/secrets"
)

var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage encrypted secrets in the thinkchat .env",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt a value (read from the terminal or stdin) and store it in .env",
				ArgsUsage: "<KEY>",
				Action:    runSecretSet,
			},
		},
	}
}

func runSecretSet(_ context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if !envKeyRe.MatchString(key) {
		return fmt.Errorf("usage: thinkchat secret set <KEY> (letters, digits and underscores)")
	}

	value, err := readSecret(key)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty value for %s", key)
	}

	if err := secrets.Seal(config.DotenvPath(), secrets.KeyPath(), key, value); err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%s stored encrypted in %s\n", key, config.DotenvPath())
	return nil
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret(key string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", key)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
