package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "txconfirm",
		Usage: "Solana transaction confirmation CLI",
		Description: `A command-line tool for deciding the fate of submitted Solana transactions.

Feed it a signed transaction and it races the signature-confirmation signal
against the transaction's lifetime constraint (recent blockhash or durable
nonce), reporting whichever settles first.

Endpoints and optional integrations are configured via environment
variables: SOLANA_RPC_URL, SOLANA_WS_URL, NATS_URL, DATABASE_URL.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			{
				Name:  "wait",
				Usage: "Wait for a transaction's fate to be decided",
				Subcommands: []*cli.Command{
					waitRecentCommand(),
					waitNonceCommand(),
				},
			},
			{
				Name:  "signature",
				Usage: "Signature inspection commands",
				Subcommands: []*cli.Command{
					signatureStatusCommand(),
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newLogger builds the CLI logger. Output goes to stderr so stdout stays
// reserved for command results.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
