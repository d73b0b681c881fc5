package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/itchyny/gojq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/txconfirm/config"
	"github.com/brojonat/txconfirm/confirm"
	"github.com/brojonat/txconfirm/confirmer"
	"github.com/brojonat/txconfirm/events"
	"github.com/brojonat/txconfirm/signals"
	"github.com/brojonat/txconfirm/store"
)

// waitResult is the JSON document printed on stdout after a wait settles.
type waitResult struct {
	Signature  string `json:"signature"`
	Lifetime   string `json:"lifetime"`
	Commitment string `json:"commitment"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func commonWaitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tx-file",
			Aliases: []string{"f"},
			Usage:   "Path to the base64-encoded signed transaction (default: stdin)",
		},
		&cli.StringFlag{
			Name:    "commitment",
			Aliases: []string{"c"},
			Value:   "confirmed",
			Usage:   "Target commitment level (processed, confirmed, finalized)",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Value:   2 * time.Minute,
			Usage:   "How long to wait before aborting",
		},
		&cli.StringFlag{
			Name:  "jq",
			Usage: "jq filter applied to the JSON result before printing",
		},
		&cli.BoolFlag{
			Name:  "publish",
			Usage: "Publish the outcome to NATS JetStream (requires NATS_URL)",
		},
		&cli.BoolFlag{
			Name:  "record",
			Usage: "Record the outcome in Postgres (requires DATABASE_URL)",
		},
	}
}

func waitRecentCommand() *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Wait for a recent-blockhash-lifetime transaction to confirm or expire",
		Flags: append(commonWaitFlags(),
			&cli.Uint64Flag{
				Name:     "last-valid-block-height",
				Required: true,
				Usage:    "Block height after which the transaction can no longer be included",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			tx, err := readTransaction(c.String("tx-file"))
			if err != nil {
				return err
			}
			commitment, err := parseCommitment(c.String("commitment"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
			defer cancel()

			rpcClient, wsClient, closeWS, err := dialEndpoints(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeWS()

			confirmRecent := confirmer.NewDefaultRecentTransactionConfirmer(rpcClient, wsClient,
				confirmer.WithLogger(logger),
				confirmer.WithBlockHeightPollInterval(cfg.BlockHeightPollInterval),
			)

			recentTx := confirm.RecentTransaction{
				Transaction:          tx,
				LastValidBlockHeight: c.Uint64("last-valid-block-height"),
			}

			startedAt := time.Now()
			waitErr := confirmRecent(ctx, recentTx, commitment)
			settledAt := time.Now()

			return reportOutcome(c, cfg, logger, tx, "recent", commitment, startedAt, settledAt, waitErr)
		},
	}
}

func waitNonceCommand() *cli.Command {
	return &cli.Command{
		Name:  "nonce",
		Usage: "Wait for a durable-nonce-lifetime transaction to confirm or be invalidated",
		Flags: append(commonWaitFlags(),
			&cli.StringFlag{
				Name:     "nonce",
				Required: true,
				Usage:    "Base58 durable nonce value the transaction was built against",
			},
			&cli.StringFlag{
				Name:  "nonce-account",
				Usage: "Base58 nonce account address (default: recovered from the transaction's first instruction)",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			tx, err := readTransaction(c.String("tx-file"))
			if err != nil {
				return err
			}
			commitment, err := parseCommitment(c.String("commitment"))
			if err != nil {
				return err
			}

			nonce, err := solana.HashFromBase58(c.String("nonce"))
			if err != nil {
				return fmt.Errorf("invalid nonce value: %w", err)
			}

			var nonceAccount solana.PublicKey
			if addr := c.String("nonce-account"); addr != "" {
				nonceAccount, err = solana.PublicKeyFromBase58(addr)
				if err != nil {
					return fmt.Errorf("invalid nonce account address: %w", err)
				}
			} else {
				nonceAccount, err = confirm.NonceAccountFromTransaction(tx)
				if err != nil {
					return fmt.Errorf("failed to recover nonce account from transaction (pass --nonce-account explicitly): %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
			defer cancel()

			rpcClient, wsClient, closeWS, err := dialEndpoints(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeWS()

			confirmNonce := confirmer.NewDefaultDurableNonceTransactionConfirmer(rpcClient, wsClient,
				confirmer.WithLogger(logger),
			)

			nonceTx := confirm.DurableNonceTransaction{
				Transaction:  tx,
				Nonce:        nonce,
				NonceAccount: nonceAccount,
			}

			startedAt := time.Now()
			waitErr := confirmNonce(ctx, nonceTx, commitment)
			settledAt := time.Now()

			return reportOutcome(c, cfg, logger, tx, "durable_nonce", commitment, startedAt, settledAt, waitErr)
		},
	}
}

// dialEndpoints connects the bound RPC and websocket endpoint pair.
func dialEndpoints(ctx context.Context, cfg *config.Config) (signals.RPCClient, signals.WSClient, func(), error) {
	rpcClient := signals.NewRPCClient(rpc.New(cfg.SolanaRPCURL))
	wsConn, err := ws.Connect(ctx, cfg.SolanaWSURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to websocket endpoint: %w", err)
	}
	return rpcClient, signals.NewWSClient(wsConn), wsConn.Close, nil
}

// reportOutcome prints the settled wait as JSON (optionally filtered with
// jq) and performs the requested side channels: NATS publish and Postgres
// record. Side channels use a fresh context because the wait's context may
// already be cancelled.
func reportOutcome(
	c *cli.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tx *solana.Transaction,
	lifetime string,
	commitment rpc.CommitmentType,
	startedAt, settledAt time.Time,
	waitErr error,
) error {
	sig, err := confirm.TransactionSignature(tx)
	if err != nil {
		return err
	}

	result := waitResult{
		Signature:  sig.String(),
		Lifetime:   lifetime,
		Commitment: string(commitment),
		Outcome:    confirm.Outcome(waitErr),
		DurationMS: settledAt.Sub(startedAt).Milliseconds(),
	}
	if waitErr != nil {
		result.Error = waitErr.Error()
	}

	doc, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if filter := c.String("jq"); filter != "" {
		outputs, err := applyJQFilter(filter, doc)
		if err != nil {
			return err
		}
		for _, out := range outputs {
			fmt.Println(out)
		}
	} else {
		fmt.Println(string(doc))
	}

	sideCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Bool("publish") {
		if cfg.NATSURL == "" {
			return fmt.Errorf("--publish requires NATS_URL to be set")
		}
		publisher, err := events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		event := events.NewConfirmationEvent(sig.String(), lifetime, string(commitment), startedAt, settledAt, waitErr)
		if err := publisher.PublishConfirmation(sideCtx, event); err != nil {
			return err
		}
	}

	if c.Bool("record") {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("--record requires DATABASE_URL to be set")
		}
		pool, err := pgxpool.New(sideCtx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		st := store.NewStore(pool)
		if err := st.EnsureSchema(sideCtx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}

		params := store.CreateConfirmationParams{
			Signature:  sig.String(),
			Lifetime:   lifetime,
			Commitment: string(commitment),
			Outcome:    result.Outcome,
			StartedAt:  startedAt,
			SettledAt:  settledAt,
		}
		if result.Error != "" {
			params.ErrorText = &result.Error
		}
		if _, err := st.CreateConfirmation(sideCtx, params); err != nil {
			return fmt.Errorf("failed to record confirmation: %w", err)
		}
	}

	return waitErr
}

// readTransaction reads a base64-encoded signed transaction from a file or
// stdin and decodes it.
func readTransaction(path string) (*solana.Transaction, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("transaction is not valid base64: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return tx, nil
}

// parseCommitment maps a commitment flag value to the RPC commitment type.
func parseCommitment(s string) (rpc.CommitmentType, error) {
	switch strings.ToLower(s) {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("unknown commitment level %q (want processed, confirmed, or finalized)", s)
	}
}

// applyJQFilter runs a jq filter over a JSON document and returns the
// marshaled outputs, one per result.
func applyJQFilter(filter string, doc []byte) ([]string, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	var input interface{}
	if err := json.Unmarshal(doc, &input); err != nil {
		return nil, err
	}

	var outputs []string
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter error: %w", err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, string(out))
	}
	return outputs, nil
}
