package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/txconfirm/config"
	"github.com/brojonat/txconfirm/signals"
)

func signatureStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Print the current cluster-side status of a signature",
		ArgsUsage: "<signature>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("signature is required")
			}

			sig, err := solana.SignatureFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			rpcClient := signals.NewRPCClient(rpc.New(cfg.SolanaRPCURL))
			status, err := rpcClient.GetSignatureStatus(ctx, sig)
			if err != nil {
				return fmt.Errorf("failed to get signature status: %w", err)
			}

			out := map[string]interface{}{
				"signature": sig.String(),
				"known":     status != nil,
			}
			if status != nil {
				out["confirmation_status"] = string(status.ConfirmationStatus)
				if status.TxErr != nil {
					out["err"] = fmt.Sprintf("%v", status.TxErr)
				}
			}

			doc, err := json.Marshal(out)
			if err != nil {
				return err
			}
			fmt.Println(string(doc))
			return nil
		},
	}
}
