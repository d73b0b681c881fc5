package confirm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// DurableNonceConfig configures a confirmation wait for a transaction with
// a durable-nonce lifetime.
type DurableNonceConfig struct {
	Commitment              rpc.CommitmentType
	Transaction             DurableNonceTransaction
	ConfirmSignature        SignatureConfirmationFunc
	DetectNonceInvalidation NonceInvalidationFunc
	Logger                  *slog.Logger // optional; defaults to slog.Default()
}

// WaitForDurableNonceTransactionConfirmation blocks until the transaction's
// signature reaches the target commitment, the caller cancels, or a signal
// fails. It returns nil when confirmed, an ErrAborted-wrapped error on
// cancellation, and otherwise whichever failure settled the race.
//
// Nonce divergence never settles the wait by itself: the nonce may have
// been advanced by this very transaction's inclusion, so the wait keeps
// following the signature signal and only reports the *NonceInvalidError
// (joined with the signature signal's failure) if that signal fails too.
func WaitForDurableNonceTransactionConfirmation(ctx context.Context, cfg DurableNonceConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	txn := cfg.Transaction
	return race(ctx, cfg.Logger, cfg.Commitment, txn.Transaction, cfg.ConfirmSignature,
		func(signature solana.Signature) []signalFunc {
			return []signalFunc{
				func(ctx context.Context) error {
					err := cfg.DetectNonceInvalidation(ctx, cfg.Commitment, txn.Nonce, txn.NonceAccount)
					var invalid *NonceInvalidError
					if errors.As(err, &invalid) {
						return Deferred(err)
					}
					return err
				},
			}
		})
}

// RecentConfig configures a confirmation wait for a transaction with a
// recent-blockhash lifetime.
type RecentConfig struct {
	Commitment         rpc.CommitmentType
	Transaction        RecentTransaction
	ConfirmSignature   SignatureConfirmationFunc
	ExceedsBlockHeight BlockHeightExceedanceFunc
	Logger             *slog.Logger // optional; defaults to slog.Default()
}

// WaitForRecentTransactionConfirmation blocks until the transaction's
// signature reaches the target commitment, the chain's block height passes
// the transaction's last valid block height, the caller cancels, or a
// signal fails. It returns nil when confirmed and a
// *BlockHeightExceededError when the lifetime expired first.
func WaitForRecentTransactionConfirmation(ctx context.Context, cfg RecentConfig) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	txn := cfg.Transaction
	return race(ctx, cfg.Logger, cfg.Commitment, txn.Transaction, cfg.ConfirmSignature,
		func(signature solana.Signature) []signalFunc {
			return []signalFunc{
				func(ctx context.Context) error {
					return cfg.ExceedsBlockHeight(ctx, txn.LastValidBlockHeight)
				},
			}
		})
}
