// Package confirm decides the fate of a submitted Solana transaction: it
// races the generic signature-confirmation signal against the signal that
// watches the transaction's lifetime constraint (durable nonce or recent
// blockhash) and reports whichever settles first. Cancellation propagates
// to every losing signal and cleanup runs on every exit path.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureConfirmationFunc blocks until signature reaches the given
// commitment level. A nil return means confirmed. An error means the wait
// failed: cancellation, timeout, transport trouble, or the transaction
// itself failing on chain. Implementations must stop their subscriptions
// and polling promptly once ctx is done.
type SignatureConfirmationFunc func(ctx context.Context, commitment rpc.CommitmentType, signature solana.Signature) error

// NonceInvalidationFunc blocks until the on-chain value of nonceAccount
// diverges from currentNonce and then returns a *NonceInvalidError. It
// never returns nil: either divergence is detected or the wait fails.
type NonceInvalidationFunc func(ctx context.Context, commitment rpc.CommitmentType, currentNonce solana.Hash, nonceAccount solana.PublicKey) error

// BlockHeightExceedanceFunc blocks until the chain's block height exceeds
// lastValidBlockHeight and then returns a *BlockHeightExceededError. It
// never returns nil: either exceedance is observed or the wait fails.
type BlockHeightExceedanceFunc func(ctx context.Context, lastValidBlockHeight uint64) error

// signalFunc is one racing signal, bound to everything but the
// cancellation context it runs under.
type signalFunc func(ctx context.Context) error

type deferredSettlement struct {
	err error
}

func (d *deferredSettlement) Error() string { return d.err.Error() }
func (d *deferredSettlement) Unwrap() error { return d.err }

// Deferred wraps a signal's error so that it does not settle the race on
// its own: the coordinator records it and keeps waiting for the remaining
// signals. A later resolution discards the deferred error; a later failure
// is joined with it. The durable-nonce waiter uses this to defer nonce
// divergence to the still-pending signature confirmation, since divergence
// alone cannot tell this transaction's inclusion apart from a competing use
// of the nonce.
func Deferred(err error) error {
	if err == nil {
		return nil
	}
	return &deferredSettlement{err: err}
}

// race runs the generic signature-confirmation signal against zero or more
// extra signals and returns the first settlement, success or failure alike.
//
// The caller's ctx is never cancelled by this function. An internally owned
// context derived from it is cancelled as soon as any signal settles, so
// every losing signal stops its underlying subscriptions and timers; the
// deferred cancel also detaches the internal context from the caller's on
// every exit path, including a panic inside a signal builder.
func race(
	ctx context.Context,
	logger *slog.Logger,
	commitment rpc.CommitmentType,
	tx *solana.Transaction,
	confirmSignature SignatureConfirmationFunc,
	extraSignals func(signature solana.Signature) []signalFunc,
) error {
	// A caller that has already cancelled gets an aborted outcome without
	// any signal being invoked.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}

	signature, err := TransactionSignature(tx)
	if err != nil {
		return err
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := []signalFunc{
		func(ctx context.Context) error {
			return confirmSignature(ctx, commitment, signature)
		},
	}
	if extraSignals != nil {
		signals = append(signals, extraSignals(signature)...)
	}

	// Buffered to the signal count so losers can settle into the channel
	// after the race is decided and be collected instead of leaking.
	results := make(chan error, len(signals))
	for _, signal := range signals {
		go func() {
			results <- signal(raceCtx)
		}()
	}

	logger.DebugContext(ctx, "racing confirmation signals",
		"signature", signature.String(),
		"commitment", string(commitment),
		"signals", len(signals),
	)

	var deferred error
	for settled := 0; settled < len(signals); settled++ {
		select {
		case err := <-results:
			var d *deferredSettlement
			if errors.As(err, &d) {
				logger.DebugContext(ctx, "signal settled with deferred error, race continues",
					"signature", signature.String(),
					"error", d.err,
				)
				deferred = errors.Join(deferred, d.err)
				continue
			}
			if err == nil {
				return nil
			}
			if deferred != nil {
				return errors.Join(deferred, err)
			}
			return err
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrAborted, context.Cause(ctx))
		}
	}

	// Every signal settled deferred; the recorded error is the outcome.
	return deferred
}
