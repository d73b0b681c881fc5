// Package confirmer binds concrete signal factories, closed over a bound
// RPC and subscription endpoint pair, into simplified confirmation
// functions. It adds no behavior beyond partial application: callers of the
// returned functions only supply the transaction, commitment, and
// cancellation context.
package confirmer

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/txconfirm/confirm"
	"github.com/brojonat/txconfirm/metrics"
	"github.com/brojonat/txconfirm/signals"
)

// RecentConfirmFunc waits for a recent-blockhash-lifetime transaction to
// confirm. See confirm.WaitForRecentTransactionConfirmation for outcome
// semantics.
type RecentConfirmFunc func(ctx context.Context, tx confirm.RecentTransaction, commitment rpc.CommitmentType) error

// DurableNonceConfirmFunc waits for a durable-nonce-lifetime transaction to
// confirm. See confirm.WaitForDurableNonceTransactionConfirmation for
// outcome semantics.
type DurableNonceConfirmFunc func(ctx context.Context, tx confirm.DurableNonceTransaction, commitment rpc.CommitmentType) error

type options struct {
	logger         *slog.Logger
	metrics        *metrics.Metrics
	pollInterval   time.Duration
	pollCommitment rpc.CommitmentType
}

// Option configures the default confirmers.
type Option func(*options)

// WithLogger sets the logger used by the confirmers and their signal
// factories. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics sink. Defaults to none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBlockHeightPollInterval sets how often the block-height exceedance
// signal polls the chain. Defaults to
// signals.DefaultBlockHeightPollInterval.
func WithBlockHeightPollInterval(interval time.Duration) Option {
	return func(o *options) { o.pollInterval = interval }
}

// WithBlockHeightPollCommitment sets the commitment level the block-height
// exceedance signal polls at. Defaults to confirmed.
func WithBlockHeightPollCommitment(commitment rpc.CommitmentType) Option {
	return func(o *options) { o.pollCommitment = commitment }
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDefaultRecentTransactionConfirmer closes over a bound RPC and
// subscription endpoint pair, constructs the signature-confirmation and
// block-height-exceedance signal factories once, and returns a reusable
// confirmation function for recent-blockhash-lifetime transactions.
func NewDefaultRecentTransactionConfirmer(rpcClient signals.RPCClient, wsClient signals.WSClient, opts ...Option) RecentConfirmFunc {
	o := applyOptions(opts)
	confirmSignature := signals.NewSignatureConfirmer(rpcClient, wsClient, o.metrics, o.logger)
	exceedsHeight := signals.NewBlockHeightExceeder(rpcClient, o.pollCommitment, o.pollInterval, o.metrics, o.logger)

	return func(ctx context.Context, tx confirm.RecentTransaction, commitment rpc.CommitmentType) error {
		start := time.Now()
		err := confirm.WaitForRecentTransactionConfirmation(ctx, confirm.RecentConfig{
			Commitment:         commitment,
			Transaction:        tx,
			ConfirmSignature:   confirmSignature.Confirm,
			ExceedsBlockHeight: exceedsHeight.WaitForExceedance,
			Logger:             o.logger,
		})
		if o.metrics != nil {
			o.metrics.RecordConfirmation("recent", confirm.Outcome(err), time.Since(start))
		}
		return err
	}
}

// NewDefaultDurableNonceTransactionConfirmer closes over a bound RPC and
// subscription endpoint pair, constructs the signature-confirmation and
// nonce-invalidation signal factories once, and returns a reusable
// confirmation function for durable-nonce-lifetime transactions.
func NewDefaultDurableNonceTransactionConfirmer(rpcClient signals.RPCClient, wsClient signals.WSClient, opts ...Option) DurableNonceConfirmFunc {
	o := applyOptions(opts)
	confirmSignature := signals.NewSignatureConfirmer(rpcClient, wsClient, o.metrics, o.logger)
	detectInvalidation := signals.NewNonceInvalidator(rpcClient, wsClient, o.metrics, o.logger)

	return func(ctx context.Context, tx confirm.DurableNonceTransaction, commitment rpc.CommitmentType) error {
		start := time.Now()
		err := confirm.WaitForDurableNonceTransactionConfirmation(ctx, confirm.DurableNonceConfig{
			Commitment:              commitment,
			Transaction:             tx,
			ConfirmSignature:        confirmSignature.Confirm,
			DetectNonceInvalidation: detectInvalidation.DetectInvalidation,
			Logger:                  o.logger,
		})
		if o.metrics != nil {
			o.metrics.RecordConfirmation("durable_nonce", confirm.Outcome(err), time.Since(start))
		}
		return err
	}
}
