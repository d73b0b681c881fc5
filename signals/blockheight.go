package signals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/txconfirm/confirm"
	"github.com/brojonat/txconfirm/metrics"
)

// DefaultBlockHeightPollInterval is how often the exceeder polls the chain
// for its current block height when no interval is configured.
const DefaultBlockHeightPollInterval = time.Second

// maxConsecutivePollFailures bounds how many block-height polls may fail in
// a row before the signal gives up and reports the transport error.
const maxConsecutivePollFailures = 3

// BlockHeightExceeder produces the blockhash-lifetime expiry signal: a
// blocking poll of the chain's block height that settles once the height
// passes a transaction's last valid block height.
type BlockHeightExceeder struct {
	rpc        RPCClient
	commitment rpc.CommitmentType
	interval   time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics // optional; nil disables metrics
}

// NewBlockHeightExceeder creates a BlockHeightExceeder that polls at the
// given commitment level and interval. A zero interval selects
// DefaultBlockHeightPollInterval; a zero commitment selects confirmed.
func NewBlockHeightExceeder(rpcClient RPCClient, commitment rpc.CommitmentType, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *BlockHeightExceeder {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultBlockHeightPollInterval
	}
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &BlockHeightExceeder{
		rpc:        rpcClient,
		commitment: commitment,
		interval:   interval,
		logger:     logger.With("component", "blockheight_exceeder"),
		metrics:    m,
	}
}

// WaitForExceedance blocks until the chain's block height exceeds
// lastValidBlockHeight, then returns a *confirm.BlockHeightExceededError.
// It never returns nil: either exceedance is observed or the wait fails.
// Transient poll failures are retried up to maxConsecutivePollFailures.
func (b *BlockHeightExceeder) WaitForExceedance(ctx context.Context, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	failures := 0
	for {
		start := time.Now()
		height, err := b.rpc.GetBlockHeight(ctx, b.commitment)
		if b.metrics != nil {
			b.metrics.RecordRPCCall("getBlockHeight", rpcStatus(err), time.Since(start))
		}
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			if failures >= maxConsecutivePollFailures {
				if b.metrics != nil {
					b.metrics.RecordSignalSettlement("blockheight_exceedance", "rejected")
				}
				return fmt.Errorf("failed to poll block height after %d attempts: %w", failures, err)
			}
			b.logger.DebugContext(ctx, "block height poll failed, retrying",
				"attempt", failures,
				"error", err,
			)
		case height > lastValidBlockHeight:
			if b.metrics != nil {
				b.metrics.RecordSignalSettlement("blockheight_exceedance", "resolved")
			}
			return &confirm.BlockHeightExceededError{
				LastValidBlockHeight: lastValidBlockHeight,
				CurrentBlockHeight:   height,
			}
		default:
			failures = 0
		}

		select {
		case <-ctx.Done():
			if b.metrics != nil {
				b.metrics.RecordSignalSettlement("blockheight_exceedance", "cancelled")
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
