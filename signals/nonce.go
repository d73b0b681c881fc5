package signals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/txconfirm/confirm"
	"github.com/brojonat/txconfirm/metrics"
)

// System nonce account layout: 4-byte version, 4-byte state, 32-byte
// authority, 32-byte durable nonce value, 8-byte fee calculator.
const (
	nonceAccountDataSize = 80
	nonceValueOffset     = 40
)

// ParseNonceValue extracts the durable nonce value from a system nonce
// account's raw data.
func ParseNonceValue(data []byte) (solana.Hash, error) {
	if len(data) < nonceAccountDataSize {
		return solana.Hash{}, fmt.Errorf("nonce account data too short: %d bytes, want %d", len(data), nonceAccountDataSize)
	}
	var value solana.Hash
	copy(value[:], data[nonceValueOffset:nonceValueOffset+32])
	return value, nil
}

// NonceInvalidator produces the durable-nonce invalidation signal: a
// blocking watch on a nonce account that settles once the on-chain value
// diverges from the one a transaction was built against.
type NonceInvalidator struct {
	rpc     RPCClient
	ws      WSClient
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metrics
}

// NewNonceInvalidator creates a NonceInvalidator over the given RPC and
// subscription endpoints.
func NewNonceInvalidator(rpcClient RPCClient, wsClient WSClient, m *metrics.Metrics, logger *slog.Logger) *NonceInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &NonceInvalidator{
		rpc:     rpcClient,
		ws:      wsClient,
		logger:  logger.With("component", "nonce_invalidator"),
		metrics: m,
	}
}

// DetectInvalidation blocks until the on-chain value of nonceAccount
// diverges from currentNonce, then returns a *confirm.NonceInvalidError.
// It never returns nil: either divergence is detected or the wait fails
// (cancellation, transport trouble, or an undecodable account).
//
// Like the signature confirmer it subscribes first and then fetches the
// account once, since the nonce may already have advanced before the
// subscription is live.
func (n *NonceInvalidator) DetectInvalidation(ctx context.Context, commitment rpc.CommitmentType, currentNonce solana.Hash, nonceAccount solana.PublicKey) error {
	sub, err := n.ws.AccountSubscribe(nonceAccount, commitment)
	if err != nil {
		return fmt.Errorf("failed to subscribe to nonce account %s: %w", nonceAccount, err)
	}
	defer sub.Unsubscribe()

	if n.metrics != nil {
		n.metrics.RecordWSSubscription("account")
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, 2)

	go func() {
		for {
			notification, err := sub.Recv(subCtx)
			if err != nil {
				results <- fmt.Errorf("nonce account subscription for %s failed: %w", nonceAccount, err)
				return
			}
			if n.metrics != nil {
				n.metrics.RecordWSNotification("account")
			}
			observed, err := ParseNonceValue(notification.Data)
			if err != nil {
				results <- fmt.Errorf("failed to decode nonce account %s: %w", nonceAccount, err)
				return
			}
			if observed != currentNonce {
				results <- &confirm.NonceInvalidError{
					NonceAccount:  nonceAccount,
					ExpectedNonce: currentNonce,
					ObservedNonce: observed,
				}
				return
			}
			// The account changed without the nonce advancing (e.g. a
			// lamport top-up); keep watching.
		}
	}()

	go func() {
		start := time.Now()
		data, err := n.rpc.GetNonceAccountData(subCtx, nonceAccount, commitment)
		if n.metrics != nil {
			n.metrics.RecordRPCCall("getAccountInfo", rpcStatus(err), time.Since(start))
		}
		if err != nil {
			// A missing account can never match the expected nonce again;
			// anything else is a transient check the subscription covers.
			if errors.Is(err, ErrNonceAccountNotFound) {
				results <- fmt.Errorf("nonce account %s: %w", nonceAccount, err)
				return
			}
			n.logger.DebugContext(subCtx, "initial nonce account fetch failed",
				"nonce_account", nonceAccount.String(),
				"error", err,
			)
			return
		}
		observed, err := ParseNonceValue(data)
		if err != nil {
			results <- fmt.Errorf("failed to decode nonce account %s: %w", nonceAccount, err)
			return
		}
		if observed != currentNonce {
			results <- &confirm.NonceInvalidError{
				NonceAccount:  nonceAccount,
				ExpectedNonce: currentNonce,
				ObservedNonce: observed,
			}
		}
	}()

	select {
	case err := <-results:
		if n.metrics != nil {
			// Observed divergence is this signal resolving, not failing.
			result := "rejected"
			if confirm.IsInvalidated(err) {
				result = "resolved"
			}
			n.metrics.RecordSignalSettlement("nonce_invalidation", result)
		}
		return err
	case <-ctx.Done():
		if n.metrics != nil {
			n.metrics.RecordSignalSettlement("nonce_invalidation", "cancelled")
		}
		return ctx.Err()
	}
}
