package signals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/txconfirm/metrics"
)

// TransactionFailedError reports that the transaction was included but
// failed on chain, so waiting for its confirmation cannot succeed.
type TransactionFailedError struct {
	Signature solana.Signature
	TxErr     interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed on chain: %v", e.Signature, e.TxErr)
}

// commitmentRank orders commitment levels by durability. Unknown levels
// rank below everything so they never satisfy a target.
func commitmentRank(c rpc.CommitmentType) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 0
	case rpc.CommitmentConfirmed:
		return 1
	case rpc.CommitmentFinalized:
		return 2
	default:
		return -1
	}
}

// statusSatisfies reports whether an observed confirmation status is at or
// above the target commitment level.
func statusSatisfies(status rpc.ConfirmationStatusType, target rpc.CommitmentType) bool {
	observed := commitmentRank(rpc.CommitmentType(status))
	want := commitmentRank(target)
	return observed >= 0 && want >= 0 && observed >= want
}

// SignatureConfirmer produces the generic signature-confirmation signal: a
// blocking wait for a signature to reach a commitment level.
type SignatureConfirmer struct {
	rpc     RPCClient
	ws      WSClient
	logger  *slog.Logger
	metrics *metrics.Metrics // optional; nil disables metrics
}

// NewSignatureConfirmer creates a SignatureConfirmer over the given RPC and
// subscription endpoints.
func NewSignatureConfirmer(rpcClient RPCClient, wsClient WSClient, m *metrics.Metrics, logger *slog.Logger) *SignatureConfirmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureConfirmer{
		rpc:     rpcClient,
		ws:      wsClient,
		logger:  logger.With("component", "signature_confirmer"),
		metrics: m,
	}
}

// Confirm blocks until signature reaches commitment, the transaction is
// observed to have failed on chain, or ctx is cancelled.
//
// It subscribes first and only then checks the current status once: the
// signature may already be past the target commitment before the
// subscription is live, and the subscription alone would never fire for it
// again. A failure of that one-shot check is logged and ignored; the
// subscription is still the authoritative path.
func (c *SignatureConfirmer) Confirm(ctx context.Context, commitment rpc.CommitmentType, signature solana.Signature) error {
	sub, err := c.ws.SignatureSubscribe(signature, commitment)
	if err != nil {
		return fmt.Errorf("failed to subscribe to signature %s: %w", signature, err)
	}
	defer sub.Unsubscribe()

	if c.metrics != nil {
		c.metrics.RecordWSSubscription("signature")
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so whichever path loses can still settle and be collected.
	results := make(chan error, 2)

	go func() {
		notification, err := sub.Recv(subCtx)
		if err != nil {
			results <- fmt.Errorf("signature subscription for %s failed: %w", signature, err)
			return
		}
		if c.metrics != nil {
			c.metrics.RecordWSNotification("signature")
		}
		if notification.TxErr != nil {
			results <- &TransactionFailedError{Signature: signature, TxErr: notification.TxErr}
			return
		}
		results <- nil
	}()

	go func() {
		start := time.Now()
		status, err := c.rpc.GetSignatureStatus(subCtx, signature)
		if c.metrics != nil {
			c.metrics.RecordRPCCall("getSignatureStatuses", rpcStatus(err), time.Since(start))
		}
		if err != nil {
			c.logger.DebugContext(subCtx, "initial signature status check failed",
				"signature", signature.String(),
				"error", err,
			)
			return
		}
		if status == nil {
			return
		}
		if status.TxErr != nil {
			results <- &TransactionFailedError{Signature: signature, TxErr: status.TxErr}
			return
		}
		if statusSatisfies(status.ConfirmationStatus, commitment) {
			c.logger.DebugContext(subCtx, "signature already at target commitment",
				"signature", signature.String(),
				"status", string(status.ConfirmationStatus),
			)
			results <- nil
		}
	}()

	select {
	case err := <-results:
		if c.metrics != nil {
			c.metrics.RecordSignalSettlement("signature_confirmation", settlementResult(err))
		}
		return err
	case <-ctx.Done():
		if c.metrics != nil {
			c.metrics.RecordSignalSettlement("signature_confirmation", "cancelled")
		}
		return ctx.Err()
	}
}

func rpcStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func settlementResult(err error) string {
	if err != nil {
		return "rejected"
	}
	return "resolved"
}
