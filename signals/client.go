// Package signals implements the concrete signal factories the confirm
// package races: signature confirmation, durable-nonce invalidation, and
// block-height exceedance. Each factory combines a websocket subscription
// with an RPC fallback and stops all underlying work when its context is
// cancelled.
package signals

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrNonceAccountNotFound is returned when the nonce account named in a
// transaction's lifetime constraint does not exist at the queried
// commitment level.
var ErrNonceAccountNotFound = errors.New("nonce account not found")

// SignatureStatus is the subset of a signature's cluster-side status the
// signal factories inspect.
type SignatureStatus struct {
	ConfirmationStatus rpc.ConfirmationStatusType
	TxErr              interface{} // non-nil if the transaction failed on chain
}

// SignatureNotification is one signature-subscription notification.
type SignatureNotification struct {
	TxErr interface{} // non-nil if the transaction failed on chain
}

// AccountNotification is one account-subscription notification carrying the
// account's raw data.
type AccountNotification struct {
	Data []byte
}

// RPCClient is the subset of Solana RPC operations the signal factories
// need. Keeping it narrow lets tests mock the RPC layer without hitting a
// real node.
type RPCClient interface {
	// GetSignatureStatus returns the current status of a signature, or nil
	// if the cluster does not know it yet.
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error)

	// GetNonceAccountData returns the raw account data of a nonce account,
	// or ErrNonceAccountNotFound if the account does not exist.
	GetNonceAccountData(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) ([]byte, error)

	// GetBlockHeight returns the chain's current block height at the given
	// commitment level.
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

// SignatureSubscription delivers signature status notifications until
// Unsubscribe is called.
type SignatureSubscription interface {
	Recv(ctx context.Context) (*SignatureNotification, error)
	Unsubscribe()
}

// AccountSubscription delivers account change notifications until
// Unsubscribe is called.
type AccountSubscription interface {
	Recv(ctx context.Context) (*AccountNotification, error)
	Unsubscribe()
}

// WSClient is the subset of Solana websocket subscriptions the signal
// factories need.
type WSClient interface {
	SignatureSubscribe(signature solana.Signature, commitment rpc.CommitmentType) (SignatureSubscription, error)
	AccountSubscribe(account solana.PublicKey, commitment rpc.CommitmentType) (AccountSubscription, error)
}
