package confirm

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrAborted is returned when the caller's context is cancelled before or
// during a confirmation wait. Callers can use errors.Is to tell user-driven
// cancellation apart from signal failures.
var ErrAborted = errors.New("transaction confirmation aborted")

// ErrTransactionNotSigned is returned when a transaction carries no
// signature to confirm against.
var ErrTransactionNotSigned = errors.New("transaction has no signature")

// NonceInvalidError reports that the durable nonce recorded in a
// transaction's lifetime constraint no longer matches the on-chain value of
// the nonce account.
type NonceInvalidError struct {
	NonceAccount  solana.PublicKey
	ExpectedNonce solana.Hash
	ObservedNonce solana.Hash
}

func (e *NonceInvalidError) Error() string {
	return fmt.Sprintf("durable nonce for account %s is no longer valid: expected %s, observed %s",
		e.NonceAccount, e.ExpectedNonce, e.ObservedNonce)
}

// BlockHeightExceededError reports that the chain's block height passed the
// transaction's last valid block height before the signature confirmed, so
// the transaction can no longer be included.
type BlockHeightExceededError struct {
	LastValidBlockHeight uint64
	CurrentBlockHeight   uint64
}

func (e *BlockHeightExceededError) Error() string {
	return fmt.Sprintf("block height %d exceeds the transaction's last valid block height %d",
		e.CurrentBlockHeight, e.LastValidBlockHeight)
}

// IsInvalidated reports whether err means the transaction's lifetime
// expired (nonce advanced or block height exceeded), as opposed to a
// cancellation or an unrelated signal failure.
func IsInvalidated(err error) bool {
	var nonceErr *NonceInvalidError
	var heightErr *BlockHeightExceededError
	return errors.As(err, &nonceErr) || errors.As(err, &heightErr)
}

// Outcome classifies a confirmation result for logging, metrics, and event
// payloads.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrAborted):
		return "aborted"
	case IsInvalidated(err):
		return "invalidated"
	default:
		return "error"
	}
}
