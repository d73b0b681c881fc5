package confirm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// RecentTransaction pairs a signed transaction with its blockhash lifetime:
// the transaction can no longer be included once the chain's block height
// passes LastValidBlockHeight.
type RecentTransaction struct {
	Transaction          *solana.Transaction
	LastValidBlockHeight uint64
}

// DurableNonceTransaction pairs a signed transaction with its durable-nonce
// lifetime: the nonce value the transaction was built against and the
// account that stores it. The transaction can no longer be included once
// the on-chain value diverges from Nonce.
//
// The nonce account address is carried explicitly rather than recovered
// from the instruction list; NonceAccountFromTransaction helps callers that
// only have the transaction.
type DurableNonceTransaction struct {
	Transaction  *solana.Transaction
	Nonce        solana.Hash
	NonceAccount solana.PublicKey
}

// TransactionSignature returns the signature identifying tx: its first (fee
// payer) signature. It is derived fresh for every confirmation attempt,
// never cached.
func TransactionSignature(tx *solana.Transaction) (solana.Signature, error) {
	if tx == nil || len(tx.Signatures) == 0 {
		return solana.Signature{}, ErrTransactionNotSigned
	}
	if tx.Signatures[0].IsZero() {
		return solana.Signature{}, ErrTransactionNotSigned
	}
	return tx.Signatures[0], nil
}

// NonceAccountFromTransaction recovers the nonce account address from a
// transaction whose first instruction is the advance-nonce instruction: the
// nonce account is that instruction's first account. This positional
// contract must be upheld by the layer that built the transaction; callers
// that still have the address around should set it on
// DurableNonceTransaction directly.
func NonceAccountFromTransaction(tx *solana.Transaction) (solana.PublicKey, error) {
	if tx == nil || len(tx.Message.Instructions) == 0 {
		return solana.PublicKey{}, fmt.Errorf("transaction has no instructions")
	}
	ix := tx.Message.Instructions[0]
	if len(ix.Accounts) == 0 {
		return solana.PublicKey{}, fmt.Errorf("first instruction has no accounts")
	}
	idx := ix.Accounts[0]
	if int(idx) >= len(tx.Message.AccountKeys) {
		return solana.PublicKey{}, fmt.Errorf("first instruction references account index %d, but the transaction only has %d account keys",
			idx, len(tx.Message.AccountKeys))
	}
	return tx.Message.AccountKeys[idx], nil
}
