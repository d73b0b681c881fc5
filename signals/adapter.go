package signals

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// realRPCClient adapts the actual solana-go RPC client to our RPCClient
// interface. The adapter owns the response unwrapping so the factories and
// their tests only deal with domain-shaped values.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates an RPCClient that wraps the solana-go RPC client.
func NewRPCClient(client *rpc.Client) RPCClient {
	return &realRPCClient{client: client}
}

func (r *realRPCClient) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error) {
	out, err := r.client.GetSignatureStatuses(ctx, true, signature)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		// The cluster does not know this signature yet.
		return nil, nil
	}
	status := out.Value[0]
	return &SignatureStatus{
		ConfirmationStatus: status.ConfirmationStatus,
		TxErr:              status.Err,
	}, nil
}

func (r *realRPCClient) GetNonceAccountData(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) ([]byte, error) {
	out, err := r.client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, ErrNonceAccountNotFound
	}
	return out.Value.Data.GetBinary(), nil
}

func (r *realRPCClient) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	return r.client.GetBlockHeight(ctx, commitment)
}

// realWSClient adapts the actual solana-go websocket client to our WSClient
// interface.
type realWSClient struct {
	client *ws.Client
}

// NewWSClient creates a WSClient that wraps the solana-go websocket client.
func NewWSClient(client *ws.Client) WSClient {
	return &realWSClient{client: client}
}

func (w *realWSClient) SignatureSubscribe(signature solana.Signature, commitment rpc.CommitmentType) (SignatureSubscription, error) {
	sub, err := w.client.SignatureSubscribe(signature, commitment)
	if err != nil {
		return nil, err
	}
	return &signatureSubscription{sub: sub}, nil
}

func (w *realWSClient) AccountSubscribe(account solana.PublicKey, commitment rpc.CommitmentType) (AccountSubscription, error) {
	sub, err := w.client.AccountSubscribeWithOpts(account, commitment, solana.EncodingBase64)
	if err != nil {
		return nil, err
	}
	return &accountSubscription{sub: sub}, nil
}

type signatureSubscription struct {
	sub *ws.SignatureSubscription
}

func (s *signatureSubscription) Recv(ctx context.Context) (*SignatureNotification, error) {
	result, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	return &SignatureNotification{TxErr: result.Value.Err}, nil
}

func (s *signatureSubscription) Unsubscribe() {
	s.sub.Unsubscribe()
}

type accountSubscription struct {
	sub *ws.AccountSubscription
}

func (a *accountSubscription) Recv(ctx context.Context) (*AccountNotification, error) {
	result, err := a.sub.Recv(ctx)
	if err != nil {
		return nil, err
	}
	return &AccountNotification{Data: result.Value.Data.GetBinary()}, nil
}

func (a *accountSubscription) Unsubscribe() {
	a.sub.Unsubscribe()
}
