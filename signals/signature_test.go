package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSignature = solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")

func TestStatusSatisfies(t *testing.T) {
	assert.True(t, statusSatisfies(rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed))
	assert.True(t, statusSatisfies(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.True(t, statusSatisfies(rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed))
	assert.False(t, statusSatisfies(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.False(t, statusSatisfies(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
	assert.False(t, statusSatisfies("", rpc.CommitmentConfirmed))
}

func TestSignatureConfirmer_ResolvesOnNotification(t *testing.T) {
	sub := newMockSignatureSubscription(&SignatureNotification{})
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{} // signature unknown to the cluster yet

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(context.Background(), rpc.CommitmentConfirmed, testSignature)

	require.NoError(t, err)
	assert.True(t, sub.unsubscribed.Load())
}

func TestSignatureConfirmer_NotificationWithTransactionError(t *testing.T) {
	sub := newMockSignatureSubscription(&SignatureNotification{
		TxErr: map[string]interface{}{"InstructionError": []interface{}{0, "Custom error"}},
	})
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{}

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(context.Background(), rpc.CommitmentConfirmed, testSignature)

	require.Error(t, err)
	var failed *TransactionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, testSignature, failed.Signature)
}

func TestSignatureConfirmer_ResolvesViaInitialStatusCheck(t *testing.T) {
	// The signature is already past the target commitment before the
	// subscription is live; the one-shot status check must settle the wait
	// because the subscription will never fire.
	sub := newMockSignatureSubscription() // never notifies
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{
		status: &SignatureStatus{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
	}

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(context.Background(), rpc.CommitmentConfirmed, testSignature)

	require.NoError(t, err)
}

func TestSignatureConfirmer_StatusBelowTargetKeepsWaiting(t *testing.T) {
	sub := newMockSignatureSubscription()
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{
		status: &SignatureStatus{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(ctx, rpc.CommitmentConfirmed, testSignature)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSignatureConfirmer_StatusCheckFailureIsNotFatal(t *testing.T) {
	// A failed one-shot check is ignored; the subscription still settles
	// the wait.
	sub := newMockSignatureSubscription(&SignatureNotification{})
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{statusErr: errors.New("rpc unavailable")}

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(context.Background(), rpc.CommitmentConfirmed, testSignature)

	require.NoError(t, err)
}

func TestSignatureConfirmer_SubscribeFailure(t *testing.T) {
	mockWS := &mockWSClient{signatureSubErr: errors.New("websocket down")}
	mockRPC := &mockRPCClient{}

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(context.Background(), rpc.CommitmentConfirmed, testSignature)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to subscribe")
}

func TestSignatureConfirmer_CancelledContext(t *testing.T) {
	sub := newMockSignatureSubscription()
	mockWS := &mockWSClient{signatureSub: sub}
	mockRPC := &mockRPCClient{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	confirmer := NewSignatureConfirmer(mockRPC, mockWS, nil, testLogger())
	err := confirmer.Confirm(ctx, rpc.CommitmentConfirmed, testSignature)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sub.unsubscribed.Load())
}
