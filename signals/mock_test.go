package signals

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRPCClient implements RPCClient for testing. It's behavior-focused: we
// set what it should return, not verify call sequences.
type mockRPCClient struct {
	mu sync.Mutex

	status    *SignatureStatus
	statusErr error

	nonceData []byte
	nonceErr  error

	// heights are returned one per GetBlockHeight call; the last entry
	// repeats once exhausted. heightErrs, when non-empty, takes priority.
	heights     []uint64
	heightErrs  []error
	heightCalls int
}

func (m *mockRPCClient) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

func (m *mockRPCClient) GetNonceAccountData(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nonceErr != nil {
		return nil, m.nonceErr
	}
	return m.nonceData, nil
}

func (m *mockRPCClient) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.heightCalls
	m.heightCalls++
	if len(m.heightErrs) > 0 {
		if call < len(m.heightErrs) {
			return 0, m.heightErrs[call]
		}
		return 0, m.heightErrs[len(m.heightErrs)-1]
	}
	if call < len(m.heights) {
		return m.heights[call], nil
	}
	if len(m.heights) == 0 {
		return 0, nil
	}
	return m.heights[len(m.heights)-1], nil
}

// mockSignatureSubscription delivers loaded notifications and then blocks
// until the context is cancelled.
type mockSignatureSubscription struct {
	notifications chan *SignatureNotification
	recvErr       error
	unsubscribed  atomic.Bool
}

func newMockSignatureSubscription(notifications ...*SignatureNotification) *mockSignatureSubscription {
	ch := make(chan *SignatureNotification, len(notifications))
	for _, n := range notifications {
		ch <- n
	}
	return &mockSignatureSubscription{notifications: ch}
}

func (m *mockSignatureSubscription) Recv(ctx context.Context) (*SignatureNotification, error) {
	if m.recvErr != nil {
		return nil, m.recvErr
	}
	select {
	case n := <-m.notifications:
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *mockSignatureSubscription) Unsubscribe() {
	m.unsubscribed.Store(true)
}

// mockAccountSubscription delivers loaded notifications and then blocks
// until the context is cancelled.
type mockAccountSubscription struct {
	notifications chan *AccountNotification
	recvErr       error
	unsubscribed  atomic.Bool
}

func newMockAccountSubscription(notifications ...*AccountNotification) *mockAccountSubscription {
	ch := make(chan *AccountNotification, len(notifications))
	for _, n := range notifications {
		ch <- n
	}
	return &mockAccountSubscription{notifications: ch}
}

func (m *mockAccountSubscription) Recv(ctx context.Context) (*AccountNotification, error) {
	if m.recvErr != nil {
		return nil, m.recvErr
	}
	select {
	case n := <-m.notifications:
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *mockAccountSubscription) Unsubscribe() {
	m.unsubscribed.Store(true)
}

// mockWSClient implements WSClient for testing.
type mockWSClient struct {
	signatureSub    *mockSignatureSubscription
	signatureSubErr error
	accountSub      *mockAccountSubscription
	accountSubErr   error
}

func (m *mockWSClient) SignatureSubscribe(signature solana.Signature, commitment rpc.CommitmentType) (SignatureSubscription, error) {
	if m.signatureSubErr != nil {
		return nil, m.signatureSubErr
	}
	return m.signatureSub, nil
}

func (m *mockWSClient) AccountSubscribe(account solana.PublicKey, commitment rpc.CommitmentType) (AccountSubscription, error) {
	if m.accountSubErr != nil {
		return nil, m.accountSubErr
	}
	return m.accountSub, nil
}
