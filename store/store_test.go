package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetConfirmation(t *testing.T) {
	ts := NewTestStore(t)
	defer ts.Close()
	defer ts.Cleanup(t)

	ctx := context.Background()
	started := time.Now().Add(-2 * time.Second).UTC().Truncate(time.Microsecond)
	settled := time.Now().UTC().Truncate(time.Microsecond)

	created, err := ts.CreateConfirmation(ctx, CreateConfirmationParams{
		Signature:  "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7",
		Lifetime:   "recent",
		Commitment: "confirmed",
		Outcome:    "confirmed",
		StartedAt:  started,
		SettledAt:  settled,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := ts.GetConfirmation(ctx, created.Signature)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "recent", got.Lifetime)
	assert.Equal(t, "confirmed", got.Outcome)
	assert.Nil(t, got.ErrorText)
	assert.WithinDuration(t, started, got.StartedAt, time.Millisecond)
	assert.WithinDuration(t, settled, got.SettledAt, time.Millisecond)
}

func TestGetConfirmation_NotFound(t *testing.T) {
	ts := NewTestStore(t)
	defer ts.Close()
	defer ts.Cleanup(t)

	got, err := ts.GetConfirmation(context.Background(), "unknown-signature")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetConfirmation_ReturnsMostRecent(t *testing.T) {
	ts := NewTestStore(t)
	defer ts.Close()
	defer ts.Cleanup(t)

	ctx := context.Background()
	sig := "repeat-signature"
	errText := "block height exceeded"

	_, err := ts.CreateConfirmation(ctx, CreateConfirmationParams{
		Signature:  sig,
		Lifetime:   "recent",
		Commitment: "confirmed",
		Outcome:    "invalidated",
		ErrorText:  &errText,
		StartedAt:  time.Now().Add(-time.Minute),
		SettledAt:  time.Now().Add(-30 * time.Second),
	})
	require.NoError(t, err)

	second, err := ts.CreateConfirmation(ctx, CreateConfirmationParams{
		Signature:  sig,
		Lifetime:   "recent",
		Commitment: "confirmed",
		Outcome:    "confirmed",
		StartedAt:  time.Now().Add(-10 * time.Second),
		SettledAt:  time.Now(),
	})
	require.NoError(t, err)

	got, err := ts.GetConfirmation(ctx, sig)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "confirmed", got.Outcome)
}

func TestListConfirmations(t *testing.T) {
	ts := NewTestStore(t)
	defer ts.Close()
	defer ts.Cleanup(t)

	ctx := context.Background()
	for i, outcome := range []string{"confirmed", "invalidated", "aborted"} {
		_, err := ts.CreateConfirmation(ctx, CreateConfirmationParams{
			Signature:  "sig-" + outcome,
			Lifetime:   "durable_nonce",
			Commitment: "finalized",
			Outcome:    outcome,
			StartedAt:  time.Now().Add(time.Duration(-i) * time.Minute),
			SettledAt:  time.Now(),
		})
		require.NoError(t, err)
	}

	records, err := ts.ListConfirmations(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	page, err := ts.ListConfirmations(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
