package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommitment(t *testing.T) {
	tests := []struct {
		input   string
		want    rpc.CommitmentType
		wantErr bool
	}{
		{"processed", rpc.CommitmentProcessed, false},
		{"confirmed", rpc.CommitmentConfirmed, false},
		{"finalized", rpc.CommitmentFinalized, false},
		{"Finalized", rpc.CommitmentFinalized, false},
		{"", "", true},
		{"maximum", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCommitment(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyJQFilter(t *testing.T) {
	doc := []byte(`{"signature":"abc","outcome":"confirmed","duration_ms":1200}`)

	t.Run("field extraction", func(t *testing.T) {
		outputs, err := applyJQFilter(".outcome", doc)
		require.NoError(t, err)
		require.Len(t, outputs, 1)
		assert.Equal(t, `"confirmed"`, outputs[0])
	})

	t.Run("object construction", func(t *testing.T) {
		outputs, err := applyJQFilter("{sig: .signature, ok: (.outcome == \"confirmed\")}", doc)
		require.NoError(t, err)
		require.Len(t, outputs, 1)
		assert.JSONEq(t, `{"sig":"abc","ok":true}`, outputs[0])
	})

	t.Run("identity", func(t *testing.T) {
		outputs, err := applyJQFilter(".", doc)
		require.NoError(t, err)
		require.Len(t, outputs, 1)
		assert.JSONEq(t, string(doc), outputs[0])
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := applyJQFilter(".[", doc)
		assert.Error(t, err)
	})
}

func TestReadTransaction(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		sig := solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")
		payer := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
		tx := &solana.Transaction{
			Signatures: []solana.Signature{sig},
			Message: solana.Message{
				Header:          solana.MessageHeader{NumRequiredSignatures: 1},
				AccountKeys:     []solana.PublicKey{payer},
				RecentBlockhash: solana.Hash(payer),
			},
		}
		raw, err := tx.MarshalBinary()
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "tx.b64")
		require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(raw)+"\n"), 0o644))

		got, err := readTransaction(path)
		require.NoError(t, err)
		require.Len(t, got.Signatures, 1)
		assert.Equal(t, sig, got.Signatures[0])
	})

	t.Run("not base64", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tx.b64")
		require.NoError(t, os.WriteFile(path, []byte("not base64!!"), 0o644))

		_, err := readTransaction(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid base64")
	})

	t.Run("undecodable transaction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tx.b64")
		require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString([]byte{0xff})), 0o644))

		_, err := readTransaction(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readTransaction(filepath.Join(t.TempDir(), "missing.b64"))
		assert.Error(t, err)
	})
}
