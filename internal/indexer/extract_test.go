package indexer

import (
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
)

func TestExtractTxData(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	id := ledger.TxID{DataProposalHash: "dp-1", TxHash: "tx-1"}

	tt := []struct {
		name string
		tx   ledger.Transaction

		expectedBlobs []store.BlobRow
		expectedProof *store.ProofRow
		expectedErr   error
	}{
		{
			name: "blob transaction",
			tx: ledger.Transaction{Kind: ledger.KindBlob, Blob: &ledger.BlobTransaction{
				Identity: "alice.hyli",
				Blobs: []ledger.Blob{
					{ContractName: "c1", Data: []byte{1}},
					{ContractName: "c2", Data: []byte{2}},
				},
			}},

			expectedBlobs: []store.BlobRow{
				{ID: id, BlobIndex: 0, Identity: "alice.hyli", ContractName: "c1", Data: []byte{1}},
				{ID: id, BlobIndex: 1, Identity: "alice.hyli", ContractName: "c2", Data: []byte{2}},
			},
		},
		{
			name: "verified proof with proof",
			tx:   ledger.Transaction{Kind: ledger.KindVerifiedProof, VerifiedProof: &ledger.VerifiedProofTransaction{Proof: []byte("proof")}},

			expectedProof: &store.ProofRow{ID: id, Proof: []byte("proof")},
		},
		{
			name: "verified proof without proof",
			tx:   ledger.Transaction{Kind: ledger.KindVerifiedProof, VerifiedProof: &ledger.VerifiedProofTransaction{ProofHash: "abc"}},
		},
		{
			name: "proof transaction",
			tx:   ledger.Transaction{Kind: ledger.KindProof, Proof: &ledger.ProofTransaction{Proof: []byte("proof")}},

			expectedErr: ErrUnsupportedTransactionKind,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// when
			blobs, proof, err := extractTxData(logger, id, tc.tx)

			// then
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, len(tc.expectedBlobs), len(blobs))
			for i := range tc.expectedBlobs {
				require.Equal(t, tc.expectedBlobs[i], blobs[i])
			}
			require.Equal(t, tc.expectedProof, proof)
		})
	}
}

func TestNarrow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	require.Equal(t, int32(7), narrowInt32(logger, 7, "index"))
	require.Equal(t, int32(0), narrowInt32(logger, math.MaxInt32+1, "index"))
	require.Equal(t, int64(0), narrowInt64(logger, math.MaxUint64, "height"))
	require.Equal(t, uint32(0), narrowUint32(logger, -1, "index"))
}
