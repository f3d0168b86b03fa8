package memory

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/storage"
	"github.com/stretchr/testify/require"
)

func mergePayload(t *testing.T, number uint64) *execution.ExecutionPayload {
	t.Helper()
	p, err := execution.NewMergePayload(&execution.PayloadMerge{
		PayloadCommon: execution.PayloadCommon{BlockNumber: number, Transactions: [][]byte{{0x01}}},
	})
	require.NoError(t, err)
	return p
}

func TestStore(t *testing.T) {
	s := New()
	h1, h2 := common.HexToHash("0x02"), common.HexToHash("0x01")

	_, err := s.GetPayload(h1)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.PutPayload(h1, mergePayload(t, 1)))
	require.NoError(t, s.PutPayload(h2, mergePayload(t, 2)))

	ok, err := s.HasPayload(h1)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetPayload(h2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.BlockNumber())

	hashes, err := s.BlockHashes()
	require.NoError(t, err)
	require.Equal(t, []common.Hash{h2, h1}, hashes)
	require.NoError(t, s.Close())
}

func TestStore_CopiesPayloads(t *testing.T) {
	s := New()
	h := common.HexToHash("0x01")
	p := mergePayload(t, 1)
	require.NoError(t, s.PutPayload(h, p))

	p.Transactions()[0][0] = 0xff
	got, err := s.GetPayload(h)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), got.Transactions()[0][0])

	got.Transactions()[0][0] = 0xee
	again, err := s.GetPayload(h)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), again.Transactions()[0][0])
}

func TestStore_RejectsPayloadWithoutVariant(t *testing.T) {
	s := New()
	h := common.HexToHash("0x03")

	require.ErrorIs(t, s.PutPayload(h, &execution.ExecutionPayload{}), execution.ErrUnsupportedFork)
	require.ErrorIs(t, s.PutPayload(h, nil), execution.ErrNilPayload)

	ok, err := s.HasPayload(h)
	require.NoError(t, err)
	require.False(t, ok)
}
