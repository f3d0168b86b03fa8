package state

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/geanlabs/beaconcore/types"
	"github.com/stretchr/testify/require"
)

// singletonListRoot computes the root of a one-element composite list whose
// limit is 2^depth.
func singletonListRoot(elem [32]byte, depth int) types.Root {
	var zero [32]byte
	h := elem
	for i := 0; i < depth; i++ {
		h = sha256.Sum256(append(h[:], zero[:]...))
		zero = sha256.Sum256(append(zero[:], zero[:]...))
	}
	var length [32]byte
	binary.LittleEndian.PutUint64(length[:], 1)
	return types.Root(sha256.Sum256(append(h[:], length[:]...)))
}

func TestValidatorsRoot(t *testing.T) {
	s := New(types.Base)
	empty, err := s.ValidatorsRoot()
	require.NoError(t, err)

	v := makeValidator(7)
	require.NoError(t, s.AppendValidator(v, 1))
	got, err := s.ValidatorsRoot()
	require.NoError(t, err)
	require.NotEqual(t, empty, got)

	elem, err := v.HashTreeRoot()
	require.NoError(t, err)
	require.Equal(t, singletonListRoot(elem, 40), got)

	cp := s.Copy()
	again, err := cp.ValidatorsRoot()
	require.NoError(t, err)
	require.Equal(t, got, again, "copy must hash identically")
}

func TestPendingDepositsRoot(t *testing.T) {
	s := New(types.Eip6110)
	d := &types.IndexedDepositData{Pubkey: types.BLSPubkey{1}, Amount: 1_000_000_000, Index: 3, Epoch: 1}
	s.PendingDeposits = append(s.PendingDeposits, d)

	got, err := s.PendingDepositsRoot()
	require.NoError(t, err)
	elem, err := d.HashTreeRoot()
	require.NoError(t, err)
	require.Equal(t, singletonListRoot(elem, 27), got)

	s.PendingDeposits = s.PendingDeposits[:0]
	empty, err := s.PendingDepositsRoot()
	require.NoError(t, err)
	require.NotEqual(t, got, empty)
}

func TestFinalizedCheckpointRoot(t *testing.T) {
	s := New(types.Base)
	s.FinalizedCheckpoint = types.Checkpoint{Epoch: 100, Root: types.Root{1, 2, 3}}

	got, err := s.FinalizedCheckpointRoot()
	require.NoError(t, err)

	var epoch [32]byte
	binary.LittleEndian.PutUint64(epoch[:], 100)
	want := sha256.Sum256(append(epoch[:], s.FinalizedCheckpoint.Root[:]...))
	require.Equal(t, types.Root(want), got)
}
