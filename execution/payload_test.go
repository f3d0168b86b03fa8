package execution

import (
	"bytes"
	"errors"
	"testing"

	ssz "github.com/ferranbt/fastssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func sampleCommon() PayloadCommon {
	c := PayloadCommon{
		ParentHash:   common.HexToHash("0x01"),
		FeeRecipient: common.HexToAddress("0x02"),
		StateRoot:    common.HexToHash("0x03"),
		ReceiptsRoot: common.HexToHash("0x04"),
		PrevRandao:   common.HexToHash("0x05"),
		BlockNumber:  7,
		GasLimit:     30_000_000,
		GasUsed:      21_000,
		Timestamp:    1_700_000_000,
		ExtraData:    []byte("beaconcore"),
		BlockHash:    common.HexToHash("0x06"),
		Transactions: [][]byte{{0x02, 0xf8}, {}, {0x01, 0x02, 0x03}},
	}
	c.LogsBloom[0] = 0xff
	c.LogsBloom[BytesPerLogsBloom-1] = 0x01
	c.BaseFeePerGas.SetUint64(1_000_000_007)
	return c
}

func sampleWithdrawals() []*types.Withdrawal {
	return []*types.Withdrawal{
		{Index: 1, ValidatorIndex: 10, Address: common.HexToAddress("0xaa"), Amount: 5},
		{Index: 2, ValidatorIndex: 11, Address: common.HexToAddress("0xbb"), Amount: 6},
	}
}

func sampleDepositReceipts() []*types.DepositReceipt {
	return []*types.DepositReceipt{
		{Pubkey: types.BLSPubkey{1}, WithdrawalCredentials: types.Root{2}, Amount: 32_000_000_000, Signature: types.BLSSignature{3}, Index: 0},
	}
}

func samplePayload(t *testing.T, fork types.ForkName) *ExecutionPayload {
	t.Helper()
	var excess uint256.Int
	excess.SetUint64(131072)

	var (
		p   *ExecutionPayload
		err error
	)
	switch fork {
	case types.Merge:
		p, err = NewMergePayload(&PayloadMerge{PayloadCommon: sampleCommon()})
	case types.Capella:
		p, err = NewCapellaPayload(&PayloadCapella{PayloadCommon: sampleCommon(), Withdrawals: sampleWithdrawals()})
	case types.Deneb:
		p, err = NewDenebPayload(&PayloadDeneb{PayloadCommon: sampleCommon(), Withdrawals: sampleWithdrawals(), ExcessDataGas: excess})
	case types.Eip6110:
		p, err = NewEip6110Payload(&PayloadEip6110{
			PayloadCommon:   sampleCommon(),
			Withdrawals:     sampleWithdrawals(),
			ExcessDataGas:   excess,
			DepositReceipts: sampleDepositReceipts(),
		})
	default:
		t.Fatalf("no sample payload for %s", fork)
	}
	require.NoError(t, err)
	return p
}

func TestFixedSize(t *testing.T) {
	want := map[types.ForkName]int{
		types.Merge:   508,
		types.Capella: 512,
		types.Deneb:   544,
		types.Eip6110: 548,
	}
	for _, fork := range types.ExecutionForks {
		size, err := FixedSize(fork)
		require.NoError(t, err)
		require.Equal(t, want[fork], size, fork.String())

		empty, err := Empty(fork)
		require.NoError(t, err)
		enc, err := empty.MarshalSSZ(params.Mainnet())
		require.NoError(t, err)
		require.Len(t, enc, size, "default payload encodes to the fixed part")
		require.Equal(t, size, empty.SizeSSZ())
	}
}

func TestUnsupportedFork(t *testing.T) {
	spec := params.Mainnet()
	for _, fork := range []types.ForkName{types.Base, types.Altair} {
		_, err := DecodeSSZ(make([]byte, 600), fork, spec)
		require.ErrorIs(t, err, ErrUnsupportedFork)

		_, err = Empty(fork)
		require.ErrorIs(t, err, ErrUnsupportedFork)

		_, err = MaxPayloadSize(fork, spec)
		require.ErrorIs(t, err, ErrUnsupportedFork)

		_, err = DeserializeByFork([]byte(`{}`), fork, spec)
		require.ErrorIs(t, err, ErrUnsupportedFork)
	}
}

func TestNilVariant(t *testing.T) {
	_, err := NewMergePayload(nil)
	require.ErrorIs(t, err, ErrNilPayload)
	_, err = NewEip6110Payload(nil)
	require.ErrorIs(t, err, ErrNilPayload)
}

func TestSSZRoundTrip(t *testing.T) {
	spec := params.Minimal()
	for _, fork := range types.ExecutionForks {
		t.Run(fork.String(), func(t *testing.T) {
			p := samplePayload(t, fork)
			enc, err := p.MarshalSSZ(spec)
			require.NoError(t, err)
			require.Len(t, enc, p.SizeSSZ())

			got, err := DecodeSSZ(enc, fork, spec)
			require.NoError(t, err)
			require.Equal(t, fork, got.ForkName())
			require.Equal(t, p, got)

			again, err := got.MarshalSSZ(spec)
			require.NoError(t, err)
			require.True(t, bytes.Equal(enc, again))

			r1, err := p.HashTreeRoot(spec)
			require.NoError(t, err)
			r2, err := got.HashTreeRoot(spec)
			require.NoError(t, err)
			require.Equal(t, r1, r2)
		})
	}
}

func TestSharedAccessors(t *testing.T) {
	want := sampleCommon()
	for _, fork := range types.ExecutionForks {
		p := samplePayload(t, fork)
		require.Equal(t, want.ParentHash, p.ParentHash())
		require.Equal(t, want.FeeRecipient, p.FeeRecipient())
		require.Equal(t, want.StateRoot, p.StateRoot())
		require.Equal(t, want.ReceiptsRoot, p.ReceiptsRoot())
		require.Equal(t, want.LogsBloom, p.LogsBloom())
		require.Equal(t, want.PrevRandao, p.PrevRandao())
		require.Equal(t, want.BlockNumber, p.BlockNumber())
		require.Equal(t, want.GasLimit, p.GasLimit())
		require.Equal(t, want.GasUsed, p.GasUsed())
		require.Equal(t, want.Timestamp, p.Timestamp())
		require.Equal(t, want.ExtraData, p.ExtraData())
		require.Equal(t, want.BaseFeePerGas, p.BaseFeePerGas())
		require.Equal(t, want.BlockHash, p.BlockHash())
		require.Equal(t, want.Transactions, p.Transactions())
	}
}

func TestVariantGetters(t *testing.T) {
	tests := []struct {
		fork            types.ForkName
		withdrawals     bool
		excessDataGas   bool
		depositReceipts bool
	}{
		{types.Merge, false, false, false},
		{types.Capella, true, false, false},
		{types.Deneb, true, true, false},
		{types.Eip6110, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.fork.String(), func(t *testing.T) {
			p := samplePayload(t, tt.fork)

			ws, err := p.Withdrawals()
			if tt.withdrawals {
				require.NoError(t, err)
				require.Equal(t, sampleWithdrawals(), ws)
			} else {
				require.ErrorIs(t, err, ErrIncorrectVariant)
			}

			gas, err := p.ExcessDataGas()
			if tt.excessDataGas {
				require.NoError(t, err)
				require.Equal(t, uint64(131072), gas.Uint64())
			} else {
				require.ErrorIs(t, err, ErrIncorrectVariant)
			}

			rs, err := p.DepositReceipts()
			if tt.depositReceipts {
				require.NoError(t, err)
				require.Equal(t, sampleDepositReceipts(), rs)
			} else {
				require.ErrorIs(t, err, ErrIncorrectVariant)
			}
		})
	}
}

func TestVariantAccess(t *testing.T) {
	p := samplePayload(t, types.Capella)
	v, err := p.Capella()
	require.NoError(t, err)
	require.Len(t, v.Withdrawals, 2)

	_, err = p.Merge()
	require.ErrorIs(t, err, ErrIncorrectVariant)
	_, err = p.Deneb()
	require.ErrorIs(t, err, ErrIncorrectVariant)
	_, err = p.Eip6110()
	require.ErrorIs(t, err, ErrIncorrectVariant)
}

func TestDecodeWrongFork(t *testing.T) {
	spec := params.Minimal()
	for _, encFork := range types.ExecutionForks {
		enc, err := samplePayload(t, encFork).MarshalSSZ(spec)
		require.NoError(t, err)
		for _, decFork := range types.ExecutionForks {
			if decFork == encFork {
				continue
			}
			_, err := DecodeSSZ(enc, decFork, spec)
			require.ErrorIs(t, err, ErrDecode, "%s bytes decoded as %s", encFork, decFork)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	spec := params.Minimal()
	for _, fork := range types.ExecutionForks {
		enc, err := samplePayload(t, fork).MarshalSSZ(spec)
		require.NoError(t, err)
		fixed, _ := FixedSize(fork)

		_, err = DecodeSSZ(enc[:fixed-1], fork, spec)
		require.ErrorIs(t, err, ErrDecode)
		require.ErrorIs(t, err, ssz.ErrSize)

		_, err = DecodeSSZ(nil, fork, spec)
		require.ErrorIs(t, err, ErrDecode)
	}

	// Capella and later end in a fixed-size element list, so any cut is detected.
	for _, fork := range []types.ForkName{types.Capella, types.Deneb, types.Eip6110} {
		enc, err := samplePayload(t, fork).MarshalSSZ(spec)
		require.NoError(t, err)
		_, err = DecodeSSZ(enc[:len(enc)-1], fork, spec)
		require.ErrorIs(t, err, ErrDecode, fork.String())
	}
}

func TestDecodeOverLength(t *testing.T) {
	spec := params.Minimal()
	for _, fork := range []types.ForkName{types.Capella, types.Deneb, types.Eip6110} {
		enc, err := samplePayload(t, fork).MarshalSSZ(spec)
		require.NoError(t, err)
		_, err = DecodeSSZ(append(enc, 0x00), fork, spec)
		require.ErrorIs(t, err, ErrDecode, fork.String())
	}
}

func TestDecodeBadOffsets(t *testing.T) {
	spec := params.Minimal()
	enc, err := samplePayload(t, types.Capella).MarshalSSZ(spec)
	require.NoError(t, err)

	t.Run("first offset into fixed part", func(t *testing.T) {
		buf := append([]byte{}, enc...)
		copy(buf[436:440], ssz.WriteOffset(nil, 100))
		_, err := DecodeSSZ(buf, types.Capella, spec)
		require.ErrorIs(t, err, ssz.ErrInvalidVariableOffset)

		var de *DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, "extra_data", de.Field)
		require.Equal(t, 436, de.Offset)
		require.Equal(t, types.Capella, de.Fork)
	})

	t.Run("offset past end", func(t *testing.T) {
		buf := append([]byte{}, enc...)
		copy(buf[504:508], ssz.WriteOffset(nil, len(buf)+10))
		_, err := DecodeSSZ(buf, types.Capella, spec)
		require.ErrorIs(t, err, ssz.ErrOffset)
	})

	t.Run("decreasing offsets", func(t *testing.T) {
		buf := append([]byte{}, enc...)
		copy(buf[508:512], ssz.WriteOffset(nil, 513))
		_, err := DecodeSSZ(buf, types.Capella, spec)
		require.ErrorIs(t, err, ssz.ErrOffset)
	})
}

func TestListLimits(t *testing.T) {
	tight := params.Minimal()
	tight.MaxWithdrawalsPerPayload = 1

	p := samplePayload(t, types.Capella)
	_, err := p.MarshalSSZ(tight)
	require.ErrorIs(t, err, ssz.ErrListTooBig)

	enc, err := p.MarshalSSZ(params.Minimal())
	require.NoError(t, err)
	_, err = DecodeSSZ(enc, types.Capella, tight)
	require.ErrorIs(t, err, ErrDecode)
	require.ErrorIs(t, err, ssz.ErrListTooBig)

	short := params.Minimal()
	short.MaxExtraDataBytes = 4
	_, err = DecodeSSZ(enc, types.Capella, short)
	require.ErrorIs(t, err, ssz.ErrBytesLength)

	_, err = p.HashTreeRoot(tight)
	require.ErrorIs(t, err, ssz.ErrListTooBig)
}

func TestHashTreeRoot(t *testing.T) {
	spec := params.Minimal()
	p := samplePayload(t, types.Deneb)
	root, err := p.HashTreeRoot(spec)
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, root)

	changed := p.Copy()
	d, err := changed.Deneb()
	require.NoError(t, err)
	d.GasUsed++
	other, err := changed.HashTreeRoot(spec)
	require.NoError(t, err)
	require.NotEqual(t, root, other)

	merge, err := samplePayload(t, types.Merge).HashTreeRoot(spec)
	require.NoError(t, err)
	capella, err := NewCapellaPayload(&PayloadCapella{PayloadCommon: sampleCommon()})
	require.NoError(t, err)
	capellaRoot, err := capella.HashTreeRoot(spec)
	require.NoError(t, err)
	require.NotEqual(t, merge, capellaRoot, "an empty withdrawals list still changes the root")
}

func TestCopy(t *testing.T) {
	p := samplePayload(t, types.Eip6110)
	cp := p.Copy()
	require.Equal(t, p, cp)

	v, err := cp.Eip6110()
	require.NoError(t, err)
	v.Transactions[0][0] = 0xee
	v.ExtraData[0] = 'X'
	v.Withdrawals[0].Amount = 99
	v.DepositReceipts[0].Index = 42
	v.ExcessDataGas.SetUint64(1)

	orig, err := p.Eip6110()
	require.NoError(t, err)
	require.Equal(t, byte(0x02), orig.Transactions[0][0])
	require.Equal(t, byte('b'), orig.ExtraData[0])
	require.Equal(t, types.Gwei(5), orig.Withdrawals[0].Amount)
	require.Equal(t, uint64(0), orig.DepositReceipts[0].Index)
	require.Equal(t, uint64(131072), orig.ExcessDataGas.Uint64())
}

func TestToHeader(t *testing.T) {
	spec := params.Minimal()

	mergeHeader, err := samplePayload(t, types.Merge).ToHeader(spec)
	require.NoError(t, err)
	require.Equal(t, types.Merge, mergeHeader.Fork)
	require.NotEqual(t, common.Hash{}, mergeHeader.TransactionsRoot)
	require.Equal(t, common.Hash{}, mergeHeader.WithdrawalsRoot)
	require.Equal(t, common.Hash{}, mergeHeader.DepositReceiptsRoot)

	h, err := samplePayload(t, types.Eip6110).ToHeader(spec)
	require.NoError(t, err)
	require.Equal(t, mergeHeader.TransactionsRoot, h.TransactionsRoot, "same transactions, same root")
	require.NotEqual(t, common.Hash{}, h.WithdrawalsRoot)
	require.NotEqual(t, common.Hash{}, h.DepositReceiptsRoot)
	require.Equal(t, uint64(131072), h.ExcessDataGas.Uint64())
	require.Equal(t, sampleCommon().BlockHash, h.BlockHash)
}
