package execution

import (
	"errors"
	"fmt"
	"math"

	ssz "github.com/ferranbt/fastssz"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	"github.com/holiman/uint256"
)

const (
	// commonFixedSize is the fixed part shared by all variants, offsets included.
	commonFixedSize = 508
	offsetSize      = 4
	uint256Size     = 32
)

// FixedSize returns the size of the fixed part of fork's payload layout,
// which is also the encoded size of a payload with every list empty.
func FixedSize(fork types.ForkName) (int, error) {
	switch fork {
	case types.Merge:
		return commonFixedSize, nil
	case types.Capella:
		return commonFixedSize + offsetSize, nil
	case types.Deneb:
		return commonFixedSize + offsetSize + uint256Size, nil
	case types.Eip6110:
		return commonFixedSize + offsetSize + uint256Size + offsetSize, nil
	default:
		return 0, unsupportedFork(fork)
	}
}

func marshalUint256(dst []byte, v *uint256.Int) []byte {
	for i := 0; i < 4; i++ {
		dst = ssz.MarshalUint64(dst, v[i])
	}
	return dst
}

func unmarshalUint256(v *uint256.Int, buf []byte) {
	for i := 0; i < 4; i++ {
		v[i] = ssz.UnmarshallUint64(buf[i*8 : i*8+8])
	}
}

func transactionsSize(txs [][]byte) int {
	size := offsetSize * len(txs)
	for _, tx := range txs {
		size += len(tx)
	}
	return size
}

// SizeSSZ returns the encoded size of the payload.
func (p *ExecutionPayload) SizeSSZ() int {
	f := p.fields()
	size, _ := FixedSize(f.fork)
	size += len(f.common.ExtraData)
	size += transactionsSize(f.common.Transactions)
	if f.withdrawals != nil {
		size += len(*f.withdrawals) * types.WithdrawalSize
	}
	if f.depositReceipts != nil {
		size += len(*f.depositReceipts) * types.DepositReceiptSize
	}
	return size
}

// checkLimits verifies every list and byte list fits its bound.
func (f fields) checkLimits(spec *params.ChainSpec) error {
	c := f.common
	if uint64(len(c.ExtraData)) > spec.MaxExtraDataBytes {
		return fmt.Errorf("extra_data: %w: %d > %d", ssz.ErrBytesLength, len(c.ExtraData), spec.MaxExtraDataBytes)
	}
	if uint64(len(c.Transactions)) > spec.MaxTransactionsPerPayload {
		return fmt.Errorf("transactions: %w: %d > %d", ssz.ErrListTooBig, len(c.Transactions), spec.MaxTransactionsPerPayload)
	}
	for i, tx := range c.Transactions {
		if uint64(len(tx)) > spec.MaxBytesPerTransaction {
			return fmt.Errorf("transactions[%d]: %w: %d > %d", i, ssz.ErrBytesLength, len(tx), spec.MaxBytesPerTransaction)
		}
	}
	if f.withdrawals != nil {
		ws := *f.withdrawals
		if uint64(len(ws)) > spec.MaxWithdrawalsPerPayload {
			return fmt.Errorf("withdrawals: %w: %d > %d", ssz.ErrListTooBig, len(ws), spec.MaxWithdrawalsPerPayload)
		}
		for i, w := range ws {
			if w == nil {
				return fmt.Errorf("withdrawals[%d]: nil entry", i)
			}
		}
	}
	if f.depositReceipts != nil {
		rs := *f.depositReceipts
		if uint64(len(rs)) > spec.MaxDepositReceiptsPerPayload {
			return fmt.Errorf("deposit_receipts: %w: %d > %d", ssz.ErrListTooBig, len(rs), spec.MaxDepositReceiptsPerPayload)
		}
		for i, r := range rs {
			if r == nil {
				return fmt.Errorf("deposit_receipts[%d]: nil entry", i)
			}
		}
	}
	return nil
}

// MarshalSSZ encodes the payload in its fork's layout.
func (p *ExecutionPayload) MarshalSSZ(spec *params.ChainSpec) ([]byte, error) {
	return p.MarshalSSZTo(make([]byte, 0, p.SizeSSZ()), spec)
}

// MarshalSSZTo appends the encoded payload to buf.
func (p *ExecutionPayload) MarshalSSZTo(buf []byte, spec *params.ChainSpec) (dst []byte, err error) {
	f, err := p.view()
	if err != nil {
		return nil, err
	}
	if err = f.checkLimits(spec); err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", f.fork, err)
	}
	c := f.common
	dst = buf
	offset, _ := FixedSize(f.fork)

	// Field (0) 'ParentHash'
	dst = append(dst, c.ParentHash[:]...)

	// Field (1) 'FeeRecipient'
	dst = append(dst, c.FeeRecipient[:]...)

	// Field (2) 'StateRoot'
	dst = append(dst, c.StateRoot[:]...)

	// Field (3) 'ReceiptsRoot'
	dst = append(dst, c.ReceiptsRoot[:]...)

	// Field (4) 'LogsBloom'
	dst = append(dst, c.LogsBloom[:]...)

	// Field (5) 'PrevRandao'
	dst = append(dst, c.PrevRandao[:]...)

	// Field (6) 'BlockNumber'
	dst = ssz.MarshalUint64(dst, c.BlockNumber)

	// Field (7) 'GasLimit'
	dst = ssz.MarshalUint64(dst, c.GasLimit)

	// Field (8) 'GasUsed'
	dst = ssz.MarshalUint64(dst, c.GasUsed)

	// Field (9) 'Timestamp'
	dst = ssz.MarshalUint64(dst, c.Timestamp)

	// Offset (10) 'ExtraData'
	dst = ssz.WriteOffset(dst, offset)
	offset += len(c.ExtraData)

	// Field (11) 'BaseFeePerGas'
	dst = marshalUint256(dst, &c.BaseFeePerGas)

	// Field (12) 'BlockHash'
	dst = append(dst, c.BlockHash[:]...)

	// Offset (13) 'Transactions'
	dst = ssz.WriteOffset(dst, offset)
	offset += transactionsSize(c.Transactions)

	// Offset (14) 'Withdrawals'
	if f.withdrawals != nil {
		dst = ssz.WriteOffset(dst, offset)
		offset += len(*f.withdrawals) * types.WithdrawalSize
	}

	// Field (15) 'ExcessDataGas'
	if f.excessDataGas != nil {
		dst = marshalUint256(dst, f.excessDataGas)
	}

	// Offset (16) 'DepositReceipts'
	if f.depositReceipts != nil {
		dst = ssz.WriteOffset(dst, offset)
	}

	// Field (10) 'ExtraData'
	dst = append(dst, c.ExtraData...)

	// Field (13) 'Transactions'
	txOffset := offsetSize * len(c.Transactions)
	for _, tx := range c.Transactions {
		dst = ssz.WriteOffset(dst, txOffset)
		txOffset += len(tx)
	}
	for _, tx := range c.Transactions {
		dst = append(dst, tx...)
	}

	// Field (14) 'Withdrawals'
	if f.withdrawals != nil {
		for _, w := range *f.withdrawals {
			if dst, err = w.MarshalSSZTo(dst); err != nil {
				return nil, err
			}
		}
	}

	// Field (16) 'DepositReceipts'
	if f.depositReceipts != nil {
		for _, r := range *f.depositReceipts {
			if dst, err = r.MarshalSSZTo(dst); err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}

// variableField is a dynamic field located through an offset in the fixed part.
type variableField struct {
	name     string
	position int
	offset   uint64
}

// DecodeSSZ decodes buf using the layout of fork. The fork is not recoverable
// from the bytes; decoding with the wrong tag fails or yields a different
// payload.
func DecodeSSZ(buf []byte, fork types.ForkName, spec *params.ChainSpec) (*ExecutionPayload, error) {
	p, err := Empty(fork)
	if err != nil {
		return nil, err
	}
	if err := p.fields().unmarshal(buf, spec); err != nil {
		return nil, err
	}
	return p, nil
}

func (f fields) unmarshal(buf []byte, spec *params.ChainSpec) error {
	fail := func(field string, offset int, err error) error {
		return &DecodeError{Fork: f.fork, Field: field, Offset: offset, Err: err}
	}

	size := uint64(len(buf))
	fixed, err := FixedSize(f.fork)
	if err != nil {
		return err
	}
	if size < uint64(fixed) {
		return fail("", 0, fmt.Errorf("%w: %d bytes, fixed part is %d", ssz.ErrSize, size, fixed))
	}

	c := f.common
	copy(c.ParentHash[:], buf[0:32])
	copy(c.FeeRecipient[:], buf[32:52])
	copy(c.StateRoot[:], buf[52:84])
	copy(c.ReceiptsRoot[:], buf[84:116])
	copy(c.LogsBloom[:], buf[116:372])
	copy(c.PrevRandao[:], buf[372:404])
	c.BlockNumber = ssz.UnmarshallUint64(buf[404:412])
	c.GasLimit = ssz.UnmarshallUint64(buf[412:420])
	c.GasUsed = ssz.UnmarshallUint64(buf[420:428])
	c.Timestamp = ssz.UnmarshallUint64(buf[428:436])
	vars := []variableField{{name: "extra_data", position: 436, offset: ssz.ReadOffset(buf[436:440])}}
	unmarshalUint256(&c.BaseFeePerGas, buf[440:472])
	copy(c.BlockHash[:], buf[472:504])
	vars = append(vars, variableField{name: "transactions", position: 504, offset: ssz.ReadOffset(buf[504:508])})

	pos := commonFixedSize
	if f.withdrawals != nil {
		vars = append(vars, variableField{name: "withdrawals", position: pos, offset: ssz.ReadOffset(buf[pos : pos+offsetSize])})
		pos += offsetSize
	}
	if f.excessDataGas != nil {
		unmarshalUint256(f.excessDataGas, buf[pos:pos+uint256Size])
		pos += uint256Size
	}
	if f.depositReceipts != nil {
		vars = append(vars, variableField{name: "deposit_receipts", position: pos, offset: ssz.ReadOffset(buf[pos : pos+offsetSize])})
	}

	if vars[0].offset != uint64(fixed) {
		return fail(vars[0].name, vars[0].position, ssz.ErrInvalidVariableOffset)
	}
	for i, v := range vars {
		end := size
		if i+1 < len(vars) {
			end = vars[i+1].offset
		}
		if v.offset > end || end > size {
			return fail(v.name, v.position, ssz.ErrOffset)
		}
		if err := f.unmarshalVariable(v.name, buf[v.offset:end], spec); err != nil {
			return fail(v.name, int(v.offset), err)
		}
	}
	return nil
}

func (f fields) unmarshalVariable(name string, buf []byte, spec *params.ChainSpec) error {
	c := f.common
	switch name {
	case "extra_data":
		if uint64(len(buf)) > spec.MaxExtraDataBytes {
			return ssz.ErrBytesLength
		}
		if len(buf) > 0 {
			c.ExtraData = append([]byte{}, buf...)
		}
	case "transactions":
		txs, err := unmarshalTransactions(buf, spec)
		if err != nil {
			return err
		}
		c.Transactions = txs
	case "withdrawals":
		num, err := listLength(len(buf), types.WithdrawalSize, spec.MaxWithdrawalsPerPayload)
		if err != nil {
			return err
		}
		if num == 0 {
			return nil
		}
		ws := make([]*types.Withdrawal, num)
		for i := range ws {
			ws[i] = new(types.Withdrawal)
			if err := ws[i].UnmarshalSSZ(buf[i*types.WithdrawalSize : (i+1)*types.WithdrawalSize]); err != nil {
				return err
			}
		}
		*f.withdrawals = ws
	case "deposit_receipts":
		num, err := listLength(len(buf), types.DepositReceiptSize, spec.MaxDepositReceiptsPerPayload)
		if err != nil {
			return err
		}
		if num == 0 {
			return nil
		}
		rs := make([]*types.DepositReceipt, num)
		for i := range rs {
			rs[i] = new(types.DepositReceipt)
			if err := rs[i].UnmarshalSSZ(buf[i*types.DepositReceiptSize : (i+1)*types.DepositReceiptSize]); err != nil {
				return err
			}
		}
		*f.depositReceipts = rs
	}
	return nil
}

// listLength returns the element count of a list of fixed-size elements.
func listLength(byteLen, elemSize int, limit uint64) (int, error) {
	if byteLen%elemSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of %d", ssz.ErrSize, byteLen, elemSize)
	}
	num := byteLen / elemSize
	if uint64(num) > limit {
		return 0, fmt.Errorf("%w: %d > %d", ssz.ErrListTooBig, num, limit)
	}
	return num, nil
}

// unmarshalTransactions decodes a list of byte lists: an offset table followed
// by the concatenated bodies. An empty list decodes to nil.
func unmarshalTransactions(buf []byte, spec *params.ChainSpec) ([][]byte, error) {
	size := uint64(len(buf))
	if size == 0 {
		return nil, nil
	}
	// A zero first offset would read as an empty list with a stray table entry.
	if size < offsetSize {
		return nil, ssz.ErrOffset
	}
	if first := ssz.ReadOffset(buf[0:offsetSize]); first == 0 || first > size {
		return nil, ssz.ErrOffset
	}

	num, err := ssz.DecodeDynamicLength(buf, int(min(spec.MaxTransactionsPerPayload, math.MaxInt32)))
	if err != nil {
		if ssz.ReadOffset(buf[0:offsetSize])%offsetSize != 0 {
			return nil, fmt.Errorf("%w: %v", ssz.ErrOffset, err)
		}
		return nil, fmt.Errorf("%w: %v", ssz.ErrListTooBig, err)
	}
	txs := make([][]byte, num)
	err = ssz.UnmarshalDynamic(buf, num, func(indx int, tx []byte) error {
		if uint64(len(tx)) > spec.MaxBytesPerTransaction {
			return fmt.Errorf("transaction %d: %w", indx, ssz.ErrBytesLength)
		}
		txs[indx] = append([]byte{}, tx...)
		return nil
	})
	switch {
	case err == nil:
		return txs, nil
	case errors.Is(err, ssz.ErrBytesLength):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ssz.ErrOffset, err)
	}
}

// HashTreeRoot returns the payload's SSZ hash tree root under spec's list limits.
func (p *ExecutionPayload) HashTreeRoot(spec *params.ChainSpec) ([32]byte, error) {
	return types.MerkleRoot(func(hh ssz.HashWalker) error {
		return p.HashTreeRootWith(hh, spec)
	})
}

// HashTreeRootWith hashes the payload into hh.
func (p *ExecutionPayload) HashTreeRootWith(hh ssz.HashWalker, spec *params.ChainSpec) error {
	f, err := p.view()
	if err != nil {
		return err
	}
	if err := f.checkLimits(spec); err != nil {
		return fmt.Errorf("hash %s payload: %w", f.fork, err)
	}
	c := f.common
	indx := hh.Index()

	hh.PutBytes(c.ParentHash[:])
	hh.PutBytes(c.FeeRecipient[:])
	hh.PutBytes(c.StateRoot[:])
	hh.PutBytes(c.ReceiptsRoot[:])
	hh.PutBytes(c.LogsBloom[:])
	hh.PutBytes(c.PrevRandao[:])
	hh.PutUint64(c.BlockNumber)
	hh.PutUint64(c.GasLimit)
	hh.PutUint64(c.GasUsed)
	hh.PutUint64(c.Timestamp)
	putByteList(hh, c.ExtraData, spec.MaxExtraDataBytes)
	putUint256(hh, &c.BaseFeePerGas)
	hh.PutBytes(c.BlockHash[:])
	putTransactions(hh, c.Transactions, spec)

	if f.withdrawals != nil {
		if err := putWithdrawals(hh, *f.withdrawals, spec.MaxWithdrawalsPerPayload); err != nil {
			return err
		}
	}
	if f.excessDataGas != nil {
		putUint256(hh, f.excessDataGas)
	}
	if f.depositReceipts != nil {
		if err := putDepositReceipts(hh, *f.depositReceipts, spec.MaxDepositReceiptsPerPayload); err != nil {
			return err
		}
	}

	hh.Merkleize(indx)
	return nil
}

func putUint256(hh ssz.HashWalker, v *uint256.Int) {
	hh.PutBytes(marshalUint256(make([]byte, 0, uint256Size), v))
}

func putByteList(hh ssz.HashWalker, b []byte, maxBytes uint64) {
	elemIndx := hh.Index()
	hh.AppendBytes32(b)
	hh.MerkleizeWithMixin(elemIndx, uint64(len(b)), (maxBytes+31)/32)
}

func putTransactions(hh ssz.HashWalker, txs [][]byte, spec *params.ChainSpec) {
	subIndx := hh.Index()
	for _, tx := range txs {
		putByteList(hh, tx, spec.MaxBytesPerTransaction)
	}
	hh.MerkleizeWithMixin(subIndx, uint64(len(txs)), spec.MaxTransactionsPerPayload)
}

func putWithdrawals(hh ssz.HashWalker, ws []*types.Withdrawal, limit uint64) error {
	subIndx := hh.Index()
	for _, w := range ws {
		if err := w.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.MerkleizeWithMixin(subIndx, uint64(len(ws)), limit)
	return nil
}

func putDepositReceipts(hh ssz.HashWalker, rs []*types.DepositReceipt, limit uint64) error {
	subIndx := hh.Index()
	for _, r := range rs {
		if err := r.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.MerkleizeWithMixin(subIndx, uint64(len(rs)), limit)
	return nil
}
