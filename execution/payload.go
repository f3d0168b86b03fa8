// Package execution holds the execution payload carried in a beacon block body.
// The payload layout depends on the fork; ExecutionPayload is a closed sum over
// the Merge, Capella, Deneb and Eip6110 variants and is always dispatched on
// its fork tag.
package execution

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/types"
	"github.com/holiman/uint256"
)

// BytesPerLogsBloom is the size of the logs bloom filter.
const BytesPerLogsBloom = 256

// LogsBloom is the execution block's bloom filter over log addresses and topics.
type LogsBloom [BytesPerLogsBloom]byte

// PayloadCommon holds the fields every payload variant carries, in wire order.
type PayloadCommon struct {
	ParentHash    common.Hash
	FeeRecipient  common.Address
	StateRoot     common.Hash
	ReceiptsRoot  common.Hash
	LogsBloom     LogsBloom
	PrevRandao    common.Hash
	BlockNumber   uint64
	GasLimit      uint64
	GasUsed       uint64
	Timestamp     uint64
	ExtraData     []byte
	BaseFeePerGas uint256.Int
	BlockHash     common.Hash
	Transactions  [][]byte
}

// PayloadMerge is the payload introduced by the Merge.
type PayloadMerge struct {
	PayloadCommon
}

// PayloadCapella adds withdrawals.
type PayloadCapella struct {
	PayloadCommon
	Withdrawals []*types.Withdrawal
}

// PayloadDeneb adds the excess data gas counter.
type PayloadDeneb struct {
	PayloadCommon
	Withdrawals   []*types.Withdrawal
	ExcessDataGas uint256.Int
}

// PayloadEip6110 adds deposit receipts emitted by the execution layer.
type PayloadEip6110 struct {
	PayloadCommon
	Withdrawals     []*types.Withdrawal
	ExcessDataGas   uint256.Int
	DepositReceipts []*types.DepositReceipt
}

// ExecutionPayload is a fork-tagged execution payload. Exactly one variant is
// set and it always matches the tag. The zero value has no variant: encoders
// reject it and getters read zeros. Build one with a New* constructor or
// DecodeSSZ.
type ExecutionPayload struct {
	fork    types.ForkName
	merge   *PayloadMerge
	capella *PayloadCapella
	deneb   *PayloadDeneb
	eip6110 *PayloadEip6110
}

// NewMergePayload wraps a Merge variant.
func NewMergePayload(p *PayloadMerge) (*ExecutionPayload, error) {
	if p == nil {
		return nil, ErrNilPayload
	}
	return &ExecutionPayload{fork: types.Merge, merge: p}, nil
}

// NewCapellaPayload wraps a Capella variant.
func NewCapellaPayload(p *PayloadCapella) (*ExecutionPayload, error) {
	if p == nil {
		return nil, ErrNilPayload
	}
	return &ExecutionPayload{fork: types.Capella, capella: p}, nil
}

// NewDenebPayload wraps a Deneb variant.
func NewDenebPayload(p *PayloadDeneb) (*ExecutionPayload, error) {
	if p == nil {
		return nil, ErrNilPayload
	}
	return &ExecutionPayload{fork: types.Deneb, deneb: p}, nil
}

// NewEip6110Payload wraps an Eip6110 variant.
func NewEip6110Payload(p *PayloadEip6110) (*ExecutionPayload, error) {
	if p == nil {
		return nil, ErrNilPayload
	}
	return &ExecutionPayload{fork: types.Eip6110, eip6110: p}, nil
}

// Empty returns a default-valued payload for fork.
func Empty(fork types.ForkName) (*ExecutionPayload, error) {
	switch fork {
	case types.Merge:
		return NewMergePayload(&PayloadMerge{})
	case types.Capella:
		return NewCapellaPayload(&PayloadCapella{})
	case types.Deneb:
		return NewDenebPayload(&PayloadDeneb{})
	case types.Eip6110:
		return NewEip6110Payload(&PayloadEip6110{})
	default:
		return nil, unsupportedFork(fork)
	}
}

// ForkName returns the fork whose layout this payload uses.
func (p *ExecutionPayload) ForkName() types.ForkName {
	if p == nil {
		return types.Base
	}
	return p.fork
}

// Merge returns the Merge variant.
func (p *ExecutionPayload) Merge() (*PayloadMerge, error) {
	if p.fork != types.Merge {
		return nil, incorrectVariant("merge payload", p.fork)
	}
	return p.merge, nil
}

// Capella returns the Capella variant.
func (p *ExecutionPayload) Capella() (*PayloadCapella, error) {
	if p.fork != types.Capella {
		return nil, incorrectVariant("capella payload", p.fork)
	}
	return p.capella, nil
}

// Deneb returns the Deneb variant.
func (p *ExecutionPayload) Deneb() (*PayloadDeneb, error) {
	if p.fork != types.Deneb {
		return nil, incorrectVariant("deneb payload", p.fork)
	}
	return p.deneb, nil
}

// Eip6110 returns the Eip6110 variant.
func (p *ExecutionPayload) Eip6110() (*PayloadEip6110, error) {
	if p.fork != types.Eip6110 {
		return nil, incorrectVariant("eip6110 payload", p.fork)
	}
	return p.eip6110, nil
}

// fields exposes the variant's fields to the codecs. Pointers for fields the
// variant does not have are nil.
type fields struct {
	fork            types.ForkName
	common          *PayloadCommon
	withdrawals     *[]*types.Withdrawal
	excessDataGas   *uint256.Int
	depositReceipts *[]*types.DepositReceipt
}

// view returns the variant's fields, or an error for a payload built without a
// constructor.
func (p *ExecutionPayload) view() (fields, error) {
	if p == nil {
		return fields{}, ErrNilPayload
	}
	f := fields{fork: p.fork}
	switch p.fork {
	case types.Merge:
		if p.merge != nil {
			f.common = &p.merge.PayloadCommon
		}
	case types.Capella:
		if v := p.capella; v != nil {
			f.common, f.withdrawals = &v.PayloadCommon, &v.Withdrawals
		}
	case types.Deneb:
		if v := p.deneb; v != nil {
			f.common, f.withdrawals = &v.PayloadCommon, &v.Withdrawals
			f.excessDataGas = &v.ExcessDataGas
		}
	case types.Eip6110:
		if v := p.eip6110; v != nil {
			f.common, f.withdrawals = &v.PayloadCommon, &v.Withdrawals
			f.excessDataGas, f.depositReceipts = &v.ExcessDataGas, &v.DepositReceipts
		}
	default:
		return fields{}, unsupportedFork(p.fork)
	}
	if f.common == nil {
		return fields{}, fmt.Errorf("%w: no %s variant", ErrNilPayload, p.fork)
	}
	return f, nil
}

// fields is view for the infallible getters: a payload without a variant reads
// as all zero.
func (p *ExecutionPayload) fields() fields {
	f, err := p.view()
	if err != nil {
		return fields{fork: p.ForkName(), common: &PayloadCommon{}}
	}
	return f
}

// Validate reports whether the payload carries the variant its fork names.
func (p *ExecutionPayload) Validate() error {
	_, err := p.view()
	return err
}

func (p *ExecutionPayload) common() *PayloadCommon { return p.fields().common }

func (p *ExecutionPayload) ParentHash() common.Hash      { return p.common().ParentHash }
func (p *ExecutionPayload) FeeRecipient() common.Address { return p.common().FeeRecipient }
func (p *ExecutionPayload) StateRoot() common.Hash       { return p.common().StateRoot }
func (p *ExecutionPayload) ReceiptsRoot() common.Hash    { return p.common().ReceiptsRoot }
func (p *ExecutionPayload) LogsBloom() LogsBloom         { return p.common().LogsBloom }
func (p *ExecutionPayload) PrevRandao() common.Hash      { return p.common().PrevRandao }
func (p *ExecutionPayload) BlockNumber() uint64          { return p.common().BlockNumber }
func (p *ExecutionPayload) GasLimit() uint64             { return p.common().GasLimit }
func (p *ExecutionPayload) GasUsed() uint64              { return p.common().GasUsed }
func (p *ExecutionPayload) Timestamp() uint64            { return p.common().Timestamp }
func (p *ExecutionPayload) ExtraData() []byte            { return p.common().ExtraData }
func (p *ExecutionPayload) BaseFeePerGas() uint256.Int   { return p.common().BaseFeePerGas }
func (p *ExecutionPayload) BlockHash() common.Hash       { return p.common().BlockHash }
func (p *ExecutionPayload) Transactions() [][]byte       { return p.common().Transactions }

// Withdrawals returns the payload withdrawals. Capella and later.
func (p *ExecutionPayload) Withdrawals() ([]*types.Withdrawal, error) {
	f, err := p.view()
	if err != nil {
		return nil, err
	}
	if f.withdrawals == nil {
		return nil, incorrectVariant("withdrawals", p.fork)
	}
	return *f.withdrawals, nil
}

// ExcessDataGas returns the excess data gas. Deneb and later.
func (p *ExecutionPayload) ExcessDataGas() (uint256.Int, error) {
	f, err := p.view()
	if err != nil {
		return uint256.Int{}, err
	}
	if f.excessDataGas == nil {
		return uint256.Int{}, incorrectVariant("excess_data_gas", p.fork)
	}
	return *f.excessDataGas, nil
}

// DepositReceipts returns the deposit receipts. Eip6110 only.
func (p *ExecutionPayload) DepositReceipts() ([]*types.DepositReceipt, error) {
	f, err := p.view()
	if err != nil {
		return nil, err
	}
	if f.depositReceipts == nil {
		return nil, incorrectVariant("deposit_receipts", p.fork)
	}
	return *f.depositReceipts, nil
}

// Copy returns a deep copy of the payload. A payload without a variant copies
// to another one.
func (p *ExecutionPayload) Copy() *ExecutionPayload {
	src, err := p.view()
	if err != nil {
		return &ExecutionPayload{fork: p.ForkName()}
	}
	out, _ := Empty(p.fork)
	dst := out.fields()
	*dst.common = src.common.copy()
	if src.withdrawals != nil {
		*dst.withdrawals = copyWithdrawals(*src.withdrawals)
	}
	if src.excessDataGas != nil {
		*dst.excessDataGas = *src.excessDataGas
	}
	if src.depositReceipts != nil {
		*dst.depositReceipts = copyDepositReceipts(*src.depositReceipts)
	}
	return out
}

// Equal reports whether p and o are the same fork with the same field values.
// Nil and empty lists are equal, as they are on the wire.
func (p *ExecutionPayload) Equal(o *ExecutionPayload) bool {
	a, errA := p.view()
	b, errB := o.view()
	if errA != nil || errB != nil || a.fork != b.fork {
		return false
	}
	if !a.common.equal(b.common) {
		return false
	}
	if a.withdrawals != nil && !slices.EqualFunc(*a.withdrawals, *b.withdrawals, equalPtr[types.Withdrawal]) {
		return false
	}
	if a.excessDataGas != nil && !a.excessDataGas.Eq(b.excessDataGas) {
		return false
	}
	if a.depositReceipts != nil && !slices.EqualFunc(*a.depositReceipts, *b.depositReceipts, equalPtr[types.DepositReceipt]) {
		return false
	}
	return true
}

func (c *PayloadCommon) equal(o *PayloadCommon) bool {
	return c.ParentHash == o.ParentHash &&
		c.FeeRecipient == o.FeeRecipient &&
		c.StateRoot == o.StateRoot &&
		c.ReceiptsRoot == o.ReceiptsRoot &&
		c.LogsBloom == o.LogsBloom &&
		c.PrevRandao == o.PrevRandao &&
		c.BlockNumber == o.BlockNumber &&
		c.GasLimit == o.GasLimit &&
		c.GasUsed == o.GasUsed &&
		c.Timestamp == o.Timestamp &&
		bytes.Equal(c.ExtraData, o.ExtraData) &&
		c.BaseFeePerGas.Eq(&o.BaseFeePerGas) &&
		c.BlockHash == o.BlockHash &&
		slices.EqualFunc(c.Transactions, o.Transactions, bytes.Equal)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (c *PayloadCommon) copy() PayloadCommon {
	out := *c
	if c.ExtraData != nil {
		out.ExtraData = append([]byte{}, c.ExtraData...)
	}
	if c.Transactions != nil {
		out.Transactions = make([][]byte, len(c.Transactions))
		for i, tx := range c.Transactions {
			out.Transactions[i] = append([]byte{}, tx...)
		}
	}
	return out
}

func copyWithdrawals(ws []*types.Withdrawal) []*types.Withdrawal {
	if ws == nil {
		return nil
	}
	out := make([]*types.Withdrawal, len(ws))
	for i, w := range ws {
		if w != nil {
			c := *w
			out[i] = &c
		}
	}
	return out
}

func copyDepositReceipts(rs []*types.DepositReceipt) []*types.DepositReceipt {
	if rs == nil {
		return nil
	}
	out := make([]*types.DepositReceipt, len(rs))
	for i, r := range rs {
		if r != nil {
			c := *r
			out[i] = &c
		}
	}
	return out
}
