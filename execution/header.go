package execution

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	"github.com/holiman/uint256"
)

// Header summarises a payload with its list fields replaced by their roots.
// Roots of lists the variant does not have are zero.
type Header struct {
	Fork                types.ForkName
	ParentHash          common.Hash
	FeeRecipient        common.Address
	StateRoot           common.Hash
	ReceiptsRoot        common.Hash
	PrevRandao          common.Hash
	BlockNumber         uint64
	GasLimit            uint64
	GasUsed             uint64
	Timestamp           uint64
	ExtraData           []byte
	BaseFeePerGas       uint256.Int
	BlockHash           common.Hash
	TransactionsRoot    common.Hash
	WithdrawalsRoot     common.Hash
	ExcessDataGas       uint256.Int
	DepositReceiptsRoot common.Hash
}

// ToHeader derives the payload header.
func (p *ExecutionPayload) ToHeader(spec *params.ChainSpec) (*Header, error) {
	f, err := p.view()
	if err != nil {
		return nil, err
	}
	if err := f.checkLimits(spec); err != nil {
		return nil, fmt.Errorf("header of %s payload: %w", f.fork, err)
	}
	c := f.common
	h := &Header{
		Fork:          f.fork,
		ParentHash:    c.ParentHash,
		FeeRecipient:  c.FeeRecipient,
		StateRoot:     c.StateRoot,
		ReceiptsRoot:  c.ReceiptsRoot,
		PrevRandao:    c.PrevRandao,
		BlockNumber:   c.BlockNumber,
		GasLimit:      c.GasLimit,
		GasUsed:       c.GasUsed,
		Timestamp:     c.Timestamp,
		ExtraData:     append([]byte{}, c.ExtraData...),
		BaseFeePerGas: c.BaseFeePerGas,
		BlockHash:     c.BlockHash,
	}

	root, err := types.MerkleRoot(func(hh ssz.HashWalker) error {
		putTransactions(hh, c.Transactions, spec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.TransactionsRoot = root

	if f.withdrawals != nil {
		root, err := types.MerkleRoot(func(hh ssz.HashWalker) error {
			return putWithdrawals(hh, *f.withdrawals, spec.MaxWithdrawalsPerPayload)
		})
		if err != nil {
			return nil, err
		}
		h.WithdrawalsRoot = root
	}
	if f.excessDataGas != nil {
		h.ExcessDataGas = *f.excessDataGas
	}
	if f.depositReceipts != nil {
		root, err := types.MerkleRoot(func(hh ssz.HashWalker) error {
			return putDepositReceipts(hh, *f.depositReceipts, spec.MaxDepositReceiptsPerPayload)
		})
		if err != nil {
			return nil, err
		}
		h.DepositReceiptsRoot = root
	}
	return h, nil
}
