package types

import "github.com/ethereum/go-ethereum/common"

// SSZ Containers. Field order is wire order.

// Checkpoint is an (epoch, root) pair identifying an epoch boundary block.
type Checkpoint struct {
	Epoch Epoch
	Root  Root `ssz-size:"32"`
}

// Validator is a registry entry. Entries are appended, never removed.
type Validator struct {
	Pubkey                     BLSPubkey `ssz-size:"48"`
	WithdrawalCredentials      Root      `ssz-size:"32"`
	EffectiveBalance           Gwei
	Slashed                    bool
	ActivationEligibilityEpoch Epoch
	ActivationEpoch            Epoch
	ExitEpoch                  Epoch
	WithdrawableEpoch          Epoch
}

// IndexedDepositData is a deposit waiting in the state's pending queue.
// Index is the deposit's position in the deposit contract; Epoch is the epoch in
// which it was included.
type IndexedDepositData struct {
	Pubkey                BLSPubkey `ssz-size:"48"`
	WithdrawalCredentials Root      `ssz-size:"32"`
	Amount                Gwei
	Index                 uint64
	Epoch                 Epoch
}

// Withdrawal is a validator withdrawal carried in an execution payload (Capella+).
type Withdrawal struct {
	Index          uint64
	ValidatorIndex ValidatorIndex
	Address        common.Address `ssz-size:"20"`
	Amount         Gwei
}

// DepositReceipt is a deposit emitted by the execution layer (EIP-6110).
type DepositReceipt struct {
	Pubkey                BLSPubkey `ssz-size:"48"`
	WithdrawalCredentials Root      `ssz-size:"32"`
	Amount                Gwei
	Signature             BLSSignature `ssz-size:"96"`
	Index                 uint64
}

// Copy returns a copy of the validator.
func (v *Validator) Copy() *Validator {
	cp := *v
	return &cp
}
