// Package params holds the chain specification values consumed by deposit
// processing and execution payload handling. A ChainSpec is passed explicitly to
// every call that needs it; there is no process-wide configuration.
package params

import (
	"errors"
	"fmt"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/types"
)

// ErrConfiguration marks a chain spec that cannot be used.
var ErrConfiguration = errors.New("invalid chain configuration")

// ChainSpec is the immutable set of parameters for one network preset.
type ChainSpec struct {
	PresetBase string `yaml:"PRESET_BASE"`

	// Registry and deposits.
	MaxDeposits               uint64      `yaml:"MAX_DEPOSITS"`
	SlotsPerEpoch             uint64      `yaml:"SLOTS_PER_EPOCH"`
	EffectiveBalanceIncrement types.Gwei  `yaml:"EFFECTIVE_BALANCE_INCREMENT"`
	MaxEffectiveBalance       types.Gwei  `yaml:"MAX_EFFECTIVE_BALANCE"`
	FarFutureEpoch            types.Epoch `yaml:"-"`

	// Execution payload bounds.
	MaxExtraDataBytes            uint64 `yaml:"MAX_EXTRA_DATA_BYTES"`
	MaxBytesPerTransaction       uint64 `yaml:"MAX_BYTES_PER_TRANSACTION"`
	MaxTransactionsPerPayload    uint64 `yaml:"MAX_TRANSACTIONS_PER_PAYLOAD"`
	MaxWithdrawalsPerPayload     uint64 `yaml:"MAX_WITHDRAWALS_PER_PAYLOAD"`
	MaxDepositReceiptsPerPayload uint64 `yaml:"MAX_DEPOSIT_RECEIPTS_PER_PAYLOAD"`
}

// Mainnet returns the mainnet preset.
func Mainnet() *ChainSpec {
	return &ChainSpec{
		PresetBase:                   "mainnet",
		MaxDeposits:                  16,
		SlotsPerEpoch:                32,
		EffectiveBalanceIncrement:    1_000_000_000,
		MaxEffectiveBalance:          32_000_000_000,
		FarFutureEpoch:               types.FarFutureEpoch,
		MaxExtraDataBytes:            32,
		MaxBytesPerTransaction:       1 << 30,
		MaxTransactionsPerPayload:    1 << 20,
		MaxWithdrawalsPerPayload:     16,
		MaxDepositReceiptsPerPayload: 8192,
	}
}

// Minimal returns the minimal preset used by tests and local devnets.
func Minimal() *ChainSpec {
	spec := Mainnet()
	spec.PresetBase = "minimal"
	spec.SlotsPerEpoch = 8
	spec.MaxWithdrawalsPerPayload = 4
	spec.MaxDepositReceiptsPerPayload = 4
	return spec
}

// Preset returns a copy of the named preset.
func Preset(name string) (*ChainSpec, error) {
	switch name {
	case "", "mainnet":
		return Mainnet(), nil
	case "minimal":
		return Minimal(), nil
	}
	return nil, fmt.Errorf("%w: unknown preset %q", ErrConfiguration, name)
}

// Copy returns a copy of the spec.
func (c *ChainSpec) Copy() *ChainSpec {
	cp := *c
	return &cp
}

// MaxDepositsPerEpoch is the number of pending deposits that may be applied
// in one epoch transition.
func (c *ChainSpec) MaxDepositsPerEpoch() (uint64, error) {
	n, err := arith.Mul64(c.MaxDeposits, c.SlotsPerEpoch)
	if err != nil {
		return 0, fmt.Errorf("%w: max_deposits * slots_per_epoch: %v", ErrConfiguration, err)
	}
	return n, nil
}

// Validate checks that every parameter is usable.
func (c *ChainSpec) Validate() error {
	switch {
	case c.EffectiveBalanceIncrement == 0:
		return fmt.Errorf("%w: effective_balance_increment is zero", ErrConfiguration)
	case c.SlotsPerEpoch == 0:
		return fmt.Errorf("%w: slots_per_epoch is zero", ErrConfiguration)
	case c.MaxDeposits == 0:
		return fmt.Errorf("%w: max_deposits is zero", ErrConfiguration)
	case c.MaxEffectiveBalance < c.EffectiveBalanceIncrement:
		return fmt.Errorf("%w: max_effective_balance %d below increment %d",
			ErrConfiguration, c.MaxEffectiveBalance, c.EffectiveBalanceIncrement)
	case c.MaxExtraDataBytes == 0, c.MaxBytesPerTransaction == 0,
		c.MaxTransactionsPerPayload == 0, c.MaxWithdrawalsPerPayload == 0,
		c.MaxDepositReceiptsPerPayload == 0:
		return fmt.Errorf("%w: execution payload bounds must be non-zero", ErrConfiguration)
	}
	if _, err := c.MaxDepositsPerEpoch(); err != nil {
		return err
	}
	return nil
}
