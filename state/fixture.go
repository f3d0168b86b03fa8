package state

import (
	"fmt"
	"os"

	"github.com/geanlabs/beaconcore/types"
	"gopkg.in/yaml.v3"
)

// stateYAML is the on-disk form of a state fixture.
type stateYAML struct {
	Fork             string           `yaml:"fork"`
	Eth1DepositIndex uint64           `yaml:"eth1_deposit_index"`
	FinalizedEpoch   uint64           `yaml:"finalized_epoch"`
	Validators       []validatorYAML  `yaml:"validators"`
	Balances         []uint64         `yaml:"balances"`
	PendingDeposits  []pendingDepYAML `yaml:"pending_deposits"`
}

type validatorYAML struct {
	Pubkey                string `yaml:"pubkey"`
	WithdrawalCredentials string `yaml:"withdrawal_credentials"`
	EffectiveBalance      uint64 `yaml:"effective_balance"`
}

type pendingDepYAML struct {
	Pubkey                string `yaml:"pubkey"`
	WithdrawalCredentials string `yaml:"withdrawal_credentials"`
	Amount                uint64 `yaml:"amount"`
	Index                 uint64 `yaml:"index"`
	Epoch                 uint64 `yaml:"epoch"`
}

// LoadFixtureFile reads a YAML state fixture from path.
func LoadFixtureFile(path string) (*BeaconState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state fixture: %w", err)
	}
	return LoadFixture(data)
}

// LoadFixture decodes a YAML state fixture. Validators listed in the fixture get
// far-future epoch markers; balances default to the effective balance when the
// balances list is omitted.
func LoadFixture(data []byte) (*BeaconState, error) {
	var raw stateYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse state fixture: %w", err)
	}

	fork := types.Base
	if raw.Fork != "" {
		var err error
		if fork, err = types.ParseForkName(raw.Fork); err != nil {
			return nil, err
		}
	}
	if len(raw.Balances) != 0 && len(raw.Balances) != len(raw.Validators) {
		return nil, fmt.Errorf("state fixture: %d balances for %d validators", len(raw.Balances), len(raw.Validators))
	}

	s := New(fork)
	s.Eth1DepositIndex = raw.Eth1DepositIndex
	s.FinalizedCheckpoint.Epoch = types.Epoch(raw.FinalizedEpoch)

	for i, rv := range raw.Validators {
		v := &types.Validator{
			EffectiveBalance:           types.Gwei(rv.EffectiveBalance),
			ActivationEligibilityEpoch: types.FarFutureEpoch,
			ActivationEpoch:            types.FarFutureEpoch,
			ExitEpoch:                  types.FarFutureEpoch,
			WithdrawableEpoch:          types.FarFutureEpoch,
		}
		if err := types.DecodeFixedHex(fmt.Sprintf("validators[%d].pubkey", i), rv.Pubkey, v.Pubkey[:]); err != nil {
			return nil, err
		}
		if rv.WithdrawalCredentials != "" {
			if err := types.DecodeFixedHex(fmt.Sprintf("validators[%d].withdrawal_credentials", i), rv.WithdrawalCredentials, v.WithdrawalCredentials[:]); err != nil {
				return nil, err
			}
		}
		balance := v.EffectiveBalance
		if len(raw.Balances) != 0 {
			balance = types.Gwei(raw.Balances[i])
		}
		if err := s.AppendValidator(v, balance); err != nil {
			return nil, err
		}
		if fork.HasAltairLists() {
			if err := s.AppendParticipation(0, 0); err != nil {
				return nil, err
			}
			if err := s.AppendInactivityScore(0); err != nil {
				return nil, err
			}
		}
	}

	for i, rd := range raw.PendingDeposits {
		d := &types.IndexedDepositData{
			Amount: types.Gwei(rd.Amount),
			Index:  rd.Index,
			Epoch:  types.Epoch(rd.Epoch),
		}
		if err := types.DecodeFixedHex(fmt.Sprintf("pending_deposits[%d].pubkey", i), rd.Pubkey, d.Pubkey[:]); err != nil {
			return nil, err
		}
		if rd.WithdrawalCredentials != "" {
			if err := types.DecodeFixedHex(fmt.Sprintf("pending_deposits[%d].withdrawal_credentials", i), rd.WithdrawalCredentials, d.WithdrawalCredentials[:]); err != nil {
				return nil, err
			}
		}
		s.PendingDeposits = append(s.PendingDeposits, d)
	}
	return s, nil
}
