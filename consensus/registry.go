package consensus

import (
	"fmt"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/state"
	"github.com/geanlabs/beaconcore/types"
)

// EffectiveBalance floors amount to a multiple of the effective balance increment
// and caps it at the maximum effective balance.
func EffectiveBalance(amount types.Gwei, spec *params.ChainSpec) (types.Gwei, error) {
	if spec.EffectiveBalanceIncrement == 0 {
		return 0, fmt.Errorf("%w: effective_balance_increment is zero", params.ErrConfiguration)
	}
	rem, err := arith.Mod64(uint64(amount), uint64(spec.EffectiveBalanceIncrement))
	if err != nil {
		return 0, err
	}
	floored, err := arith.Sub64(uint64(amount), rem)
	if err != nil {
		return 0, err
	}
	return min(types.Gwei(floored), spec.MaxEffectiveBalance), nil
}

// ValidatorFromDeposit builds the registry entry for a deposit with an unseen pubkey.
//
// Consensus pseudocode:
//
//	def get_validator_from_indexed_deposit_data(indexed_deposit_data: IndexedDepositData) -> Validator:
//	    amount = indexed_deposit_data.amount
//	    effective_balance = min(amount - amount % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//
//	    return Validator(
//	        pubkey=indexed_deposit_data.pubkey,
//	        withdrawal_credentials=indexed_deposit_data.withdrawal_credentials,
//	        activation_eligibility_epoch=FAR_FUTURE_EPOCH,
//	        activation_epoch=FAR_FUTURE_EPOCH,
//	        exit_epoch=FAR_FUTURE_EPOCH,
//	        withdrawable_epoch=FAR_FUTURE_EPOCH,
//	        effective_balance=effective_balance,
//	    )
func ValidatorFromDeposit(d *types.IndexedDepositData, spec *params.ChainSpec) (*types.Validator, error) {
	effectiveBalance, err := EffectiveBalance(d.Amount, spec)
	if err != nil {
		return nil, err
	}
	return &types.Validator{
		Pubkey:                     d.Pubkey,
		WithdrawalCredentials:      d.WithdrawalCredentials,
		EffectiveBalance:           effectiveBalance,
		Slashed:                    false,
		ActivationEligibilityEpoch: spec.FarFutureEpoch,
		ActivationEpoch:            spec.FarFutureEpoch,
		ExitEpoch:                  spec.FarFutureEpoch,
		WithdrawableEpoch:          spec.FarFutureEpoch,
	}, nil
}

// ApplyDeposit adds a new validator for an unseen pubkey or tops up the balance of
// the existing one.
//
// Consensus pseudocode:
//
//	def apply_indexed_deposit_data(state: BeaconState, indexed_deposit_data: IndexedDepositData) -> None:
//	    pubkey = indexed_deposit_data.pubkey
//	    amount = indexed_deposit_data.amount
//	    validator_pubkeys = [v.pubkey for v in state.validators]
//	    if pubkey not in validator_pubkeys:
//	        # Add validator and balance entries
//	        state.validators.append(get_validator_from_indexed_deposit_data(indexed_deposit_data))
//	        state.balances.append(amount)
//	        # [New in Altair]
//	        state.previous_epoch_participation.append(ParticipationFlags(0b0000_0000))
//	        state.current_epoch_participation.append(ParticipationFlags(0b0000_0000))
//	        state.inactivity_scores.append(uint64(0))
//	    else:
//	        # Increase balance by deposit amount
//	        index = ValidatorIndex(validator_pubkeys.index(pubkey))
//	        increase_balance(state, index, amount)
func ApplyDeposit(s *state.BeaconState, d *types.IndexedDepositData, spec *params.ChainSpec) error {
	idx, ok := s.ValidatorIndexByPubkey(d.Pubkey)
	if ok {
		return IncreaseBalance(s, idx, d.Amount)
	}

	v, err := ValidatorFromDeposit(d, spec)
	if err != nil {
		return err
	}
	if err := s.AppendValidator(v, d.Amount); err != nil {
		return err
	}
	if s.Fork().HasAltairLists() {
		if err := s.AppendParticipation(0, 0); err != nil {
			return err
		}
		if err := s.AppendInactivityScore(0); err != nil {
			return err
		}
	}
	return nil
}
