package consensus

import (
	"fmt"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/state"
	"github.com/geanlabs/beaconcore/types"
)

// IncreaseBalance increases the balance of validator idx by delta.
//
// Consensus pseudocode:
//
//	def increase_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	    state.balances[index] += delta
func IncreaseBalance(s *state.BeaconState, idx types.ValidatorIndex, delta types.Gwei) error {
	bal, err := s.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	newBal, err := arith.Add64(uint64(bal), uint64(delta))
	if err != nil {
		return fmt.Errorf("increase balance of validator %d by %d: %w", idx, delta, err)
	}
	return s.UpdateBalanceAtIndex(idx, types.Gwei(newBal))
}

// DecreaseBalance decreases the balance of validator idx by delta. A delta larger
// than the balance is an error, not a clamp to zero.
func DecreaseBalance(s *state.BeaconState, idx types.ValidatorIndex, delta types.Gwei) error {
	bal, err := s.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	newBal, err := arith.Sub64(uint64(bal), uint64(delta))
	if err != nil {
		return fmt.Errorf("decrease balance of validator %d by %d: %w", idx, delta, err)
	}
	return s.UpdateBalanceAtIndex(idx, types.Gwei(newBal))
}
