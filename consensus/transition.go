// Package consensus implements the epoch-boundary state transitions that move
// pending deposits into the validator registry.
package consensus

import (
	"fmt"

	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/state"
)

// ProcessPendingDepositsStaged runs ProcessPendingDeposits on a copy of s and
// returns the copy. s itself is never modified, so a failed call leaves the
// caller's state intact.
func ProcessPendingDepositsStaged(s *state.BeaconState, spec *params.ChainSpec) (*state.BeaconState, error) {
	newState := s.Copy()
	if err := ProcessPendingDeposits(newState, spec); err != nil {
		return nil, fmt.Errorf("process pending deposits: %w", err)
	}
	if err := newState.CheckListLengths(); err != nil {
		return nil, fmt.Errorf("process pending deposits: %w", err)
	}
	return newState, nil
}
