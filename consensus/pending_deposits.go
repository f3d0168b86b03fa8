package consensus

import (
	"fmt"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/state"
	"github.com/geanlabs/beaconcore/types"
)

// ProcessPendingDeposits drains finalized deposits from the head of the pending
// queue into the registry, at most MaxDeposits*SlotsPerEpoch entries per call.
// The queue must be ordered by epoch; the first entry at or past the finalized
// epoch ends the pass. Entries whose index is below eth1_deposit_index were
// already applied and are dropped without effect, but still count towards the cap.
//
// On error the state may be partially mutated. Use ProcessPendingDepositsStaged
// when the caller cannot discard s.
//
// Consensus pseudocode:
//
//	def process_pending_deposits(state: BeaconState) -> None:
//	    finalized_epoch = state.finalized_checkpoint.epoch
//
//	    next_pending_deposit_index = 0
//	    for pending_deposit in state.pending_deposits:
//	        # Preserve deposits per epoch boundary
//	        if next_pending_deposit_index >= MAX_DEPOSITS * SLOTS_PER_EPOCH:
//	            break
//
//	        # Apply only finalized deposits
//	        if pending_deposit.epoch >= finalized_epoch:
//	            break
//
//	        # Skip already applied deposits
//	        if pending_deposit.index >= state.eth1_deposit_index:
//	            apply_indexed_deposit_data(state, pending_deposit)
//	            state.eth1_deposit_index += 1
//
//	        next_pending_deposit_index += 1
//
//	    state.pending_deposits = state.pending_deposits[next_pending_deposit_index:]
func ProcessPendingDeposits(s *state.BeaconState, spec *params.ChainSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	maxPerEpoch, err := spec.MaxDepositsPerEpoch()
	if err != nil {
		return err
	}
	finalizedEpoch := s.FinalizedCheckpoint.Epoch

	var processed uint64
	for _, d := range s.PendingDeposits {
		if processed >= maxPerEpoch {
			break
		}
		if d.Epoch >= finalizedEpoch {
			break
		}
		if d.Index >= s.Eth1DepositIndex {
			if err := ApplyDeposit(s, d, spec); err != nil {
				return fmt.Errorf("apply pending deposit %d: %w", d.Index, err)
			}
			next, err := arith.Add64(s.Eth1DepositIndex, 1)
			if err != nil {
				return fmt.Errorf("advance eth1 deposit index: %w", err)
			}
			s.Eth1DepositIndex = next
		}
		processed++
	}

	s.PendingDeposits = append([]*types.IndexedDepositData{}, s.PendingDeposits[processed:]...)
	return nil
}
