package state

import (
	ssz "github.com/ferranbt/fastssz"

	"github.com/geanlabs/beaconcore/types"
)

// PendingDepositsLimit is the SSZ list limit of the pending deposit queue.
const PendingDepositsLimit = 1 << 27

// ValidatorsRoot returns the hash tree root of the registry as
// List[Validator, ValidatorRegistryLimit].
func (s *BeaconState) ValidatorsRoot() (types.Root, error) {
	root, err := types.MerkleRoot(func(hh ssz.HashWalker) error {
		indx := hh.Index()
		for _, v := range s.Validators {
			if err := v.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(indx, uint64(len(s.Validators)), ValidatorRegistryLimit)
		return nil
	})
	return types.Root(root), err
}

// PendingDepositsRoot returns the hash tree root of the pending queue as
// List[IndexedDepositData, PendingDepositsLimit].
func (s *BeaconState) PendingDepositsRoot() (types.Root, error) {
	root, err := types.MerkleRoot(func(hh ssz.HashWalker) error {
		indx := hh.Index()
		for _, d := range s.PendingDeposits {
			if err := d.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(indx, uint64(len(s.PendingDeposits)), PendingDepositsLimit)
		return nil
	})
	return types.Root(root), err
}

// FinalizedCheckpointRoot returns the hash tree root of the finalized checkpoint.
func (s *BeaconState) FinalizedCheckpointRoot() (types.Root, error) {
	root, err := s.FinalizedCheckpoint.HashTreeRoot()
	return types.Root(root), err
}
