// Package state holds the in-memory beacon state mutated by epoch processing.
// A BeaconState has exactly one writer; it performs no locking.
package state

import (
	"errors"
	"fmt"

	"github.com/geanlabs/beaconcore/types"
)

// ValidatorRegistryLimit is the SSZ list limit of the validator registry.
const ValidatorRegistryLimit = 1 << 40

var (
	ErrIncorrectStateVariant = errors.New("field not present in state for this fork")
	ErrIndexOutOfRange       = errors.New("validator index out of range")
	ErrRegistryFull          = errors.New("validator registry limit reached")
)

// BeaconState is the subset of the consensus state touched by deposit processing.
// Validators, Balances and, from Altair onward, the participation and inactivity
// lists are parallel: entry i of each belongs to validator i.
type BeaconState struct {
	Validators          []*types.Validator
	Balances            []types.Gwei
	PendingDeposits     []*types.IndexedDepositData
	Eth1DepositIndex    uint64
	FinalizedCheckpoint types.Checkpoint

	fork                       types.ForkName
	previousEpochParticipation []types.ParticipationFlags
	currentEpochParticipation  []types.ParticipationFlags
	inactivityScores           []uint64
}

// New returns an empty state for the given fork.
func New(fork types.ForkName) *BeaconState {
	s := &BeaconState{
		Validators:      []*types.Validator{},
		Balances:        []types.Gwei{},
		PendingDeposits: []*types.IndexedDepositData{},
		fork:            fork,
	}
	if fork.HasAltairLists() {
		s.previousEpochParticipation = []types.ParticipationFlags{}
		s.currentEpochParticipation = []types.ParticipationFlags{}
		s.inactivityScores = []uint64{}
	}
	return s
}

// Fork returns the fork the state belongs to.
func (s *BeaconState) Fork() types.ForkName { return s.fork }

// NumValidators returns the registry length.
func (s *BeaconState) NumValidators() int { return len(s.Validators) }

// PreviousEpochParticipation returns the previous-epoch participation flags.
func (s *BeaconState) PreviousEpochParticipation() ([]types.ParticipationFlags, error) {
	if !s.fork.HasAltairLists() {
		return nil, fmt.Errorf("previous_epoch_participation: %w", ErrIncorrectStateVariant)
	}
	return s.previousEpochParticipation, nil
}

// CurrentEpochParticipation returns the current-epoch participation flags.
func (s *BeaconState) CurrentEpochParticipation() ([]types.ParticipationFlags, error) {
	if !s.fork.HasAltairLists() {
		return nil, fmt.Errorf("current_epoch_participation: %w", ErrIncorrectStateVariant)
	}
	return s.currentEpochParticipation, nil
}

// InactivityScores returns the per-validator inactivity scores.
func (s *BeaconState) InactivityScores() ([]uint64, error) {
	if !s.fork.HasAltairLists() {
		return nil, fmt.Errorf("inactivity_scores: %w", ErrIncorrectStateVariant)
	}
	return s.inactivityScores, nil
}

// ValidatorIndexByPubkey scans the registry in index order and returns the
// position of the first validator with the given pubkey.
func (s *BeaconState) ValidatorIndexByPubkey(pubkey types.BLSPubkey) (types.ValidatorIndex, bool) {
	for i, v := range s.Validators {
		if v.Pubkey == pubkey {
			return types.ValidatorIndex(i), true
		}
	}
	return 0, false
}

// BalanceAtIndex returns the balance of validator idx.
func (s *BeaconState) BalanceAtIndex(idx types.ValidatorIndex) (types.Gwei, error) {
	if uint64(idx) >= uint64(len(s.Balances)) {
		return 0, fmt.Errorf("balance %d of %d: %w", idx, len(s.Balances), ErrIndexOutOfRange)
	}
	return s.Balances[idx], nil
}

// UpdateBalanceAtIndex overwrites the balance of validator idx.
func (s *BeaconState) UpdateBalanceAtIndex(idx types.ValidatorIndex, bal types.Gwei) error {
	if uint64(idx) >= uint64(len(s.Balances)) {
		return fmt.Errorf("balance %d of %d: %w", idx, len(s.Balances), ErrIndexOutOfRange)
	}
	s.Balances[idx] = bal
	return nil
}

// AppendValidator appends a validator and its balance.
func (s *BeaconState) AppendValidator(v *types.Validator, balance types.Gwei) error {
	if uint64(len(s.Validators)) >= ValidatorRegistryLimit {
		return ErrRegistryFull
	}
	s.Validators = append(s.Validators, v)
	s.Balances = append(s.Balances, balance)
	return nil
}

// AppendParticipation appends one entry to both participation lists.
func (s *BeaconState) AppendParticipation(previous, current types.ParticipationFlags) error {
	if !s.fork.HasAltairLists() {
		return fmt.Errorf("epoch participation: %w", ErrIncorrectStateVariant)
	}
	s.previousEpochParticipation = append(s.previousEpochParticipation, previous)
	s.currentEpochParticipation = append(s.currentEpochParticipation, current)
	return nil
}

// AppendInactivityScore appends one inactivity score.
func (s *BeaconState) AppendInactivityScore(score uint64) error {
	if !s.fork.HasAltairLists() {
		return fmt.Errorf("inactivity_scores: %w", ErrIncorrectStateVariant)
	}
	s.inactivityScores = append(s.inactivityScores, score)
	return nil
}

// UpgradeTo moves the state to a later fork, creating the Altair lists with one
// zero entry per validator when they first appear.
func (s *BeaconState) UpgradeTo(fork types.ForkName) error {
	if fork < s.fork {
		return fmt.Errorf("cannot downgrade state from %s to %s", s.fork, fork)
	}
	if fork.HasAltairLists() && !s.fork.HasAltairLists() {
		n := len(s.Validators)
		s.previousEpochParticipation = make([]types.ParticipationFlags, n)
		s.currentEpochParticipation = make([]types.ParticipationFlags, n)
		s.inactivityScores = make([]uint64, n)
	}
	s.fork = fork
	return nil
}

// CheckListLengths verifies that every per-validator list has the registry's length.
func (s *BeaconState) CheckListLengths() error {
	n := len(s.Validators)
	if len(s.Balances) != n {
		return fmt.Errorf("balances length %d != validators length %d", len(s.Balances), n)
	}
	if !s.fork.HasAltairLists() {
		return nil
	}
	if len(s.previousEpochParticipation) != n {
		return fmt.Errorf("previous_epoch_participation length %d != validators length %d", len(s.previousEpochParticipation), n)
	}
	if len(s.currentEpochParticipation) != n {
		return fmt.Errorf("current_epoch_participation length %d != validators length %d", len(s.currentEpochParticipation), n)
	}
	if len(s.inactivityScores) != n {
		return fmt.Errorf("inactivity_scores length %d != validators length %d", len(s.inactivityScores), n)
	}
	return nil
}

// Copy creates a deep copy of the state.
func (s *BeaconState) Copy() *BeaconState {
	cp := *s
	cp.Validators = make([]*types.Validator, len(s.Validators))
	for i, v := range s.Validators {
		cp.Validators[i] = v.Copy()
	}
	cp.Balances = append([]types.Gwei{}, s.Balances...)
	cp.PendingDeposits = make([]*types.IndexedDepositData, len(s.PendingDeposits))
	for i, d := range s.PendingDeposits {
		dc := *d
		cp.PendingDeposits[i] = &dc
	}
	if s.fork.HasAltairLists() {
		cp.previousEpochParticipation = append([]types.ParticipationFlags{}, s.previousEpochParticipation...)
		cp.currentEpochParticipation = append([]types.ParticipationFlags{}, s.currentEpochParticipation...)
		cp.inactivityScores = append([]uint64{}, s.inactivityScores...)
	}
	return &cp
}
