package consensus

import (
	"errors"
	"math"
	"testing"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/state"
	"github.com/geanlabs/beaconcore/types"
	"github.com/stretchr/testify/require"
)

func TestEffectiveBalance(t *testing.T) {
	tests := []struct {
		name   string
		amount types.Gwei
		want   types.Gwei
	}{
		{"above max", 32_500_000_000, 32_000_000_000},
		{"floored", 16_300_000_000, 16_000_000_000},
		{"exact increment", 1_000_000_000, 1_000_000_000},
		{"below increment", 999_999_999, 0},
		{"zero", 0, 0},
		{"max uint64", math.MaxUint64, 32_000_000_000},
	}

	spec := params.Mainnet()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveBalance(tt.amount, spec)
			if err != nil {
				t.Fatalf("EffectiveBalance(%d): %v", tt.amount, err)
			}
			if got != tt.want {
				t.Errorf("EffectiveBalance(%d) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestEffectiveBalance_ZeroIncrement(t *testing.T) {
	spec := params.Mainnet()
	spec.EffectiveBalanceIncrement = 0
	if _, err := EffectiveBalance(1, spec); !errors.Is(err, params.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestValidatorFromDeposit(t *testing.T) {
	d := makeDeposit(7, 32_500_000_000, 0, 0)
	v, err := ValidatorFromDeposit(d, params.Mainnet())
	require.NoError(t, err)

	require.Equal(t, &types.Validator{
		Pubkey:                     d.Pubkey,
		WithdrawalCredentials:      d.WithdrawalCredentials,
		EffectiveBalance:           32_000_000_000,
		Slashed:                    false,
		ActivationEligibilityEpoch: types.FarFutureEpoch,
		ActivationEpoch:            types.FarFutureEpoch,
		ExitEpoch:                  types.FarFutureEpoch,
		WithdrawableEpoch:          types.FarFutureEpoch,
	}, v)
}

func TestApplyDeposit_NewValidator(t *testing.T) {
	tests := []struct {
		fork    types.ForkName
		auxList bool
	}{
		{types.Base, false},
		{types.Altair, true},
		{types.Eip6110, true},
	}
	for _, tt := range tests {
		t.Run(tt.fork.String(), func(t *testing.T) {
			s := state.New(tt.fork)
			d := makeDeposit(1, 16_300_000_000, 0, 0)

			require.NoError(t, ApplyDeposit(s, d, params.Mainnet()))
			require.Len(t, s.Validators, 1)
			require.Equal(t, []types.Gwei{16_300_000_000}, s.Balances, "balance keeps the full amount")
			require.Equal(t, types.Gwei(16_000_000_000), s.Validators[0].EffectiveBalance)

			prev, err := s.PreviousEpochParticipation()
			if tt.auxList {
				require.NoError(t, err)
				require.Equal(t, []types.ParticipationFlags{0}, prev)
			} else {
				require.ErrorIs(t, err, state.ErrIncorrectStateVariant)
			}
			require.NoError(t, s.CheckListLengths())
		})
	}
}

func TestApplyDeposit_ExistingValidator(t *testing.T) {
	s := state.New(types.Altair)
	spec := params.Mainnet()
	require.NoError(t, ApplyDeposit(s, makeDeposit(1, gwei32, 0, 0), spec))
	require.NoError(t, ApplyDeposit(s, makeDeposit(2, gwei32, 1, 0), spec))
	require.NoError(t, ApplyDeposit(s, makeDeposit(2, 3, 2, 0), spec))

	require.Len(t, s.Validators, 2)
	require.Equal(t, []types.Gwei{gwei32, gwei32 + 3}, s.Balances)
	require.NoError(t, s.CheckListLengths())
}

func TestIncreaseBalance(t *testing.T) {
	s := state.New(types.Base)
	require.NoError(t, s.AppendValidator(&types.Validator{}, 10))

	require.NoError(t, IncreaseBalance(s, 0, 5))
	require.Equal(t, types.Gwei(15), s.Balances[0])

	require.NoError(t, s.UpdateBalanceAtIndex(0, math.MaxUint64))
	require.ErrorIs(t, IncreaseBalance(s, 0, 1), arith.ErrOverflow)
	require.Equal(t, types.Gwei(math.MaxUint64), s.Balances[0], "failed increase leaves balance")

	require.ErrorIs(t, IncreaseBalance(s, 1, 1), state.ErrIndexOutOfRange)
}

func TestDecreaseBalance(t *testing.T) {
	s := state.New(types.Base)
	require.NoError(t, s.AppendValidator(&types.Validator{}, 10))

	require.NoError(t, DecreaseBalance(s, 0, 4))
	require.Equal(t, types.Gwei(6), s.Balances[0])

	require.ErrorIs(t, DecreaseBalance(s, 0, 7), arith.ErrUnderflow)
	require.Equal(t, types.Gwei(6), s.Balances[0])

	require.ErrorIs(t, DecreaseBalance(s, 3, 1), state.ErrIndexOutOfRange)
}
