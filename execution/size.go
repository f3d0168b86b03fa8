package execution

import (
	"fmt"

	"github.com/geanlabs/beaconcore/arith"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
)

// MaxPayloadSize returns the largest encoding a payload of fork can have under
// spec: the fixed part plus every variable field filled to its limit. It is
// used to bound network reads before decoding.
func MaxPayloadSize(fork types.ForkName, spec *params.ChainSpec) (uint64, error) {
	fixed, err := FixedSize(fork)
	if err != nil {
		return 0, err
	}
	size := uint64(fixed)

	add := func(count, elemSize uint64) error {
		n, err := arith.Mul64(count, elemSize)
		if err != nil {
			return err
		}
		size, err = arith.Add64(size, n)
		return err
	}

	if err := add(spec.MaxExtraDataBytes, 1); err != nil {
		return 0, fmt.Errorf("max %s payload size: %w", fork, err)
	}
	perTx, err := arith.Add64(offsetSize, spec.MaxBytesPerTransaction)
	if err != nil {
		return 0, fmt.Errorf("max %s payload size: %w", fork, err)
	}
	if err := add(spec.MaxTransactionsPerPayload, perTx); err != nil {
		return 0, fmt.Errorf("max %s payload size: %w", fork, err)
	}
	if fork >= types.Capella {
		if err := add(spec.MaxWithdrawalsPerPayload, types.WithdrawalSize); err != nil {
			return 0, fmt.Errorf("max %s payload size: %w", fork, err)
		}
	}
	if fork >= types.Eip6110 {
		if err := add(spec.MaxDepositReceiptsPerPayload, types.DepositReceiptSize); err != nil {
			return 0, fmt.Errorf("max %s payload size: %w", fork, err)
		}
	}
	return size, nil
}

// MaxPayloadSizeAnyFork returns the largest MaxPayloadSize over all execution forks.
func MaxPayloadSizeAnyFork(spec *params.ChainSpec) (uint64, error) {
	var largest uint64
	for _, fork := range types.ExecutionForks {
		size, err := MaxPayloadSize(fork, spec)
		if err != nil {
			return 0, err
		}
		if size > largest {
			largest = size
		}
	}
	return largest, nil
}
