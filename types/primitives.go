// Package types defines the primitive and composite types shared by the deposit
// processing and execution payload code.
package types

import (
	"fmt"
	"math"
)

// Primitive types.
type Slot uint64
type Epoch uint64
type Gwei uint64
type ValidatorIndex uint64
type Root [32]byte

// BLSPubkey is a 48-byte compressed BLS12-381 public key.
type BLSPubkey [48]byte

// BLSSignature is a 96-byte compressed BLS12-381 signature.
type BLSSignature [96]byte

// ParticipationFlags is the per-validator Altair participation bitfield.
type ParticipationFlags uint8

// FarFutureEpoch is the sentinel used for epoch markers that have not been reached.
const FarFutureEpoch = Epoch(math.MaxUint64)

// Short returns a short hex representation of the pubkey (first 4 bytes).
func (p BLSPubkey) Short() string {
	return fmt.Sprintf("%x", p[:4])
}

// Fixed SSZ sizes of the containers in this package.
const (
	WithdrawalSize     = 44
	DepositReceiptSize = 192
)
