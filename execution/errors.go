package execution

import (
	"errors"
	"fmt"

	"github.com/geanlabs/beaconcore/types"
)

var (
	// ErrIncorrectVariant is returned when a fork-specific field is read from
	// a payload variant that does not carry it.
	ErrIncorrectVariant = errors.New("field not present in this payload variant")
	// ErrUnsupportedFork is returned for forks that have no execution payload.
	ErrUnsupportedFork = errors.New("fork has no execution payload")
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("malformed execution payload")
	// ErrNilPayload is returned when a variant constructor is given nil.
	ErrNilPayload = errors.New("nil execution payload")
)

// DecodeError describes where decoding a payload failed.
type DecodeError struct {
	Fork   types.ForkName
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s payload: %v", e.Fork, e.Err)
	}
	return fmt.Sprintf("decode %s payload: field %s at offset %d: %v", e.Fork, e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func unsupportedFork(fork types.ForkName) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedFork, fork)
}

func incorrectVariant(field string, fork types.ForkName) error {
	return fmt.Errorf("%w: %s on %s", ErrIncorrectVariant, field, fork)
}
