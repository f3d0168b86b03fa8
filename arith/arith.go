// Package arith provides checked uint64 arithmetic for consensus-critical counters
// and balances. Every operation reports overflow instead of wrapping.
package arith

import (
	"errors"

	gethmath "github.com/ethereum/go-ethereum/common/math"
)

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Add64 returns a + b or ErrOverflow.
func Add64(a, b uint64) (uint64, error) {
	res, overflow := gethmath.SafeAdd(a, b)
	if overflow {
		return 0, ErrOverflow
	}
	return res, nil
}

// Sub64 returns a - b or ErrUnderflow.
func Sub64(a, b uint64) (uint64, error) {
	res, underflow := gethmath.SafeSub(a, b)
	if underflow {
		return 0, ErrUnderflow
	}
	return res, nil
}

// Mul64 returns a * b or ErrOverflow.
func Mul64(a, b uint64) (uint64, error) {
	res, overflow := gethmath.SafeMul(a, b)
	if overflow {
		return 0, ErrOverflow
	}
	return res, nil
}

// Mod64 returns a mod b or ErrDivisionByZero.
func Mod64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a % b, nil
}

// Div64 returns a / b or ErrDivisionByZero.
func Div64(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}
