package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFork is returned when a fork name cannot be parsed.
var ErrUnknownFork = errors.New("unknown fork")

// ForkName identifies a protocol upgrade. The zero value is Base.
// Values are ordered: a later fork compares greater than an earlier one.
type ForkName uint8

const (
	Base ForkName = iota
	Altair
	Merge
	Capella
	Deneb
	Eip6110
)

// AllForks lists every known fork in activation order.
var AllForks = []ForkName{Base, Altair, Merge, Capella, Deneb, Eip6110}

// ExecutionForks lists the forks whose blocks carry an execution payload.
var ExecutionForks = []ForkName{Merge, Capella, Deneb, Eip6110}

func (f ForkName) String() string {
	switch f {
	case Base:
		return "base"
	case Altair:
		return "altair"
	case Merge:
		return "merge"
	case Capella:
		return "capella"
	case Deneb:
		return "deneb"
	case Eip6110:
		return "eip6110"
	default:
		return fmt.Sprintf("fork(%d)", uint8(f))
	}
}

// ParseForkName parses a fork name case-insensitively. "phase0" and "bellatrix"
// are accepted as the consensus-API names of Base and Merge.
func ParseForkName(s string) (ForkName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "phase0":
		return Base, nil
	case "altair":
		return Altair, nil
	case "merge", "bellatrix":
		return Merge, nil
	case "capella":
		return Capella, nil
	case "deneb":
		return Deneb, nil
	case "eip6110":
		return Eip6110, nil
	}
	return Base, fmt.Errorf("%w: %q", ErrUnknownFork, s)
}

// HasExecutionPayload reports whether blocks of this fork carry an execution payload.
func (f ForkName) HasExecutionPayload() bool { return f >= Merge && f <= Eip6110 }

// HasAltairLists reports whether states of this fork carry participation flags
// and inactivity scores.
func (f ForkName) HasAltairLists() bool { return f >= Altair }

// MarshalText implements encoding.TextMarshaler.
func (f ForkName) MarshalText() ([]byte, error) {
	if f > Eip6110 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFork, uint8(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ForkName) UnmarshalText(text []byte) error {
	parsed, err := ParseForkName(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
