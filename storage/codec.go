package storage

import (
	"fmt"

	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
)

// EncodePayload serialises payload as its fork byte followed by its SSZ
// encoding, so the layout can be recovered on read.
func EncodePayload(payload *execution.ExecutionPayload, spec *params.ChainSpec) ([]byte, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	fork := payload.ForkName()
	buf := make([]byte, 1, 1+payload.SizeSSZ())
	buf[0] = byte(fork)
	return payload.MarshalSSZTo(buf, spec)
}

// DecodePayload reverses EncodePayload.
func DecodePayload(data []byte, spec *params.ChainSpec) (*execution.ExecutionPayload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode stored payload: empty value")
	}
	fork := types.ForkName(data[0])
	if !fork.HasExecutionPayload() {
		return nil, fmt.Errorf("decode stored payload: fork byte %d: %w", data[0], execution.ErrUnsupportedFork)
	}
	return execution.DecodeSSZ(data[1:], fork, spec)
}
