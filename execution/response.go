package execution

import (
	"fmt"

	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	jsoniter "github.com/json-iterator/go"
)

// ForkVersionedResponse is the API envelope that names the payload's fork in
// an adjacent version member.
type ForkVersionedResponse struct {
	Version types.ForkName    `json:"version"`
	Data    *ExecutionPayload `json:"data"`
}

type forkVersionedJSON struct {
	Version string              `json:"version"`
	Data    jsoniter.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (r *ForkVersionedResponse) MarshalJSON() ([]byte, error) {
	if err := r.Data.Validate(); err != nil {
		return nil, err
	}
	if r.Data.ForkName() != r.Version {
		return nil, fmt.Errorf("%w: version %s carries %s payload", ErrIncorrectVariant, r.Version, r.Data.ForkName())
	}
	data, err := r.Data.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return types.StrictJSON.Marshal(&forkVersionedJSON{Version: r.Version.String(), Data: data})
}

// DecodeForkVersionedResponse reads the version member and decodes data with
// that fork's layout.
func DecodeForkVersionedResponse(input []byte, spec *params.ChainSpec) (*ForkVersionedResponse, error) {
	var dec forkVersionedJSON
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(input, &dec); err != nil {
		return nil, err
	}
	if len(dec.Data) == 0 {
		return nil, fmt.Errorf("%w: data", errMissingField)
	}
	fork, err := types.ParseForkName(dec.Version)
	if err != nil {
		return nil, err
	}
	payload, err := DeserializeByFork(dec.Data, fork, spec)
	if err != nil {
		return nil, err
	}
	return &ForkVersionedResponse{Version: fork, Data: payload}, nil
}
