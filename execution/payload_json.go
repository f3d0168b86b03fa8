package execution

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	"github.com/holiman/uint256"
)

// errMissingField is wrapped when a required JSON member is absent.
var errMissingField = errors.New("missing field")

// payloadJSON mirrors the consensus API encoding: integers as decimal
// strings, byte fields as 0x-prefixed hex. Pointer members are required.
type payloadJSON struct {
	ParentHash    *common.Hash    `json:"parent_hash"`
	FeeRecipient  *common.Address `json:"fee_recipient"`
	StateRoot     *common.Hash    `json:"state_root"`
	ReceiptsRoot  *common.Hash    `json:"receipts_root"`
	LogsBloom     *hexutil.Bytes  `json:"logs_bloom"`
	PrevRandao    *common.Hash    `json:"prev_randao"`
	BlockNumber   string          `json:"block_number"`
	GasLimit      string          `json:"gas_limit"`
	GasUsed       string          `json:"gas_used"`
	Timestamp     string          `json:"timestamp"`
	ExtraData     *hexutil.Bytes  `json:"extra_data"`
	BaseFeePerGas string          `json:"base_fee_per_gas"`
	BlockHash     *common.Hash    `json:"block_hash"`
	Transactions  []hexutil.Bytes `json:"transactions"`
}

type payloadCapellaJSON struct {
	payloadJSON
	Withdrawals []*types.Withdrawal `json:"withdrawals"`
}

type payloadDenebJSON struct {
	payloadJSON
	Withdrawals   []*types.Withdrawal `json:"withdrawals"`
	ExcessDataGas string              `json:"excess_data_gas"`
}

type payloadEip6110JSON struct {
	payloadJSON
	Withdrawals     []*types.Withdrawal     `json:"withdrawals"`
	ExcessDataGas   string                  `json:"excess_data_gas"`
	DepositReceipts []*types.DepositReceipt `json:"deposit_receipts"`
}

func (c *PayloadCommon) toJSON() payloadJSON {
	bloom := hexutil.Bytes(c.LogsBloom[:])
	extra := hexutil.Bytes(c.ExtraData)
	if extra == nil {
		extra = hexutil.Bytes{}
	}
	txs := make([]hexutil.Bytes, len(c.Transactions))
	for i, tx := range c.Transactions {
		txs[i] = tx
	}
	return payloadJSON{
		ParentHash:    &c.ParentHash,
		FeeRecipient:  &c.FeeRecipient,
		StateRoot:     &c.StateRoot,
		ReceiptsRoot:  &c.ReceiptsRoot,
		LogsBloom:     &bloom,
		PrevRandao:    &c.PrevRandao,
		BlockNumber:   types.QuoteUint64(c.BlockNumber),
		GasLimit:      types.QuoteUint64(c.GasLimit),
		GasUsed:       types.QuoteUint64(c.GasUsed),
		Timestamp:     types.QuoteUint64(c.Timestamp),
		ExtraData:     &extra,
		BaseFeePerGas: c.BaseFeePerGas.Dec(),
		BlockHash:     &c.BlockHash,
		Transactions:  txs,
	}
}

func (j *payloadJSON) toCommon(c *PayloadCommon) error {
	missing := func(name string) error { return fmt.Errorf("%w: %s", errMissingField, name) }
	switch {
	case j.ParentHash == nil:
		return missing("parent_hash")
	case j.FeeRecipient == nil:
		return missing("fee_recipient")
	case j.StateRoot == nil:
		return missing("state_root")
	case j.ReceiptsRoot == nil:
		return missing("receipts_root")
	case j.LogsBloom == nil:
		return missing("logs_bloom")
	case j.PrevRandao == nil:
		return missing("prev_randao")
	case j.ExtraData == nil:
		return missing("extra_data")
	case j.BlockHash == nil:
		return missing("block_hash")
	case j.Transactions == nil:
		return missing("transactions")
	}
	if len(*j.LogsBloom) != BytesPerLogsBloom {
		return fmt.Errorf("field logs_bloom: got %d bytes, want %d", len(*j.LogsBloom), BytesPerLogsBloom)
	}

	var err error
	if c.BlockNumber, err = types.ParseQuotedUint64("block_number", j.BlockNumber); err != nil {
		return err
	}
	if c.GasLimit, err = types.ParseQuotedUint64("gas_limit", j.GasLimit); err != nil {
		return err
	}
	if c.GasUsed, err = types.ParseQuotedUint64("gas_used", j.GasUsed); err != nil {
		return err
	}
	if c.Timestamp, err = types.ParseQuotedUint64("timestamp", j.Timestamp); err != nil {
		return err
	}
	if err := parseQuotedUint256("base_fee_per_gas", j.BaseFeePerGas, &c.BaseFeePerGas); err != nil {
		return err
	}

	c.ParentHash = *j.ParentHash
	c.FeeRecipient = *j.FeeRecipient
	c.StateRoot = *j.StateRoot
	c.ReceiptsRoot = *j.ReceiptsRoot
	copy(c.LogsBloom[:], *j.LogsBloom)
	c.PrevRandao = *j.PrevRandao
	c.ExtraData = append([]byte{}, *j.ExtraData...)
	c.BlockHash = *j.BlockHash
	c.Transactions = make([][]byte, len(j.Transactions))
	for i, tx := range j.Transactions {
		c.Transactions[i] = append([]byte{}, tx...)
	}
	return nil
}

func parseQuotedUint256(field, s string, out *uint256.Int) error {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("field %s: %w", field, err)
	}
	*out = *v
	return nil
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// MarshalJSON encodes the payload as its variant's own object, without a fork tag.
func (p *ExecutionPayload) MarshalJSON() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.fork {
	case types.Merge:
		return types.StrictJSON.Marshal(p.merge.PayloadCommon.toJSON())
	case types.Capella:
		v := p.capella
		return types.StrictJSON.Marshal(&payloadCapellaJSON{
			payloadJSON: v.PayloadCommon.toJSON(),
			Withdrawals: emptyIfNil(v.Withdrawals),
		})
	case types.Deneb:
		v := p.deneb
		return types.StrictJSON.Marshal(&payloadDenebJSON{
			payloadJSON:   v.PayloadCommon.toJSON(),
			Withdrawals:   emptyIfNil(v.Withdrawals),
			ExcessDataGas: v.ExcessDataGas.Dec(),
		})
	case types.Eip6110:
		v := p.eip6110
		return types.StrictJSON.Marshal(&payloadEip6110JSON{
			payloadJSON:     v.PayloadCommon.toJSON(),
			Withdrawals:     emptyIfNil(v.Withdrawals),
			ExcessDataGas:   v.ExcessDataGas.Dec(),
			DepositReceipts: emptyIfNil(v.DepositReceipts),
		})
	default:
		return nil, unsupportedFork(p.fork)
	}
}

// DeserializeByFork decodes the JSON object of fork's variant. Members of other
// variants are rejected as unknown fields. List bounds from spec are enforced.
func DeserializeByFork(data []byte, fork types.ForkName, spec *params.ChainSpec) (*ExecutionPayload, error) {
	p, err := Empty(fork)
	if err != nil {
		return nil, err
	}
	if err := p.unmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode %s payload json: %w", fork, err)
	}
	if err := p.fields().checkLimits(spec); err != nil {
		return nil, fmt.Errorf("decode %s payload json: %w", fork, err)
	}
	return p, nil
}

func (p *ExecutionPayload) unmarshalJSON(data []byte) error {
	switch p.fork {
	case types.Merge:
		var dec payloadJSON
		if err := types.StrictJSON.Unmarshal(data, &dec); err != nil {
			return err
		}
		return dec.toCommon(&p.merge.PayloadCommon)
	case types.Capella:
		var dec payloadCapellaJSON
		if err := types.StrictJSON.Unmarshal(data, &dec); err != nil {
			return err
		}
		if dec.Withdrawals == nil {
			return fmt.Errorf("%w: withdrawals", errMissingField)
		}
		p.capella.Withdrawals = dec.Withdrawals
		return dec.toCommon(&p.capella.PayloadCommon)
	case types.Deneb:
		var dec payloadDenebJSON
		if err := types.StrictJSON.Unmarshal(data, &dec); err != nil {
			return err
		}
		if dec.Withdrawals == nil {
			return fmt.Errorf("%w: withdrawals", errMissingField)
		}
		if err := parseQuotedUint256("excess_data_gas", dec.ExcessDataGas, &p.deneb.ExcessDataGas); err != nil {
			return err
		}
		p.deneb.Withdrawals = dec.Withdrawals
		return dec.toCommon(&p.deneb.PayloadCommon)
	case types.Eip6110:
		var dec payloadEip6110JSON
		if err := types.StrictJSON.Unmarshal(data, &dec); err != nil {
			return err
		}
		if dec.Withdrawals == nil {
			return fmt.Errorf("%w: withdrawals", errMissingField)
		}
		if dec.DepositReceipts == nil {
			return fmt.Errorf("%w: deposit_receipts", errMissingField)
		}
		if err := parseQuotedUint256("excess_data_gas", dec.ExcessDataGas, &p.eip6110.ExcessDataGas); err != nil {
			return err
		}
		p.eip6110.Withdrawals = dec.Withdrawals
		p.eip6110.DepositReceipts = dec.DepositReceipts
		return dec.toCommon(&p.eip6110.PayloadCommon)
	default:
		return unsupportedFork(p.fork)
	}
}
