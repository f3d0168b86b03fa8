package types

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
)

// StrictJSON is the JSON codec used for consensus objects: unknown fields are rejected.
var StrictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// ParseQuotedUint64 parses a decimal string as used for integers in the consensus API.
func ParseQuotedUint64(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return v, nil
}

// QuoteUint64 formats v as a decimal string.
func QuoteUint64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// DecodeFixedHex decodes a 0x-prefixed hex string into out, which must match its length.
func DecodeFixedHex(field, s string, out []byte) error {
	b, err := hexutil.Decode(s)
	if err != nil {
		return fmt.Errorf("field %s: %w", field, err)
	}
	if len(b) != len(out) {
		return fmt.Errorf("field %s: got %d bytes, want %d", field, len(b), len(out))
	}
	copy(out, b)
	return nil
}

type withdrawalJSON struct {
	Index          string         `json:"index"`
	ValidatorIndex string         `json:"validator_index"`
	Address        common.Address `json:"address"`
	Amount         string         `json:"amount"`
}

// MarshalJSON implements json.Marshaler.
func (w *Withdrawal) MarshalJSON() ([]byte, error) {
	return StrictJSON.Marshal(&withdrawalJSON{
		Index:          QuoteUint64(w.Index),
		ValidatorIndex: QuoteUint64(uint64(w.ValidatorIndex)),
		Address:        w.Address,
		Amount:         QuoteUint64(uint64(w.Amount)),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Withdrawal) UnmarshalJSON(input []byte) error {
	var dec withdrawalJSON
	if err := StrictJSON.Unmarshal(input, &dec); err != nil {
		return err
	}
	var err error
	if w.Index, err = ParseQuotedUint64("index", dec.Index); err != nil {
		return err
	}
	vi, err := ParseQuotedUint64("validator_index", dec.ValidatorIndex)
	if err != nil {
		return err
	}
	amount, err := ParseQuotedUint64("amount", dec.Amount)
	if err != nil {
		return err
	}
	w.ValidatorIndex = ValidatorIndex(vi)
	w.Address = dec.Address
	w.Amount = Gwei(amount)
	return nil
}

type depositReceiptJSON struct {
	Pubkey                string `json:"pubkey"`
	WithdrawalCredentials string `json:"withdrawal_credentials"`
	Amount                string `json:"amount"`
	Signature             string `json:"signature"`
	Index                 string `json:"index"`
}

// MarshalJSON implements json.Marshaler.
func (r *DepositReceipt) MarshalJSON() ([]byte, error) {
	return StrictJSON.Marshal(&depositReceiptJSON{
		Pubkey:                hexutil.Encode(r.Pubkey[:]),
		WithdrawalCredentials: hexutil.Encode(r.WithdrawalCredentials[:]),
		Amount:                QuoteUint64(uint64(r.Amount)),
		Signature:             hexutil.Encode(r.Signature[:]),
		Index:                 QuoteUint64(r.Index),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *DepositReceipt) UnmarshalJSON(input []byte) error {
	var dec depositReceiptJSON
	if err := StrictJSON.Unmarshal(input, &dec); err != nil {
		return err
	}
	if err := DecodeFixedHex("pubkey", dec.Pubkey, r.Pubkey[:]); err != nil {
		return err
	}
	if err := DecodeFixedHex("withdrawal_credentials", dec.WithdrawalCredentials, r.WithdrawalCredentials[:]); err != nil {
		return err
	}
	if err := DecodeFixedHex("signature", dec.Signature, r.Signature[:]); err != nil {
		return err
	}
	amount, err := ParseQuotedUint64("amount", dec.Amount)
	if err != nil {
		return err
	}
	if r.Index, err = ParseQuotedUint64("index", dec.Index); err != nil {
		return err
	}
	r.Amount = Gwei(amount)
	return nil
}
