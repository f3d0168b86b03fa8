package p2p

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
)

// PayloadHandler processes an execution payload received from gossipsub.
type PayloadHandler func(ctx context.Context, payload *execution.ExecutionPayload) error

// MessageHandlers decodes gossip messages and hands payloads to OnPayload.
type MessageHandlers struct {
	Spec      *params.ChainSpec
	OnPayload PayloadHandler
	// MaxMessageSize bounds decompressed messages. Defaults to GossipMaxSize.
	MaxMessageSize uint64
	Metrics        *Metrics
	Logger         *slog.Logger
}

func (h *MessageHandlers) maxMessageSize() uint64 {
	if h.MaxMessageSize == 0 {
		return GossipMaxSize
	}
	return h.MaxMessageSize
}

// HandlePayloadMessage decompresses and decodes a payload received on fork's topic.
func (h *MessageHandlers) HandlePayloadMessage(ctx context.Context, fork types.ForkName, data []byte) error {
	limit, err := decodeLimit(h.Spec, fork, h.maxMessageSize())
	if err != nil {
		return err
	}

	decoded, err := DecompressMessage(data, limit)
	if err != nil {
		if errors.Is(err, ErrMessageTooLarge) {
			h.Metrics.incRejected(fork, reasonTooLarge)
		} else {
			h.Metrics.incRejected(fork, reasonCorrupt)
		}
		return fmt.Errorf("decompress %s payload: %w", fork, err)
	}

	payload, err := execution.DecodeSSZ(decoded, fork, h.Spec)
	if err != nil {
		h.Metrics.incRejected(fork, reasonDecode)
		return fmt.Errorf("unmarshal %s payload: %w", fork, err)
	}
	h.Metrics.incReceived(fork)

	if h.Logger != nil {
		h.Logger.Debug("received execution payload",
			"fork", fork,
			"block_number", payload.BlockNumber(),
			"block_hash", payload.BlockHash(),
			"txs", len(payload.Transactions()),
		)
	}

	if h.OnPayload != nil {
		if err := h.OnPayload(ctx, payload); err != nil {
			h.Metrics.incRejected(fork, reasonHandler)
			return err
		}
	}
	return nil
}

// EncodePayload produces the gossip form of payload: snappy over its SSZ encoding.
func (h *MessageHandlers) EncodePayload(payload *execution.ExecutionPayload) ([]byte, error) {
	fork := payload.ForkName()
	limit, err := decodeLimit(h.Spec, fork, h.maxMessageSize())
	if err != nil {
		return nil, err
	}
	data, err := payload.MarshalSSZ(h.Spec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", fork, err)
	}
	if uint64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, limit %d", ErrMessageTooLarge, fork, len(data), limit)
	}
	return CompressMessage(data), nil
}
