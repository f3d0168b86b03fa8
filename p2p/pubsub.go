package p2p

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/snappy"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	pb "github.com/libp2p/go-libp2p-pubsub/pb"
	"github.com/libp2p/go-libp2p/core/host"
)

// NewGossipSub creates a gossipsub router that rejects messages whose
// compressed form could not fit maxDecoded bytes once decompressed.
func NewGossipSub(ctx context.Context, h host.Host, params GossipsubParams, maxDecoded uint64) (*pubsub.PubSub, error) {
	maxEncoded, err := MaxEncodedLen(maxDecoded)
	if err != nil {
		return nil, err
	}

	opts := []pubsub.Option{
		pubsub.WithMessageIdFn(messageIDFn(maxDecoded)),
		pubsub.WithGossipSubParams(params.router()),
		pubsub.WithSeenMessagesTTL(params.SeenTTL),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictNoSign),
		pubsub.WithFloodPublish(false),
		pubsub.WithMaxMessageSize(maxEncoded),
	}

	return pubsub.NewGossipSub(ctx, h, opts...)
}

// messageIDFn computes message IDs over the decompressed data when it
// decodes within limit, and over the raw data otherwise.
func messageIDFn(limit uint64) func(msg *pb.Message) string {
	return func(msg *pb.Message) string {
		data, err := DecompressMessage(msg.Data, limit)
		valid := err == nil
		if !valid {
			data = msg.Data
		}
		id := ComputeMessageID([]byte(msg.GetTopic()), data, valid)
		return string(id[:])
	}
}

// MaxEncodedLen returns the largest snappy block that can hold n bytes.
func MaxEncodedLen(n uint64) (int, error) {
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d bytes cannot be snappy encoded", ErrMessageTooLarge, n)
	}
	l := snappy.MaxEncodedLen(int(n))
	if l < 0 {
		return 0, fmt.Errorf("%w: %d bytes cannot be snappy encoded", ErrMessageTooLarge, n)
	}
	return l, nil
}

// CompressMessage compresses data using snappy for gossipsub.
func CompressMessage(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressMessage decompresses snappy-compressed data. The declared length
// is checked against limit before any buffer is allocated.
func DecompressMessage(data []byte, limit uint64) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if uint64(n) > limit {
		return nil, fmt.Errorf("%w: decodes to %d bytes, limit %d", ErrMessageTooLarge, n, limit)
	}
	return snappy.Decode(nil, data)
}
