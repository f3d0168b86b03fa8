// Package p2p gossips execution payloads between nodes. Each execution fork
// has its own topic so that a receiver knows which layout to decode.
package p2p

import (
	"errors"
	"log/slog"

	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/types"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
)

var (
	// ErrMessageTooLarge is returned when a message would decompress past the
	// size limit of its topic.
	ErrMessageTooLarge = errors.New("gossip message too large")
	// ErrUnknownTopic is returned for topics that do not carry payloads.
	ErrUnknownTopic = errors.New("unknown gossip topic")
)

// GossipMaxSize is the default bound on a decompressed gossip message.
const GossipMaxSize = 10 << 20

// ServiceConfig holds configuration for the p2p service.
type ServiceConfig struct {
	Host      host.Host
	Handlers  *MessageHandlers
	Bootnodes []peer.AddrInfo
	// Forks to subscribe to. Defaults to every execution fork.
	Forks  []types.ForkName
	Logger *slog.Logger
}

func (c *ServiceConfig) forks() []types.ForkName {
	if len(c.Forks) == 0 {
		return types.ExecutionForks
	}
	return c.Forks
}

// decodeLimit is the largest decompressed message accepted on fork's topic.
func decodeLimit(spec *params.ChainSpec, fork types.ForkName, gossipMax uint64) (uint64, error) {
	size, err := execution.MaxPayloadSize(fork, spec)
	if err != nil {
		return 0, err
	}
	return min(size, gossipMax), nil
}
