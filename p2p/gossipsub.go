package p2p

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
)

// Domains prefixed to the message ID preimage.
var (
	MessageDomainInvalidSnappy = [4]byte{0x00, 0x00, 0x00, 0x00}
	MessageDomainValidSnappy   = [4]byte{0x01, 0x00, 0x00, 0x00}
)

// secondsPerSlot is the slot duration the seen-message TTL is derived from.
const secondsPerSlot = 12

// GossipsubParams are the mesh parameters of the payload router.
type GossipsubParams struct {
	D     int // target mesh peers
	DLow  int
	DHigh int
	DLazy int // gossip-only peers

	HeartbeatInterval time.Duration
	FanoutTTL         time.Duration
	HistoryLength     int // message cache windows
	HistoryGossip     int // windows gossiped about
	SeenTTL           time.Duration
}

// DefaultGossipsubParams returns the payload router parameters. Seen messages
// are remembered for two epochs.
func DefaultGossipsubParams(slotsPerEpoch uint64) GossipsubParams {
	return GossipsubParams{
		D:                 8,
		DLow:              6,
		DHigh:             12,
		DLazy:             6,
		HeartbeatInterval: 700 * time.Millisecond,
		FanoutTTL:         time.Minute,
		HistoryLength:     6,
		HistoryGossip:     3,
		SeenTTL:           time.Duration(secondsPerSlot*slotsPerEpoch*2) * time.Second,
	}
}

func (p GossipsubParams) router() pubsub.GossipSubParams {
	gs := pubsub.DefaultGossipSubParams()
	gs.D = p.D
	gs.Dlo = p.DLow
	gs.Dhi = p.DHigh
	gs.Dlazy = p.DLazy
	gs.HeartbeatInterval = p.HeartbeatInterval
	gs.FanoutTTL = p.FanoutTTL
	gs.HistoryLength = p.HistoryLength
	gs.HistoryGossip = p.HistoryGossip
	return gs
}

// MessageID is a 20-byte gossipsub message identifier.
type MessageID [20]byte

// ComputeMessageID hashes domain ‖ uint64_le(len(topic)) ‖ topic ‖ data and
// keeps the first 20 bytes.
func ComputeMessageID(topic, data []byte, snappyValid bool) MessageID {
	domain := MessageDomainInvalidSnappy
	if snappyValid {
		domain = MessageDomainValidSnappy
	}

	h := sha256.New()
	h.Write(domain[:])
	h.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(topic))))
	h.Write(topic)
	h.Write(data)

	var id MessageID
	copy(id[:], h.Sum(nil))
	return id
}
