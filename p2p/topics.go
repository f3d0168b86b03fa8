package p2p

import (
	"fmt"
	"strings"

	"github.com/geanlabs/beaconcore/types"
)

// TopicEncoding specifies the encoding used for gossip messages.
const TopicEncoding = "ssz_snappy"

const (
	topicPrefix = "/eth2/beaconcore/"
	topicName   = "execution_payload"
)

// PayloadTopic returns the gossip topic carrying execution payloads of fork.
// The fork travels in the topic name because payload bytes do not identify
// their own layout.
func PayloadTopic(fork types.ForkName) string {
	return topicPrefix + fork.String() + "/" + topicName + "/" + TopicEncoding
}

// ParseTopic returns the fork named by a payload topic.
func ParseTopic(topic string) (types.ForkName, error) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return types.Base, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != topicName || parts[2] != TopicEncoding {
		return types.Base, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	fork, err := types.ParseForkName(parts[0])
	if err != nil {
		return types.Base, fmt.Errorf("%w: %s: %v", ErrUnknownTopic, topic, err)
	}
	if !fork.HasExecutionPayload() {
		return types.Base, fmt.Errorf("%w: %s carries no payload", ErrUnknownTopic, topic)
	}
	return fork, nil
}
