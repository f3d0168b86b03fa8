// Package storage persists execution payloads keyed by block hash.
package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/execution"
)

// ErrNotFound is returned when no payload is stored under a block hash.
var ErrNotFound = errors.New("payload not found")

// PayloadStore is a storage interface for execution payloads.
type PayloadStore interface {
	PutPayload(blockHash common.Hash, payload *execution.ExecutionPayload) error
	GetPayload(blockHash common.Hash) (*execution.ExecutionPayload, error)
	HasPayload(blockHash common.Hash) (bool, error)
	// BlockHashes returns the hashes of all stored payloads in ascending byte order.
	BlockHashes() ([]common.Hash, error)
	Close() error
}
