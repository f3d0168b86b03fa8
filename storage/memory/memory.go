package memory

import (
	"bytes"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/storage"
)

// Store is an in-memory implementation of storage.PayloadStore. Payloads are
// copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	payloads map[common.Hash]*execution.ExecutionPayload
}

var _ storage.PayloadStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		payloads: make(map[common.Hash]*execution.ExecutionPayload),
	}
}

func (m *Store) PutPayload(blockHash common.Hash, payload *execution.ExecutionPayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads[blockHash] = payload.Copy()
	return nil
}

func (m *Store) GetPayload(blockHash common.Hash) (*execution.ExecutionPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payloads[blockHash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Copy(), nil
}

func (m *Store) HasPayload(blockHash common.Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.payloads[blockHash]
	return ok, nil
}

func (m *Store) BlockHashes() ([]common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hashes := make([]common.Hash, 0, len(m.payloads))
	for h := range m.payloads {
		hashes = append(hashes, h)
	}
	slices.SortFunc(hashes, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })
	return hashes, nil
}

func (m *Store) Close() error { return nil }
