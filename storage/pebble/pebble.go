// Package pebble is a storage.PayloadStore backed by a pebble database.
package pebble

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geanlabs/beaconcore/execution"
	"github.com/geanlabs/beaconcore/params"
	"github.com/geanlabs/beaconcore/storage"
)

// payloadPrefix namespaces payload keys: prefix ‖ block hash.
var payloadPrefix = []byte("payload/")

// Config holds configuration for opening a store.
type Config struct {
	// Path is the database directory.
	Path string
	Spec *params.ChainSpec
	// FS overrides the filesystem. Tests use vfs.NewMem().
	FS     vfs.FS
	Logger *slog.Logger
}

// Store persists payloads as fork byte ‖ SSZ bytes.
type Store struct {
	db     *pebble.DB
	spec   *params.ChainSpec
	logger *slog.Logger
}

var _ storage.PayloadStore = (*Store)(nil)

// Open opens or creates the database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Spec == nil {
		return nil, errors.New("pebble store needs a chain spec")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := &pebble.Options{}
	if cfg.FS != nil {
		opts.FS = cfg.FS
	}
	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", cfg.Path, err)
	}
	logger.Info("opened payload store", "path", cfg.Path)
	return &Store{db: db, spec: cfg.Spec, logger: logger}, nil
}

func payloadKey(blockHash common.Hash) []byte {
	key := make([]byte, 0, len(payloadPrefix)+common.HashLength)
	key = append(key, payloadPrefix...)
	return append(key, blockHash[:]...)
}

func (s *Store) PutPayload(blockHash common.Hash, payload *execution.ExecutionPayload) error {
	value, err := storage.EncodePayload(payload, s.spec)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", blockHash, err)
	}
	if err := s.db.Set(payloadKey(blockHash), value, pebble.Sync); err != nil {
		return fmt.Errorf("put payload %s: %w", blockHash, err)
	}
	s.logger.Debug("stored payload",
		"block_hash", blockHash,
		"fork", payload.ForkName(),
		"size", len(value),
	)
	return nil
}

func (s *Store) GetPayload(blockHash common.Hash) (*execution.ExecutionPayload, error) {
	value, closer, err := s.db.Get(payloadKey(blockHash))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payload %s: %w", blockHash, err)
	}
	defer closer.Close()

	payload, err := storage.DecodePayload(value, s.spec)
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", blockHash, err)
	}
	return payload, nil
}

func (s *Store) HasPayload(blockHash common.Hash) (bool, error) {
	_, closer, err := s.db.Get(payloadKey(blockHash))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get payload %s: %w", blockHash, err)
	}
	closer.Close()
	return true, nil
}

func (s *Store) BlockHashes() ([]common.Hash, error) {
	upper := append([]byte{}, payloadPrefix...)
	upper[len(upper)-1]++
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: payloadPrefix, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate payloads: %w", err)
	}
	defer iter.Close()

	var hashes []common.Hash
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != len(payloadPrefix)+common.HashLength {
			s.logger.Warn("skipping malformed payload key", "key", fmt.Sprintf("%x", key))
			continue
		}
		hashes = append(hashes, common.BytesToHash(key[len(payloadPrefix):]))
	}
	return hashes, iter.Error()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
