package pebble

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/eigerco/slashing/pkg/db"
)

var _ db.KVStore = (*KVStore)(nil)

// KVStore is a db.KVStore backed by a pebble database.
type KVStore struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
}

type options struct {
	path      string
	cacheSize int64
}

// Option configures NewKVStore.
type Option func(*options)

// WithPath persists the store in the given directory. Without it the store
// lives in memory.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithCacheSize sets the block cache size in bytes.
func WithCacheSize(size int64) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// NewKVStore opens a pebble store. An in-memory filesystem is used unless
// WithPath is given.
func NewKVStore(opts ...Option) (*KVStore, error) {
	o := options{cacheSize: 64 * 1024 * 1024} // 64MB
	for _, opt := range opts {
		opt(&o)
	}

	cache := pebble.NewCache(o.cacheSize)
	defer cache.Unref()

	pebbleOpts := &pebble.Options{
		Cache:                       cache,
		MemTableSize:                32 * 1024 * 1024,  // 32MB
		MemTableStopWritesThreshold: 4,
	}
	if o.path == "" {
		pebbleOpts.FS = vfs.NewMem()
	}

	pdb, err := pebble.Open(o.path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	return &KVStore{db: pdb}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
