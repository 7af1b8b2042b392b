// Package store persists value tables as opaque blobs under well known keys.
package store

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/netrixframework/qlearn/config"
	"github.com/netrixframework/qlearn/types"
)

var (
	// ErrNotFound is returned by Get when nothing is stored under the key
	ErrNotFound = errors.New("key not found")
	// ErrInvalidKey is returned for keys that cannot be used as identifiers
	ErrInvalidKey = errors.New("invalid key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store is a blob store. Put fully replaces any previous value and either
// succeeds completely or leaves the previous value visible.
type Store interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
}

// New creates the store selected by the config
func New(c config.StoreConfig) (Store, error) {
	switch c.Backend {
	case "file", "":
		return NewFileStore(c.Dir)
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(c.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// MemoryStore keeps blobs in memory. Values are copied in and out so
// callers cannot mutate what is stored.
type MemoryStore struct {
	blobs *types.Map[string, []byte]
}

var _ Store = &MemoryStore{}

// NewMemoryStore instantiates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: types.NewMap[string, []byte](),
	}
}

func (m *MemoryStore) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.blobs.Add(key, append(make([]byte, 0, len(data)), data...))
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, ok := m.blobs.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append(make([]byte, 0, len(data)), data...), nil
}

// Keys lists the stored keys in ascending order
func (m *MemoryStore) Keys() []string {
	return m.blobs.Keys()
}
