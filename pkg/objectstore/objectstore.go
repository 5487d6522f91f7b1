// Package objectstore defines the content-addressed store contract
// described in §4.J: put by content, get by the id that put returned, with
// idempotent writes. This package holds only the contract and an in-memory
// reference implementation; every other storage backend (adapters/sqlstore,
// adapters/s3store, adapters/redisstore) implements the same Store
// interface from outside the core.
package objectstore

import (
	"sync"

	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
)

// Store is the object store contract: put_bytes(bytes) -> id, get_bytes(id)
// -> bytes | NotFound, per §4.J. id is always hash_hex(bytes); PutBytes
// returning a different id for the same bytes would be an implementation
// bug, not a valid variation.
type Store interface {
	PutBytes(bytes []byte) (id string, err error)
	GetBytes(id string) ([]byte, error)
}

// MemStore is an in-memory reference Store, primarily useful for tests and
// for a compile/verify round-trip that does not need durability.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

// PutBytes stores bytes keyed by their content hash. Per §4.J, writes are
// idempotent: storing the same bytes twice is a no-op the second time, not
// an error, because id collision implies byte-identity (§5).
func (m *MemStore) PutBytes(bytes []byte) (string, error) {
	id := hashing.HashHex(bytes)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; !exists {
		cp := make([]byte, len(bytes))
		copy(cp, bytes)
		m.objects[id] = cp
	}
	return id, nil
}

// GetBytes returns the bytes stored under id, or NotFound.
func (m *MemStore) GetBytes(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "objectstore.miss", "no object stored for id "+id)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
