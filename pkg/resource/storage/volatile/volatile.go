// Package volatile implements the Volatile storage class: an in-process
// map that does not survive restart, used for entities that are recomputed
// or renegotiated on every start (peer configuration, connection state).
package volatile

import (
	"sync"

	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage"
)

type Backing struct {
	mu   sync.RWMutex
	data map[[16]byte][]byte
}

func NewOpener() storage.Opener {
	return func(tableName string) (storage.Backing, error) {
		return New(), nil
	}
}

func New() *Backing {
	return &Backing{data: make(map[[16]byte][]byte)}
}

func (b *Backing) Get(id [16]byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (b *Backing) Set(id [16]byte, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.data[id] = cp
	return nil
}

func (b *Backing) Delete(id [16]byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(b.data, id)
	return v, nil
}

func (b *Backing) List() (map[[16]byte][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[[16]byte][]byte, len(b.data))
	for k, v := range b.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}

func (b *Backing) Close() error { return nil }
