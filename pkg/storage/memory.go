package storage

import (
	"errors"
	"slices"
	"sync"
)

// ErrReadOnly is returned for writes inside a View transaction
var ErrReadOnly = errors.New("write in read-only transaction")

// MemoryBackend implements Backend with in-memory maps (not persistent).
// Transactions are serialized but a failed Update is not rolled back.
type MemoryBackend struct {
	buckets map[string]map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets: make(map[string]map[string][]byte),
	}
}

func (m *MemoryBackend) Update(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(&memoryTx{backend: m, writable: true})
}

func (m *MemoryBackend) View(fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(&memoryTx{backend: m})
}

func (m *MemoryBackend) Close() error {
	return nil
}

// memoryTx runs with the backend lock already held
type memoryTx struct {
	backend  *MemoryBackend
	writable bool
}

func (t *memoryTx) Bucket(name []byte) Bucket {
	data, ok := t.backend.buckets[string(name)]
	if !ok {
		return nil
	}
	return &memoryBucket{data: data, writable: t.writable}
}

func (t *memoryTx) CreateBucket(name []byte) (Bucket, error) {
	if !t.writable {
		return nil, ErrReadOnly
	}
	data, ok := t.backend.buckets[string(name)]
	if !ok {
		data = make(map[string][]byte)
		t.backend.buckets[string(name)] = data
	}
	return &memoryBucket{data: data, writable: true}, nil
}

func (t *memoryTx) DeleteBucket(name []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	delete(t.backend.buckets, string(name))
	return nil
}

type memoryBucket struct {
	data     map[string][]byte
	writable bool
}

func (b *memoryBucket) Get(key []byte) []byte {
	return b.data[string(key)]
}

func (b *memoryBucket) Put(key, value []byte) error {
	if !b.writable {
		return ErrReadOnly
	}
	// Copy the value since the caller may reuse its buffer
	b.data[string(key)] = slices.Clone(value)
	return nil
}

func (b *memoryBucket) Delete(key []byte) error {
	if !b.writable {
		return ErrReadOnly
	}
	delete(b.data, string(key))
	return nil
}

func (b *memoryBucket) ForEach(fn func(k, v []byte) error) error {
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if err := fn([]byte(k), b.data[k]); err != nil {
			return err
		}
	}
	return nil
}
