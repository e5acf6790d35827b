package storage

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// lockTimeout bounds how long Open waits for another process to release the file lock
const lockTimeout = time.Second

// BboltBackend keeps every bucket in one bbolt file. Transactions map one to
// one onto bbolt transactions.
type BboltBackend struct {
	db *bolt.DB
}

// NewBboltBackend opens dbPath, creating the file when it does not exist
func NewBboltBackend(dbPath string) (*BboltBackend, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	return &BboltBackend{db: db}, nil
}

func (b *BboltBackend) Update(fn func(tx Tx) error) error { return b.db.Update(adapt(fn)) }
func (b *BboltBackend) View(fn func(tx Tx) error) error { return b.db.View(adapt(fn)) }
func (b *BboltBackend) Close() error { return b.db.Close() }

func adapt(fn func(tx Tx) error) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error { return fn(boltTx{tx}) }
}

// boltTx exposes a bolt.Tx as a Tx. Bolt buckets already satisfy Bucket.
type boltTx struct {
	*bolt.Tx
}

func (t boltTx) Bucket(name []byte) Bucket {
	if b := t.Tx.Bucket(name); b != nil {
		return b
	}
	return nil
}

func (t boltTx) CreateBucket(name []byte) (Bucket, error) {
	b, err := t.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, fmt.Errorf("create bucket %q: %w", name, err)
	}
	return b, nil
}

func (t boltTx) DeleteBucket(name []byte) error {
	if err := t.Tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return fmt.Errorf("delete bucket %q: %w", name, err)
	}
	return nil
}
