package storage

// Backend is a bucketed key-value store. All access goes through
// transactions; bbolt provides real ones, the memory backend emulates them.
type Backend interface {
	// Update runs fn in a read-write transaction
	Update(fn func(tx Tx) error) error
	// View runs fn in a read-only transaction
	View(fn func(tx Tx) error) error

	Close() error
}

// Tx gives access to buckets within a transaction
type Tx interface {
	// Bucket returns nil when the bucket does not exist
	Bucket(name []byte) Bucket
	// CreateBucket is idempotent
	CreateBucket(name []byte) (Bucket, error)
	// DeleteBucket is idempotent
	DeleteBucket(name []byte) error
}

// Bucket provides access to a single bucket within a transaction.
// Values returned by Get are only valid until the transaction ends.
type Bucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error
	// ForEach visits keys in ascending byte order
	ForEach(fn func(k, v []byte) error) error
}
