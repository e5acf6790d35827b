package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendTestSuite runs the same checks against any Backend implementation
func backendTestSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("CreateBucket", func(t *testing.T) {
		backend := newBackend(t)

		require.NoError(t, backend.Update(func(tx Tx) error {
			_, err := tx.CreateBucket([]byte("runs"))
			return err
		}))

		// Idempotent
		require.NoError(t, backend.Update(func(tx Tx) error {
			_, err := tx.CreateBucket([]byte("runs"))
			return err
		}))

		require.NoError(t, backend.View(func(tx Tx) error {
			assert.NotNil(t, tx.Bucket([]byte("runs")))
			assert.Nil(t, tx.Bucket([]byte("missing")))
			return nil
		}))
	})

	t.Run("DeleteBucket", func(t *testing.T) {
		backend := newBackend(t)

		require.NoError(t, backend.Update(func(tx Tx) error {
			if _, err := tx.CreateBucket([]byte("runs")); err != nil {
				return err
			}
			if err := tx.DeleteBucket([]byte("runs")); err != nil {
				return err
			}
			// Idempotent
			return tx.DeleteBucket([]byte("runs"))
		}))

		require.NoError(t, backend.View(func(tx Tx) error {
			assert.Nil(t, tx.Bucket([]byte("runs")))
			return nil
		}))
	})

	t.Run("PutGetDelete", func(t *testing.T) {
		backend := newBackend(t)

		require.NoError(t, backend.Update(func(tx Tx) error {
			b, err := tx.CreateBucket([]byte("runs"))
			if err != nil {
				return err
			}
			return b.Put([]byte("key1"), []byte("value1"))
		}))

		require.NoError(t, backend.View(func(tx Tx) error {
			b := tx.Bucket([]byte("runs"))
			assert.Equal(t, []byte("value1"), b.Get([]byte("key1")))
			assert.Nil(t, b.Get([]byte("nonexistent")))
			return nil
		}))

		require.NoError(t, backend.Update(func(tx Tx) error {
			return tx.Bucket([]byte("runs")).Delete([]byte("key1"))
		}))

		require.NoError(t, backend.View(func(tx Tx) error {
			assert.Nil(t, tx.Bucket([]byte("runs")).Get([]byte("key1")))
			return nil
		}))
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		backend := newBackend(t)

		require.NoError(t, backend.Update(func(tx Tx) error {
			b, err := tx.CreateBucket([]byte("runs"))
			if err != nil {
				return err
			}
			for _, k := range []string{"c", "a", "b"} {
				if err := b.Put([]byte(k), []byte("v"+k)); err != nil {
					return err
				}
			}
			return nil
		}))

		var keys []string
		require.NoError(t, backend.View(func(tx Tx) error {
			return tx.Bucket([]byte("runs")).ForEach(func(k, v []byte) error {
				keys = append(keys, string(k))
				assert.Equal(t, "v"+string(k), string(v))
				return nil
			})
		}))
		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("UpdateError", func(t *testing.T) {
		backend := newBackend(t)
		boom := errors.New("boom")

		err := backend.Update(func(tx Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("JSON", func(t *testing.T) {
		backend := newBackend(t)

		type payload struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		}

		require.NoError(t, backend.Update(func(tx Tx) error {
			b, err := tx.CreateBucket([]byte("runs"))
			if err != nil {
				return err
			}
			return PutJSON(b, []byte("p"), payload{Name: "Hamburg", Value: 12.5})
		}))

		require.NoError(t, backend.View(func(tx Tx) error {
			var got payload
			found, err := GetJSON(tx.Bucket([]byte("runs")), []byte("p"), &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, payload{Name: "Hamburg", Value: 12.5}, got)

			found, err = GetJSON(tx.Bucket([]byte("runs")), []byte("missing"), &got)
			require.NoError(t, err)
			assert.False(t, found)
			return nil
		}))
	})
}
