// Package persistent implements the Persistent storage class on top of
// go.etcd.io/bbolt: a single-writer embedded key-value store addressed by
// (table_name, id_bytes), with one bucket per table.
package persistent

import (
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/eclipse-opendut/opendut-carl/pkg/resource/storage"
)

// Store owns the single *bolt.DB file used by every Persistent entity type.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open persistent store: %#v", path)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Opener returns a storage.Opener that hands out a Backing scoped to a named
// bucket in the shared bbolt file.
func (s *Store) Opener() storage.Opener {
	return func(tableName string) (storage.Backing, error) {
		bucket := []byte(tableName)
		err := s.db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucket)
			return err
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create table: %#v", tableName)
		}
		return &Backing{db: s.db, bucket: bucket}, nil
	}
}

type Backing struct {
	db     *bolt.DB
	bucket []byte
}

func (b *Backing) Get(id [16]byte) (data []byte, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get(id[:])
		if v == nil {
			return storage.ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *Backing) Set(id [16]byte, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put(id[:], data)
	})
}

func (b *Backing) Delete(id [16]byte) (prior []byte, err error) {
	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		v := bucket.Get(id[:])
		if v == nil {
			return storage.ErrNotFound
		}
		prior = append([]byte(nil), v...)
		return bucket.Delete(id[:])
	})
	return prior, err
}

func (b *Backing) List() (map[[16]byte][]byte, error) {
	out := make(map[[16]byte][]byte)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(k, v []byte) error {
			var id [16]byte
			copy(id[:], k)
			out[id] = append([]byte(nil), v...)
			return nil
		})
	})
	return out, err
}

// Close is a no-op per-table: the underlying *bolt.DB is owned and closed by
// Store, since every Persistent table shares one file handle.
func (b *Backing) Close() error { return nil }
