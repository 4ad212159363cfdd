package objectdb

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/bulkvcs/bulkvcs/internal/bulkerr"
)

var headBucket = []byte("head")
var headKey = []byte("current")

// HeadStore is the object database's single mutable head pointer, backed
// by bbolt. The snapshot pipeline only ever resolves and fast-forwards one
// head; there is no branch system behind it.
type HeadStore struct {
	db *bbolt.DB
}

// OpenHeadStore opens (creating if necessary) the bbolt file at path.
func OpenHeadStore(path string) (*HeadStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening head store: %w: %w", bulkerr.IO, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(headBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing head bucket: %w: %w", bulkerr.ObjectDB, err)
	}
	return &HeadStore{db: db}, nil
}

// Get returns the current head commit id. It fails with NotFound if no
// head has ever been set.
func (h *HeadStore) Get() (Hash, error) {
	var id Hash
	err := h.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(headBucket).Get(headKey)
		if v == nil {
			return fmt.Errorf("head is unset: %w", bulkerr.NotFound)
		}
		copy(id[:], v)
		return nil
	})
	if err != nil {
		return Hash{}, err
	}
	return id, nil
}

// Set unconditionally sets the head to id, used by "snapshot" on a
// freshly initialized repository that has no prior head.
func (h *HeadStore) Set(id Hash) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(headBucket).Put(headKey, id[:])
	})
}

// FastForward sets the head to newID inside one bbolt transaction, but
// only if the current head still equals oldID -- a compare-and-swap that
// detects a head that moved out from under the Integrator between its
// resolve step and its commit step.
func (h *HeadStore) FastForward(oldID, newID Hash) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(headBucket)
		cur := b.Get(headKey)
		if cur == nil || !bytes.Equal(cur, oldID[:]) {
			return fmt.Errorf("head moved during fast-forward: %w", bulkerr.ObjectDB)
		}
		return b.Put(headKey, newID[:])
	})
}

// Close releases the underlying bbolt handle.
func (h *HeadStore) Close() error {
	return h.db.Close()
}
