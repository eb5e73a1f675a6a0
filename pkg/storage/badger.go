package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger keeps snapshots in a local BadgerDB instance, one key per slot.
type Badger struct {
	db *badger.DB
}

// Open opens (or creates) a Badger-backed snapshotter at dir.
func Open(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: can't open badger at %s: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

// OpenInMemory opens a non-persistent instance, used in tests.
func OpenInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: can't open in-memory badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Save(slot string, state interface{}) error {
	data, err := seal(state)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(slot), data)
	})
	if err != nil {
		return fmt.Errorf("storage: can't save slot %q: %w", slot, err)
	}
	return nil
}

func (b *Badger) Load(slot string, state interface{}) (bool, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(slot))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: can't load slot %q: %w", slot, err)
	}
	return true, unseal(data, state)
}

func (b *Badger) Close() error {
	return b.db.Close()
}
