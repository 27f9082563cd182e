// Package kvstore holds the small badger helpers shared by the embedded repositories:
// zero-padded ordered keys, per-collection sequences and prefix scans.
package kvstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Key builds an ordered key such as "msg:00000000000000000042".
// Zero padding keeps lexicographic and numeric order identical.
func Key(prefix string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefix, id))
}

// ReadSequence returns the last value stored under key, or 0 when absent.
func ReadSequence(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt sequence %s: %d bytes", key, len(val))
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	})
	return seq, err
}

// WriteSequence stores seq under key inside txn.
func WriteSequence(txn *badger.Txn, key []byte, seq uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return txn.Set(key, buf)
}

// ScanPrefix calls fn with the value of every key under prefix, in key order.
func ScanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a single value into fn. It returns badger.ErrKeyNotFound when absent.
func Get(txn *badger.Txn, key []byte, fn func(val []byte) error) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(fn)
}
