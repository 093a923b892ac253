// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Config defines the parameters for opening a LevelDB backed storage.
type Config struct {
	// Path of the directory containing the database files.
	Path string
	// TableSpace the storage of the program is placed in.
	TableSpace backend.TableSpace
	// Options passed to LevelDB, nil for defaults.
	Options *opt.Options
}

// Storage is a backend.Storage implementation keeping program data in a
// LevelDB instance. Modifications are buffered in a batch until Commit is
// called, reads observe buffered modifications. Abort drops the batch, which
// leaves the database in the state of the last commit.
type Storage struct {
	db      backend.LevelDB
	closer  func() error
	table   backend.TableSpace
	batch   *leveldb.Batch
	pending map[string]pendingValue
}

type pendingValue struct {
	value   []byte
	deleted bool
}

// Open opens or creates the LevelDB database configured in the given config.
func Open(config Config) (*Storage, error) {
	db, err := leveldb.OpenFile(config.Path, config.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", config.Path, err)
	}
	storage := NewStorage(db, config.TableSpace)
	storage.closer = db.Close
	return storage, nil
}

// NewStorage creates a storage on top of an already opened database. The
// database remains owned by the caller.
func NewStorage(db backend.LevelDB, table backend.TableSpace) *Storage {
	return &Storage{
		db:      db,
		table:   table,
		batch:   new(leveldb.Batch),
		pending: map[string]pendingValue{},
	}
}

func (s *Storage) Get(key []byte) ([]byte, bool, error) {
	if entry, found := s.pending[string(key)]; found {
		if entry.deleted {
			return nil, false, nil
		}
		return clone(entry.value), true, nil
	}
	value, err := s.db.Get(s.table.ToDBKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key 0x%x: %w", key, err)
	}
	return value, true, nil
}

func (s *Storage) Contains(key []byte) (bool, error) {
	if entry, found := s.pending[string(key)]; found {
		return !entry.deleted, nil
	}
	found, err := s.db.Has(s.table.ToDBKey(key), nil)
	if err != nil {
		return false, fmt.Errorf("failed to check key 0x%x: %w", key, err)
	}
	return found, nil
}

func (s *Storage) Set(key, value []byte) ([]byte, bool, error) {
	previous, found, err := s.Get(key)
	if err != nil {
		return nil, false, err
	}
	value = clone(value)
	s.pending[string(key)] = pendingValue{value: value}
	s.batch.Put(s.table.ToDBKey(key), value)
	return previous, found, nil
}

func (s *Storage) Remove(key []byte) ([]byte, bool, error) {
	previous, found, err := s.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	s.pending[string(key)] = pendingValue{deleted: true}
	s.batch.Delete(s.table.ToDBKey(key))
	return previous, true, nil
}

// Commit writes all buffered modifications to the database atomically.
func (s *Storage) Commit() error {
	if s.batch.Len() > 0 {
		if err := s.db.Write(s.batch, nil); err != nil {
			return fmt.Errorf("failed to commit %d modifications: %w", s.batch.Len(), err)
		}
	}
	s.reset()
	return nil
}

// Abort drops all buffered modifications.
func (s *Storage) Abort() {
	s.reset()
}

// ForEach visits all committed entries of this storage whose key starts with
// the given prefix, in lexicographical key order. Buffered modifications are
// not visited.
func (s *Storage) ForEach(prefix []byte, visit func(key, value []byte) error) error {
	iter := s.db.NewIterator(s.table.Range(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := visit(iter.Key()[1:], iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close aborts pending modifications and closes the database if it was
// opened by this storage.
func (s *Storage) Close() error {
	s.reset()
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Storage) reset() {
	s.batch.Reset()
	s.pending = map[string]pendingValue{}
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	res := make([]byte, len(data))
	copy(res, data)
	return res
}
