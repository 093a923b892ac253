// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Trove/backend"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// See https://www.sqlite.org/pragma.html
	kConfigureConnection = []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA locking_mode = EXCLUSIVE",
	}
)

const (
	kCreateStorageTable = "CREATE TABLE IF NOT EXISTS storage (space INT, key BLOB, value BLOB, PRIMARY KEY (space, key))"
	kGetValueStmt       = "SELECT value FROM storage WHERE space = ? AND key = ?"
	kSetValueStmt       = "INSERT OR REPLACE INTO storage(space, key, value) VALUES (?,?,?)"
	kRemoveValueStmt    = "DELETE FROM storage WHERE space = ? AND key = ?"
	kCountValuesStmt    = "SELECT COUNT(*) FROM storage WHERE space = ?"
)

// Storage is a backend.Storage implementation keeping program data in a
// SQLite database. All modifications of an invocation are performed in a
// single SQL transaction, started by the first modification and ended by
// Commit or Abort.
type Storage struct {
	db          *sql.DB
	space       backend.TableSpace
	tx          *sql.Tx
	getValue    *sql.Stmt
	setValue    *sql.Stmt
	removeValue *sql.Stmt
	countValues *sql.Stmt
}

// Open opens or creates the SQLite database in the given file. The returned
// storage operates on the given table space only.
func Open(file string, space backend.TableSpace) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+file)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite; %w", err)
	}
	// a single connection is required for transactions to observe their own writes
	db.SetMaxOpenConns(1)
	for _, cmd := range kConfigureConnection {
		if _, err := db.Exec(cmd); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to configure connection with %s; %w", cmd, err), db.Close())
		}
	}
	if _, err := db.Exec(kCreateStorageTable); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create storage table; %w", err), db.Close())
	}

	stmts := make([]*sql.Stmt, 0, 4)
	for _, query := range []string{kGetValueStmt, kSetValueStmt, kRemoveValueStmt, kCountValuesStmt} {
		stmt, err := db.Prepare(query)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to prepare %s; %w", query, err), db.Close())
		}
		stmts = append(stmts, stmt)
	}

	return &Storage{
		db:          db,
		space:       space,
		getValue:    stmts[0],
		setValue:    stmts[1],
		removeValue: stmts[2],
		countValues: stmts[3],
	}, nil
}

func (s *Storage) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := s.stmt(s.getValue).QueryRow(int(s.space), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key 0x%x; %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (s *Storage) Contains(key []byte) (bool, error) {
	_, found, err := s.Get(key)
	return found, err
}

func (s *Storage) Set(key, value []byte) ([]byte, bool, error) {
	previous, found, err := s.Get(key)
	if err != nil {
		return nil, false, err
	}
	if err := s.begin(); err != nil {
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.stmt(s.setValue).Exec(int(s.space), key, value); err != nil {
		return nil, false, fmt.Errorf("failed to write key 0x%x; %w", key, err)
	}
	return previous, found, nil
}

func (s *Storage) Remove(key []byte) ([]byte, bool, error) {
	previous, found, err := s.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := s.begin(); err != nil {
		return nil, false, err
	}
	if _, err := s.stmt(s.removeValue).Exec(int(s.space), key); err != nil {
		return nil, false, fmt.Errorf("failed to remove key 0x%x; %w", key, err)
	}
	return previous, true, nil
}

// Len returns the number of keys stored in the table space of this storage.
func (s *Storage) Len() (int, error) {
	var count int
	if err := s.stmt(s.countValues).QueryRow(int(s.space)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count keys; %w", err)
	}
	return count, nil
}

// Commit ends the transaction of the current invocation, making its
// modifications durable.
func (s *Storage) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction; %w", err)
	}
	return nil
}

// Abort rolls back the transaction of the current invocation.
func (s *Storage) Abort() {
	if s.tx == nil {
		return
	}
	_ = s.tx.Rollback()
	s.tx = nil
}

func (s *Storage) Close() error {
	s.Abort()
	return errors.Join(
		s.getValue.Close(),
		s.setValue.Close(),
		s.removeValue.Close(),
		s.countValues.Close(),
		s.db.Close(),
	)
}

func (s *Storage) begin() error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction; %w", err)
	}
	s.tx = tx
	return nil
}

// stmt binds the given prepared statement to the running transaction, if any.
func (s *Storage) stmt(stmt *sql.Stmt) *sql.Stmt {
	if s.tx == nil {
		return stmt
	}
	return s.tx.Stmt(stmt)
}
