// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package metered

import (
	"fmt"
	"math"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/common"
)

// ErrOutOfGas is reported when an access would exceed the gas limit. After
// running out of gas the invocation has to be aborted.
const ErrOutOfGas = common.ConstError("out of gas")

// Stats summarizes the host calls performed through a metered storage.
type Stats struct {
	Reads, Writes, Removes uint64
	BytesRead, BytesWritten uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("reads: %d, writes: %d, removes: %d, bytes read: %d, bytes written: %d",
		s.Reads, s.Writes, s.Removes, s.BytesRead, s.BytesWritten)
}

// Storage wraps a backend.Storage charging gas for every access. Once an
// access exceeds the limit, this access and all following accesses fail
// with ErrOutOfGas without reaching the wrapped storage.
type Storage struct {
	storage backend.Storage
	config  Config
	used    uint64
	stats   Stats
}

func NewStorage(storage backend.Storage, config Config) *Storage {
	return &Storage{storage: storage, config: config}
}

func (s *Storage) Get(key []byte) ([]byte, bool, error) {
	if err := s.charge(s.config.ReadBase, len(key), s.config.ReadPerByte); err != nil {
		return nil, false, err
	}
	value, found, err := s.storage.Get(key)
	if err != nil {
		return nil, false, err
	}
	s.stats.Reads++
	s.stats.BytesRead += uint64(len(value))
	if err := s.charge(0, len(value), s.config.ReadPerByte); err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (s *Storage) Contains(key []byte) (bool, error) {
	if err := s.charge(s.config.ReadBase, len(key), s.config.ReadPerByte); err != nil {
		return false, err
	}
	s.stats.Reads++
	return s.storage.Contains(key)
}

func (s *Storage) Set(key, value []byte) ([]byte, bool, error) {
	if err := s.charge(s.config.WriteBase, len(key)+len(value), s.config.WritePerByte); err != nil {
		return nil, false, err
	}
	s.stats.Writes++
	s.stats.BytesWritten += uint64(len(key) + len(value))
	return s.storage.Set(key, value)
}

func (s *Storage) Remove(key []byte) ([]byte, bool, error) {
	if err := s.charge(s.config.RemoveBase, len(key), s.config.WritePerByte); err != nil {
		return nil, false, err
	}
	s.stats.Removes++
	return s.storage.Remove(key)
}

// GasUsed returns the gas consumed so far.
func (s *Storage) GasUsed() uint64 {
	return s.used
}

// Stats returns a summary of the host calls performed so far.
func (s *Storage) Stats() Stats {
	return s.stats
}

// Reset sets the consumed gas and the collected statistics back to zero.
func (s *Storage) Reset() {
	s.used = 0
	s.stats = Stats{}
}

func (s *Storage) charge(base uint64, size int, perByte uint64) error {
	overflow := perByte != 0 && uint64(size) > (math.MaxUint64-base)/perByte
	cost := uint64(math.MaxUint64)
	if !overflow {
		cost = base + uint64(size)*perByte
	}
	total := s.used + cost
	overflow = overflow || total < s.used
	if s.config.GasLimit > 0 && (overflow || total > s.config.GasLimit) {
		s.used = s.config.GasLimit
		return fmt.Errorf("%w: limit of %d exceeded", ErrOutOfGas, s.config.GasLimit)
	}
	if overflow {
		total = math.MaxUint64
	}
	s.used = total
	return nil
}
