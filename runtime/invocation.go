// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package runtime binds collections to a single invocation of a program. An
// invocation reads and writes the host storage through an optional gas
// meter, flushes the collections registered with it once the program
// succeeded, and commits or discards the modifications as a whole.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/backend/metered"
	"github.com/Fantom-foundation/Trove/common"
)

// ErrInvocationFinished is reported when Run is called on an invocation that
// already ran.
const ErrInvocationFinished = common.ConstError("invocation already finished")

// Host is the storage of the host, buffering the modifications of an
// invocation until they are committed.
type Host interface {
	backend.Storage
	backend.Committer
}

// Flusher is implemented by collections holding modifications in memory.
type Flusher interface {
	Flush() error
}

// Config defines the metering and logging of an invocation.
type Config struct {
	// Gas metering applied to host accesses. Nil disables metering.
	Meter *metered.Config
	// Logger receiving invocation results. Nil uses slog.Default().
	Logger *slog.Logger
}

// Invocation is a single run-to-completion execution against a host.
type Invocation struct {
	host     Host
	storage  backend.Storage
	meter    *metered.Storage
	logger   *slog.Logger
	flushers []Flusher
	finished bool
}

func NewInvocation(host Host, config Config) *Invocation {
	res := &Invocation{
		host:    host,
		storage: host,
		logger:  config.Logger,
	}
	if res.logger == nil {
		res.logger = slog.Default()
	}
	if config.Meter != nil {
		res.meter = metered.NewStorage(host, *config.Meter)
		res.storage = res.meter
	}
	return res
}

// Storage returns the storage collections of this invocation are to be
// bound to.
func (i *Invocation) Storage() backend.Storage {
	return i.storage
}

// Register adds a collection to be flushed before the invocation commits.
// Collections are flushed in registration order.
func (i *Invocation) Register(flushers ...Flusher) {
	i.flushers = append(i.flushers, flushers...)
}

// GasUsed returns the gas consumed so far, 0 if metering is disabled.
func (i *Invocation) GasUsed() uint64 {
	if i.meter == nil {
		return 0
	}
	return i.meter.GasUsed()
}

// Run executes the given program. If the program and all flushes succeed,
// the modifications are committed. Otherwise, including when the context
// got cancelled, all modifications are discarded and the error is returned.
// An invocation can only be run once.
func (i *Invocation) Run(ctx context.Context, program func(ctx context.Context, inv *Invocation) error) error {
	if i.finished {
		return ErrInvocationFinished
	}
	i.finished = true

	err := program(ctx, i)
	if err == nil {
		err = i.flush()
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		i.host.Abort()
		i.logger.Warn("invocation aborted", "error", err, "gas", i.GasUsed(), "stats", i.stats())
		return err
	}
	if err := i.host.Commit(); err != nil {
		i.host.Abort()
		return fmt.Errorf("failed to commit invocation: %w", err)
	}
	i.logger.Debug("invocation committed", "gas", i.GasUsed(), "stats", i.stats())
	return nil
}

func (i *Invocation) flush() error {
	errs := []error{}
	for _, flusher := range i.flushers {
		if err := flusher.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (i *Invocation) stats() string {
	if i.meter == nil {
		return "unmetered"
	}
	return i.meter.Stats().String()
}
