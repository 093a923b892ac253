// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package runtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Fantom-foundation/Trove/backend/memory"
	"github.com/Fantom-foundation/Trove/backend/metered"
	"github.com/Fantom-foundation/Trove/collections"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/common/codec"
)

func newTree(inv *Invocation) *collections.TreeMap[uint64, string] {
	tree := collections.NewTreeMap[uint64, string](inv.Storage(), []byte("t"), common.OrderedComparator[uint64]{}, codec.Uint64{}, codec.RLP[string]{})
	inv.Register(tree)
	return tree
}

func TestInvocation_SuccessfulRunFlushesAndCommits(t *testing.T) {
	host := memory.NewStorage()
	err := NewInvocation(host, Config{}).Run(context.Background(), func(_ context.Context, inv *Invocation) error {
		tree := newTree(inv)
		for _, key := range []uint64{3, 1, 2} {
			if _, _, err := tree.Insert(key, "x"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("invocation failed: %v", err)
	}

	// the next invocation sees the committed tree
	err = NewInvocation(host, Config{}).Run(context.Background(), func(_ context.Context, inv *Invocation) error {
		tree := newTree(inv)
		length, err := tree.Len()
		if err != nil {
			return err
		}
		if length != 3 {
			t.Errorf("unexpected length, wanted 3, got %d", length)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("invocation failed: %v", err)
	}
}

func TestInvocation_FailedRunDiscardsAllWrites(t *testing.T) {
	host := memory.NewStorage()
	injected := errors.New("injected")
	err := NewInvocation(host, Config{}).Run(context.Background(), func(_ context.Context, inv *Invocation) error {
		vector := collections.NewVector[string](inv.Storage(), []byte("v"), codec.RLP[string]{})
		if err := vector.Extend("a", "b"); err != nil {
			return err
		}
		return injected
	})
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if host.Len() != 0 {
		t.Errorf("failed invocation should not leave entries behind, found %d", host.Len())
	}
}

func TestInvocation_RunningOutOfGasDiscardsAllWrites(t *testing.T) {
	host := memory.NewStorage()
	config := metered.Config{GasLimit: 10, ReadBase: 1, WriteBase: 1, RemoveBase: 1}
	inv := NewInvocation(host, Config{Meter: &config})
	err := inv.Run(context.Background(), func(_ context.Context, inv *Invocation) error {
		vector := collections.NewVector[uint64](inv.Storage(), []byte("v"), codec.Uint64{})
		for i := uint64(0); i < 100; i++ {
			if err := vector.Push(i); err != nil {
				return err
			}
		}
		return nil
	})
	if !errors.Is(err, metered.ErrOutOfGas) {
		t.Fatalf("expected out of gas, got %v", err)
	}
	if inv.GasUsed() != config.GasLimit {
		t.Errorf("unexpected gas usage, wanted %d, got %d", config.GasLimit, inv.GasUsed())
	}
	if host.Len() != 0 {
		t.Errorf("failed invocation should not leave entries behind, found %d", host.Len())
	}
}

func TestInvocation_CancelledContextDiscardsAllWrites(t *testing.T) {
	host := memory.NewStorage()
	ctx, cancel := context.WithCancel(context.Background())
	err := NewInvocation(host, Config{}).Run(ctx, func(_ context.Context, inv *Invocation) error {
		set := collections.NewLookupSet[string](inv.Storage(), []byte("s"), codec.RLP[string]{})
		if _, err := set.Insert("a"); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if host.Len() != 0 {
		t.Errorf("cancelled invocation should not leave entries behind, found %d", host.Len())
	}
}

func TestInvocation_CanOnlyBeRunOnce(t *testing.T) {
	inv := NewInvocation(memory.NewStorage(), Config{})
	noop := func(context.Context, *Invocation) error { return nil }
	if err := inv.Run(context.Background(), noop); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := inv.Run(context.Background(), noop); !errors.Is(err, ErrInvocationFinished) {
		t.Errorf("expected finished invocation error, got %v", err)
	}
}

func TestInvocation_LogsAbortedInvocations(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))
	injected := errors.New("injected")
	inv := NewInvocation(memory.NewStorage(), Config{Logger: logger})
	if err := inv.Run(context.Background(), func(context.Context, *Invocation) error { return injected }); !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if !bytes.Contains(buffer.Bytes(), []byte("invocation aborted")) || !bytes.Contains(buffer.Bytes(), []byte("injected")) {
		t.Errorf("unexpected log output: %s", buffer.String())
	}
}
