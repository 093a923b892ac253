// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/Fantom-foundation/Trove/backend"
	"github.com/Fantom-foundation/Trove/backend/ldb"
	"github.com/Fantom-foundation/Trove/backend/metered"
	"github.com/Fantom-foundation/Trove/backend/sqlite"
	"github.com/Fantom-foundation/Trove/common/codec"
	"github.com/Fantom-foundation/Trove/runtime"
	"github.com/urfave/cli/v2"
)

var (
	dbPathFlag = cli.StringFlag{
		Name:     "db",
		Usage:    "the database directory (leveldb) or file (sqlite)",
		Required: true,
	}
	backendFlag = cli.StringFlag{
		Name:  "backend",
		Usage: "the database implementation, leveldb or sqlite",
		Value: "leveldb",
	}
	codecFlag = cli.StringFlag{
		Name:  "codec",
		Usage: "the encoding of stored keys and values, rlp or cbor",
		Value: "rlp",
	}
	gasFlag = cli.StringFlag{
		Name:  "gas",
		Usage: "the gas metering configuration, empty to disable metering",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enables debug logging",
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
	nameFlag = cli.StringFlag{
		Name:     "name",
		Usage:    "the name of the collection, used as its key prefix",
		Required: true,
	}
)

type host interface {
	runtime.Host
	io.Closer
}

// openHost opens the database selected by the command line flags.
func openHost(ctx *cli.Context) (host, error) {
	path := ctx.String(dbPathFlag.Name)
	switch kind := ctx.String(backendFlag.Name); kind {
	case "leveldb":
		db, err := ldb.Open(ldb.Config{Path: path, TableSpace: backend.ProgramStorageKey})
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		db, err := sqlite.Open(path, backend.ProgramStorageKey)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func stringCodec(ctx *cli.Context) (codec.Codec[string], error) {
	switch name := ctx.String(codecFlag.Name); name {
	case "rlp":
		return codec.RLP[string]{}, nil
	case "cbor":
		return codec.CBOR[string]{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func newLogger(ctx *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if ctx.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// run executes the given operation as a single invocation on the selected
// database. Modifications are committed if the operation succeeds.
func run(ctx *cli.Context, operation func(ctx context.Context, inv *runtime.Invocation) error) (err error) {
	config := runtime.Config{Logger: newLogger(ctx)}
	if name := ctx.String(gasFlag.Name); name != "" {
		meter, found := metered.GetConfigByName(name)
		if !found {
			return fmt.Errorf("unknown gas configuration %q", name)
		}
		config.Meter = &meter
	}

	db, err := openHost(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	inv := runtime.NewInvocation(db, config)
	if err := inv.Run(ctx.Context, operation); err != nil {
		return err
	}
	if config.Meter != nil {
		config.Logger.Info("gas consumed", "gas", inv.GasUsed(), "config", config.Meter.Name)
	}
	return nil
}

func startProfiling(ctx *cli.Context) error {
	profileName := ctx.String(cpuProfilingFlag.Name)
	if len(profileName) == 0 {
		return nil
	}
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func stopProfiling(ctx *cli.Context) error {
	if len(ctx.String(cpuProfilingFlag.Name)) != 0 {
		pprof.StopCPUProfile()
	}
	return nil
}
