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
	"fmt"
	"strconv"

	"github.com/Fantom-foundation/Trove/collections"
	"github.com/Fantom-foundation/Trove/runtime"
	"github.com/urfave/cli/v2"
)

var vectorCommand = cli.Command{
	Name:  "vector",
	Usage: "inspects and modifies a vector of strings",
	Flags: []cli.Flag{
		&nameFlag,
	},
	Subcommands: []*cli.Command{
		{
			Name:      "push",
			Usage:     "appends the given values",
			ArgsUsage: "<value>...",
			Action: withVector(func(vector *collections.Vector[string], args cli.Args) error {
				return vector.Extend(args.Slice()...)
			}),
		},
		{
			Name:      "get",
			Usage:     "prints the value at the given index",
			ArgsUsage: "<index>",
			Action: withVector(func(vector *collections.Vector[string], args cli.Args) error {
				index, err := parseIndex(args)
				if err != nil {
					return err
				}
				value, err := vector.Get(index)
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			}),
		},
		{
			Name:  "pop",
			Usage: "removes and prints the last value",
			Action: withVector(func(vector *collections.Vector[string], _ cli.Args) error {
				value, err := vector.Pop()
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			}),
		},
		{
			Name:  "list",
			Usage: "prints all values in index order",
			Action: withVector(func(vector *collections.Vector[string], _ cli.Args) error {
				it := vector.Iter()
				for i := 0; it.Next(); i++ {
					fmt.Printf("%d: %s\n", i, it.Value())
				}
				return it.Err()
			}),
		},
		{
			Name:  "len",
			Usage: "prints the number of values",
			Action: withVector(func(vector *collections.Vector[string], _ cli.Args) error {
				length, err := vector.Len()
				if err != nil {
					return err
				}
				fmt.Println(length)
				return nil
			}),
		},
	},
}

func withVector(action func(*collections.Vector[string], cli.Args) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		valueCodec, err := stringCodec(ctx)
		if err != nil {
			return err
		}
		prefix := []byte(ctx.String(nameFlag.Name))
		return run(ctx, func(_ context.Context, inv *runtime.Invocation) error {
			vector := collections.NewVector[string](inv.Storage(), prefix, valueCodec)
			inv.Register(vector)
			return action(vector, ctx.Args())
		})
	}
}

func parseIndex(args cli.Args) (uint64, error) {
	if args.Len() != 1 {
		return 0, fmt.Errorf("expected a single index, got %d arguments", args.Len())
	}
	index, err := strconv.ParseUint(args.First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", args.First(), err)
	}
	return index, nil
}
