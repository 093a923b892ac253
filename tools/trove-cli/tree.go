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

	"github.com/Fantom-foundation/Trove/collections"
	"github.com/Fantom-foundation/Trove/common"
	"github.com/Fantom-foundation/Trove/runtime"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "the lower end of the range, unbounded if not set",
	}
	toFlag = cli.StringFlag{
		Name:  "to",
		Usage: "the upper end of the range, unbounded if not set",
	}
	inclusiveFlag = cli.BoolFlag{
		Name:  "inclusive",
		Usage: "includes the upper end in the range",
	}
	reverseFlag = cli.BoolFlag{
		Name:  "reverse",
		Usage: "lists unbounded ranges in descending order",
	}
)

var treeCommand = cli.Command{
	Name:  "tree",
	Usage: "inspects and modifies an ordered map from strings to strings",
	Flags: []cli.Flag{
		&nameFlag,
	},
	Subcommands: []*cli.Command{
		{
			Name:      "put",
			Usage:     "associates the value to the key",
			ArgsUsage: "<key> <value>",
			Action: withTree(func(tree *collections.TreeMap[string, string], ctx *cli.Context) error {
				args := ctx.Args()
				if args.Len() != 2 {
					return fmt.Errorf("expected a key and a value, got %d arguments", args.Len())
				}
				previous, found, err := tree.Insert(args.Get(0), args.Get(1))
				if err != nil {
					return err
				}
				if found {
					fmt.Printf("replaced %s\n", previous)
				}
				return nil
			}),
		},
		{
			Name:      "get",
			Usage:     "prints the value of the key",
			ArgsUsage: "<key>",
			Action: withTree(func(tree *collections.TreeMap[string, string], ctx *cli.Context) error {
				key, err := singleKey(ctx.Args())
				if err != nil {
					return err
				}
				value, found, err := tree.Get(key)
				if err != nil {
					return err
				}
				printOptional(value, found)
				return nil
			}),
		},
		{
			Name:      "del",
			Usage:     "removes the key and prints its value",
			ArgsUsage: "<key>",
			Action: withTree(func(tree *collections.TreeMap[string, string], ctx *cli.Context) error {
				key, err := singleKey(ctx.Args())
				if err != nil {
					return err
				}
				value, found, err := tree.Remove(key)
				if err != nil {
					return err
				}
				printOptional(value, found)
				return nil
			}),
		},
		{
			Name:  "range",
			Usage: "prints the entries in the given key range in order",
			Flags: []cli.Flag{
				&fromFlag,
				&toFlag,
				&inclusiveFlag,
				&reverseFlag,
			},
			Action: withTree(func(tree *collections.TreeMap[string, string], ctx *cli.Context) error {
				lower, upper := collections.Bound[string]{}, collections.Bound[string]{}
				if ctx.IsSet(fromFlag.Name) {
					lower = collections.Including(ctx.String(fromFlag.Name))
				}
				if ctx.IsSet(toFlag.Name) {
					upper = collections.Excluding(ctx.String(toFlag.Name))
					if ctx.Bool(inclusiveFlag.Name) {
						upper = collections.Including(ctx.String(toFlag.Name))
					}
				}
				if ctx.Bool(reverseFlag.Name) {
					if lower.Kind != collections.Unbounded || upper.Kind != collections.Unbounded {
						return fmt.Errorf("reverse listing is only supported for the full key range")
					}
					return printEntries(tree.IterRev())
				}
				it, err := tree.Range(lower, upper)
				if err != nil {
					return err
				}
				return printEntries(it)
			}),
		},
		{
			Name:  "min",
			Usage: "prints the smallest key",
			Action: withTree(func(tree *collections.TreeMap[string, string], _ *cli.Context) error {
				key, found, err := tree.Min()
				if err != nil {
					return err
				}
				printOptional(key, found)
				return nil
			}),
		},
		{
			Name:  "max",
			Usage: "prints the largest key",
			Action: withTree(func(tree *collections.TreeMap[string, string], _ *cli.Context) error {
				key, found, err := tree.Max()
				if err != nil {
					return err
				}
				printOptional(key, found)
				return nil
			}),
		},
	},
}

func withTree(action func(*collections.TreeMap[string, string], *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		valueCodec, err := stringCodec(ctx)
		if err != nil {
			return err
		}
		prefix := []byte(ctx.String(nameFlag.Name))
		return run(ctx, func(_ context.Context, inv *runtime.Invocation) error {
			tree := collections.NewTreeMap[string, string](inv.Storage(), prefix, common.OrderedComparator[string]{}, valueCodec, valueCodec)
			inv.Register(tree)
			return action(tree, ctx)
		})
	}
}
