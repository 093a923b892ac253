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
	"github.com/Fantom-foundation/Trove/runtime"
	"github.com/urfave/cli/v2"
)

var mapCommand = cli.Command{
	Name:  "map",
	Usage: "inspects and modifies an iterable map from strings to strings",
	Flags: []cli.Flag{
		&nameFlag,
	},
	Subcommands: []*cli.Command{
		{
			Name:      "put",
			Usage:     "associates the value to the key",
			ArgsUsage: "<key> <value>",
			Action: withMap(func(m *collections.UnorderedMap[string, string], args cli.Args) error {
				if args.Len() != 2 {
					return fmt.Errorf("expected a key and a value, got %d arguments", args.Len())
				}
				previous, found, err := m.Insert(args.Get(0), args.Get(1))
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
			Action: withMap(func(m *collections.UnorderedMap[string, string], args cli.Args) error {
				key, err := singleKey(args)
				if err != nil {
					return err
				}
				value, found, err := m.Get(key)
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
			Action: withMap(func(m *collections.UnorderedMap[string, string], args cli.Args) error {
				key, err := singleKey(args)
				if err != nil {
					return err
				}
				value, found, err := m.Remove(key)
				if err != nil {
					return err
				}
				printOptional(value, found)
				return nil
			}),
		},
		{
			Name:  "list",
			Usage: "prints all entries",
			Action: withMap(func(m *collections.UnorderedMap[string, string], _ cli.Args) error {
				return printEntries(m.Iter())
			}),
		},
	},
}

func withMap(action func(*collections.UnorderedMap[string, string], cli.Args) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		valueCodec, err := stringCodec(ctx)
		if err != nil {
			return err
		}
		prefix := []byte(ctx.String(nameFlag.Name))
		return run(ctx, func(_ context.Context, inv *runtime.Invocation) error {
			m := collections.NewUnorderedMap[string, string](inv.Storage(), prefix, valueCodec, valueCodec)
			inv.Register(m)
			return action(m, ctx.Args())
		})
	}
}

func singleKey(args cli.Args) (string, error) {
	if args.Len() != 1 {
		return "", fmt.Errorf("expected a single key, got %d arguments", args.Len())
	}
	return args.First(), nil
}

func printOptional(value string, found bool) {
	if found {
		fmt.Println(value)
	} else {
		fmt.Println("<none>")
	}
}

func printEntries(it collections.Iterator[collections.Entry[string, string]]) error {
	for it.Next() {
		entry := it.Value()
		fmt.Printf("%s: %s\n", entry.Key, entry.Value)
	}
	return it.Err()
}
