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

// Config defines the gas charged for storage accesses. Costs are modeled
// after metered virtual machines charging a base fee per host call plus a
// fee per byte of keys and values crossing the host boundary.
type Config struct {
	// A descriptive name for this configuration. It has no effect except for
	// logging and debugging purposes.
	Name string

	// The maximum amount of gas an invocation may consume. Zero disables the limit.
	GasLimit uint64

	// Cost of reads, charged for Get and Contains calls.
	ReadBase    uint64
	ReadPerByte uint64

	// Cost of writes, charged for Set calls.
	WriteBase    uint64
	WritePerByte uint64

	// Cost of removals, charged for Remove calls.
	RemoveBase uint64
}

var DefaultConfig = Config{
	Name:         "Default",
	GasLimit:     300_000_000_000_000,
	ReadBase:     56_356_845_750,
	ReadPerByte:  30_952_533,
	WriteBase:    64_196_736_000,
	WritePerByte: 70_482_867,
	RemoveBase:   53_473_030_500,
}

var UnlimitedConfig = Config{
	Name:         "Unlimited",
	GasLimit:     0,
	ReadBase:     1,
	ReadPerByte:  0,
	WriteBase:    1,
	WritePerByte: 0,
	RemoveBase:   1,
}

var allConfigs = []Config{
	DefaultConfig, UnlimitedConfig,
}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (Config, bool) {
	for _, config := range allConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return Config{}, false
}
