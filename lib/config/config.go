// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "CELLCTL_CONFIG"

// Profile says how far the input is trusted.
type Profile string

const (
	// Trusted is for trees this installation produced itself.
	Trusted Profile = "trusted"
	// Untrusted is for trees received from elsewhere. Its defaults
	// bound every resource a hostile input could exhaust.
	Untrusted Profile = "untrusted"
)

// Config is the cellctl configuration.
type Config struct {
	// Profile selects which override section applies.
	Profile Profile `yaml:"profile"`

	// Validation configures schema validation of decoded trees.
	Validation ValidationConfig `yaml:"validation"`

	// Limits bound what the bag-of-cells reader accepts.
	Limits LimitsConfig `yaml:"limits"`

	// Output configures what cellctl writes.
	Output OutputConfig `yaml:"output"`

	// Per-profile overrides, applied after the base config is loaded.
	TrustedOverrides   *Overrides `yaml:"trusted,omitempty"`
	UntrustedOverrides *Overrides `yaml:"untrusted,omitempty"`
}

// Overrides holds the fields a profile section may override.
type Overrides struct {
	Validation *ValidationConfig `yaml:"validation,omitempty"`
	Limits     *LimitsConfig     `yaml:"limits,omitempty"`
	Output     *OutputConfig     `yaml:"output,omitempty"`
}

// ValidationConfig configures schema validation.
type ValidationConfig struct {
	// Budget is the number of validation operations allowed per
	// root. Zero means unlimited.
	// Default: 1000000 (trusted), 100000 (untrusted)
	Budget int64 `yaml:"budget"`

	// Workers is the number of roots validated concurrently. Zero
	// means one per CPU.
	Workers int `yaml:"workers"`
}

// LimitsConfig bounds bag-of-cells input. Zero fields are unlimited.
type LimitsConfig struct {
	MaxCells int `yaml:"max_cells"`
	MaxRoots int `yaml:"max_roots"`
	// MaxSize is in bytes and applies to the uncompressed bag.
	MaxSize int `yaml:"max_size"`
}

// OutputConfig configures written files.
type OutputConfig struct {
	// Index writes the offset index into bags of cells.
	Index bool `yaml:"index"`

	// CRC32C appends a CRC-32C to bags of cells.
	// Default: true
	CRC32C bool `yaml:"crc32c"`

	// Compression is the envelope compression: auto, none, lz4 or
	// zstd.
	// Default: auto
	Compression string `yaml:"compression"`
}

// Default returns the configuration used when no file is given, and
// the base every file is merged into.
func Default() *Config {
	return &Config{
		Profile: Trusted,
		Validation: ValidationConfig{
			Budget: 1_000_000,
		},
		Limits: LimitsConfig{
			MaxCells: 1 << 20,
			MaxRoots: 1 << 10,
			MaxSize:  64 << 20,
		},
		Output: OutputConfig{
			CRC32C:      true,
			Compression: "auto",
		},
	}
}

// Load loads the file named by CELLCTL_CONFIG. It fails when the
// variable is unset; use [Resolve] for the flag-then-variable-then-
// defaults lookup the CLI does.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a cellctl.yaml file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// Resolve returns the configuration from flagPath if it is set,
// otherwise from CELLCTL_CONFIG if that is set, otherwise the
// defaults. Environment variables never override individual values.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	if os.Getenv(EnvironmentVariable) != "" {
		return Load()
	}
	cfg := Default()
	cfg.applyProfileOverrides()
	return cfg, nil
}

// LoadFile loads configuration from path over the defaults and
// applies the selected profile's overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyProfileOverrides()
	return cfg, nil
}

func (c *Config) applyProfileOverrides() {
	var overrides *Overrides
	switch c.Profile {
	case Trusted:
		overrides = c.TrustedOverrides
	case Untrusted:
		overrides = c.UntrustedOverrides
		// Untrusted defaults: a tighter budget and smaller inputs.
		if overrides == nil {
			overrides = &Overrides{
				Validation: &ValidationConfig{Budget: 100_000},
				Limits: &LimitsConfig{
					MaxCells: 1 << 16,
					MaxRoots: 16,
					MaxSize:  4 << 20,
				},
			}
		}
	}
	if overrides == nil {
		return
	}

	if v := overrides.Validation; v != nil {
		if v.Budget != 0 {
			c.Validation.Budget = v.Budget
		}
		if v.Workers != 0 {
			c.Validation.Workers = v.Workers
		}
	}
	if l := overrides.Limits; l != nil {
		if l.MaxCells != 0 {
			c.Limits.MaxCells = l.MaxCells
		}
		if l.MaxRoots != 0 {
			c.Limits.MaxRoots = l.MaxRoots
		}
		if l.MaxSize != 0 {
			c.Limits.MaxSize = l.MaxSize
		}
	}
	if o := overrides.Output; o != nil {
		// Booleans are always taken from an output override.
		c.Output.Index = o.Index
		c.Output.CRC32C = o.CRC32C
		if o.Compression != "" {
			c.Output.Compression = o.Compression
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Profile != Trusted && c.Profile != Untrusted {
		errs = append(errs, fmt.Errorf("invalid profile: %q", c.Profile))
	}
	if c.Validation.Budget < 0 {
		errs = append(errs, fmt.Errorf("validation.budget must not be negative"))
	}
	if c.Validation.Workers < 0 {
		errs = append(errs, fmt.Errorf("validation.workers must not be negative"))
	}
	if c.Limits.MaxCells < 0 || c.Limits.MaxRoots < 0 || c.Limits.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("limits must not be negative"))
	}
	compressions := []string{"auto", "none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Output.Compression) {
		errs = append(errs, fmt.Errorf("output.compression must be one of: %v", compressions))
	}

	return errors.Join(errs...)
}
