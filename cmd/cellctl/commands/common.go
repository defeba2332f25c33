// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/lib/boc"
	"github.com/bureau-foundation/cellcodec/lib/cell"
	"github.com/bureau-foundation/cellcodec/lib/cellstore"
	"github.com/bureau-foundation/cellcodec/lib/config"
)

// globalParams are accepted by every command that reads or writes
// cells.
type globalParams struct {
	ConfigPath string `flag:"config" desc:"configuration file (default $CELLCTL_CONFIG, then built-in defaults)"`
	Verbose    bool   `flag:"verbose,v" desc:"log debug detail to stderr"`
}

// inputParams select how a bag of cells is read.
type inputParams struct {
	Hex bool `flag:"hex" desc:"input is hex text rather than binary"`
}

// outputParams select where bytes a command produces go.
type outputParams struct {
	Output    string `flag:"output,o" desc:"write to this file instead of stdout"`
	HexOutput bool   `flag:"hex-output" desc:"write hex text rather than binary"`
}

// session is what a command run has resolved from its global flags.
type session struct {
	env    *cli.Env
	config *config.Config
	logger *slog.Logger
}

func (p globalParams) open(env *cli.Env, command string) (*session, error) {
	cfg, err := config.Resolve(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := cli.NewLogger(env.Stderr, p.Verbose).With("command", command)
	logger.Debug("configuration resolved", "profile", cfg.Profile)
	return &session{env: env, config: cfg, logger: logger}, nil
}

func (s *session) limits() boc.Limits {
	return boc.Limits{
		MaxCells: s.config.Limits.MaxCells,
		MaxRoots: s.config.Limits.MaxRoots,
		MaxSize:  s.config.Limits.MaxSize,
	}
}

func (s *session) bocOptions() boc.Options {
	return boc.Options{
		Index:  s.config.Output.Index,
		CRC32C: s.config.Output.CRC32C,
	}
}

// decode reads roots from a bag of cells or an envelope, interning
// them into a fresh store.
func (s *session) decode(data []byte) ([]*cell.Cell, error) {
	store := cellstore.New(cellstore.Config{Logger: s.logger})
	roots, err := boc.Decode(data, boc.UnpackOptions{
		Limits: s.limits(),
		Store:  store,
		Logger: s.logger,
	})
	if err != nil {
		return nil, err
	}
	store.LogStats("decoded")
	return roots, nil
}

// readInput reads the file named by the last argument if it names a
// regular file, otherwise stdin. It returns the remaining arguments.
func readInput(env *cli.Env, args []string, hexMode bool) ([]byte, []string, error) {
	var data []byte
	remaining := args

	if length := len(args); length > 0 {
		candidate := args[length-1]
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			data, err = os.ReadFile(candidate)
			if err != nil {
				return nil, nil, fmt.Errorf("read %s: %w", candidate, err)
			}
			remaining = args[:length-1]
		}
	}

	if data == nil {
		var err error
		data, err = io.ReadAll(env.Stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	if hexMode {
		decoded, err := decodeHex(data)
		if err != nil {
			return nil, nil, err
		}
		data = decoded
	}
	return data, remaining, nil
}

// decodeHex decodes hex text, ignoring whitespace anywhere in it.
func decodeHex(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}
	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// write delivers data to the --output file or to stdout.
func (p outputParams) write(env *cli.Env, data []byte) error {
	if p.HexOutput {
		data = []byte(hex.EncodeToString(data) + "\n")
	}
	if p.Output == "" {
		_, err := env.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(p.Output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.Output, err)
	}
	return nil
}

// noExtraArgs rejects positional arguments left after the input file.
func noExtraArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q (input file not found?)", args[0])
	}
	return nil
}
