// Package config holds the debug options of the packer and disassembler.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// EnvVar is the environment variable FromEnv reads.
const EnvVar = "BIFROST_MESA_DEBUG"

// Options holds the debug options. Each option has a short name used in
// EnvVar and as its JSON key.
type Options struct {
	// Messages prints packer debug messages, one line per clause.
	Messages bool `json:"msgs"`

	// Shaders dumps the IR of each program before packing.
	Shaders bool `json:"shaders"`

	// ShaderDB prints shader-db statistics after packing.
	ShaderDB bool `json:"shaderdb"`

	// Verbose adds raw quads and register words to disassembly.
	Verbose bool `json:"verbose"`

	// Internal extends Shaders to internal (driver generated) programs.
	Internal bool `json:"internal"`

	// NoSched forms one clause per instruction.
	NoSched bool `json:"nosched"`

	// NoValidate skips decoding the packed binary back after packing.
	NoValidate bool `json:"novalidate"`
}

type option struct {
	name string
	get  func(*Options) *bool
}

var options = []option{
	{"msgs", func(o *Options) *bool { return &o.Messages }},
	{"shaders", func(o *Options) *bool { return &o.Shaders }},
	{"shaderdb", func(o *Options) *bool { return &o.ShaderDB }},
	{"verbose", func(o *Options) *bool { return &o.Verbose }},
	{"internal", func(o *Options) *bool { return &o.Internal }},
	{"nosched", func(o *Options) *bool { return &o.NoSched }},
	{"novalidate", func(o *Options) *bool { return &o.NoValidate }},
}

// DefaultOptions returns Options with everything disabled.
func DefaultOptions() *Options {
	return &Options{}
}

// FromEnv parses EnvVar. An unset variable yields the default options.
func FromEnv() (*Options, error) {
	opts, err := Parse(os.Getenv(EnvVar))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvVar, err)
	}
	return opts, nil
}

// Parse parses a comma separated list of option names.
func Parse(s string) (*Options, error) {
	opts := DefaultOptions()

	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		found := false
		for _, o := range options {
			if o.name == name {
				*o.get(opts) = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown debug option %q", name)
		}
	}

	return opts, nil
}

// String returns the enabled options in the format Parse accepts.
func (o *Options) String() string {
	var names []string
	for _, opt := range options {
		if *opt.get(o) {
			names = append(names, opt.name)
		}
	}
	return strings.Join(names, ",")
}

// LoadConfig loads Options from a JSON file.
func LoadConfig(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read debug config file: %w", err)
	}

	opts := DefaultOptions()
	if err := json.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse debug config: %w", err)
	}

	return opts, nil
}

// SaveConfig writes Options to a JSON file.
func (o *Options) SaveConfig(path string) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize debug config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write debug config file: %w", err)
	}

	return nil
}

// Validate checks that the options are consistent.
func (o *Options) Validate() error {
	if o.Internal && !o.Shaders {
		return fmt.Errorf("internal requires shaders")
	}
	return nil
}

// Clone returns a copy of the options.
func (o *Options) Clone() *Options {
	clone := *o
	return &clone
}

// Logger returns the debug message logger. Without Messages every message
// is discarded; otherwise V(1) messages are written to w.
func (o *Options) Logger(w io.Writer) logr.Logger {
	if o == nil || !o.Messages {
		return logr.Discard()
	}

	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: 1})
}
