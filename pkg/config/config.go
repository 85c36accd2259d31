// Package config holds translation options and the package-prefix table.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MemoryModel selects how generated code manages object lifetimes
type MemoryModel string

const (
	// ReferenceCounting emits explicit retain/release/autorelease messages.
	ReferenceCounting MemoryModel = "rc"
	// AutomaticRefCounting leaves lifetimes to the platform compiler.
	AutomaticRefCounting MemoryModel = "arc"
)

// Options controls one translation run
type Options struct {
	OutputDir          string      `mapstructure:"output"`
	InlineFieldAccess  bool        `mapstructure:"inline-field-access"`
	MemoryModel        MemoryModel `mapstructure:"memory-model"`
	EmitLineDirectives bool        `mapstructure:"line-directives"`
	GenerateTestMain   bool        `mapstructure:"test-main"`
	PrefixFile         string      `mapstructure:"prefixes"`
	Verbose            bool        `mapstructure:"verbose"`
	Dump               bool        `mapstructure:"dump"`

	// Prefixes is filled from PrefixFile by Load; tests may set it directly.
	Prefixes *Prefixes `mapstructure:"-"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		OutputDir:   ".",
		MemoryModel: ReferenceCounting,
		Prefixes:    EmptyPrefixes(),
	}
}

// UseReferenceCounting reports whether retain/release must be emitted.
func (o Options) UseReferenceCounting() bool {
	return o.MemoryModel != AutomaticRefCounting
}

// ErrInvalidOption is wrapped by validation failures.
var ErrInvalidOption = errors.New("invalid option")

// Validate checks option values.
func (o Options) Validate() error {
	switch o.MemoryModel {
	case ReferenceCounting, AutomaticRefCounting:
	default:
		return fmt.Errorf("%w: memory-model %q (want rc or arc)", ErrInvalidOption, o.MemoryModel)
	}
	if o.OutputDir == "" && !o.Dump {
		return fmt.Errorf("%w: output directory is empty", ErrInvalidOption)
	}
	return nil
}

// BindFlags registers the option flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("output", "d", d.OutputDir, "Directory for generated files")
	fs.Bool("inline-field-access", false, "Access fields of other objects directly instead of through properties")
	fs.String("memory-model", string(d.MemoryModel), "Memory model of the generated code: rc or arc")
	fs.BoolP("line-directives", "g", false, "Emit #line directives mapping back to the source")
	fs.Bool("test-main", false, "Emit a main() harness for runnable and test classes")
	fs.String("prefixes", "", "TOML file mapping packages to name prefixes")
	fs.BoolP("verbose", "v", false, "Log translation progress")
	fs.Bool("dump", false, "Print generated files to stdout instead of writing them")
}

// Load resolves options from defaults, an optional config file, RALPH_OBJC_*
// environment variables and the flags in fs, in increasing precedence.
// An empty configFile searches the working directory for ralph-objc.{yaml,toml,json}.
func Load(fs *pflag.FlagSet, configFile string) (Options, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("output", d.OutputDir)
	v.SetDefault("memory-model", string(d.MemoryModel))

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ralph-objc")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("RALPH_OBJC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Options{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Options{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("decoding config: %w", err)
	}
	opts.Prefixes = EmptyPrefixes()
	if opts.PrefixFile != "" {
		p, err := LoadPrefixes(opts.PrefixFile)
		if err != nil {
			return Options{}, err
		}
		opts.Prefixes = p
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
