// Package config layers the driver's configuration: defaults, then an optional YAML file,
// then environment variables, then CLI flags, each overriding the previous.
package config

import (
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Config holds every knob the driver needs to run the pipeline. YAML and env tags let it be
// populated from .exc.yaml and from EXC_-prefixed environment variables before CLI flags are
// applied on top.
type Config struct {
	SourcePath string `yaml:"-" env:"-"`
	OutputName string `yaml:"-" env:"-"`

	Assembler  string `yaml:"assembler" env:"EXC_ASSEMBLER"` // "as+ld" or "gcc"
	RuntimeObj string `yaml:"runtime_obj" env:"EXC_RUNTIME_OBJ"`

	Verbose     bool `yaml:"verbose" env:"EXC_VERBOSE"`
	TokenStream bool `yaml:"-" env:"-"` // -ts is a CLI-only debug switch, not persisted
	PrintIR     bool `yaml:"-" env:"-"` // -vb is a CLI-only debug switch, not persisted
	NoColor     bool `yaml:"no_color" env:"NO_COLOR"`
	KeepAsm     bool `yaml:"keep_asm" env:"EXC_KEEP_ASM"`
}

// ---------------------
// ----- Constants -----
// ---------------------

// DefaultConfigFile is the project-local YAML config file loaded if present.
const DefaultConfigFile = ".exc.yaml"

// ---------------------
// ----- functions -----
// ---------------------

// Default returns the baseline configuration before any YAML file or environment variable is
// applied.
func Default() Config {
	return Config{
		Assembler:  "gcc",
		RuntimeObj: "runtime/runtime.o",
	}
}

// Load builds a Config by layering, in increasing precedence: built-in defaults, an optional
// YAML file at path (skipped silently if it does not exist), then environment variables.
// CLI flags are applied afterwards by the caller (cmd/exc), since cobra/pflag already owns
// flag precedence and parsing.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
