// Package config loads treemig configuration.
//
// Precedence (highest to lowest): flags > TREEMIG_* env vars > config file
// > defaults. The config file is the --config path, or treemig.yaml /
// treemig.yml in the working directory when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment variables: TREEMIG_MAX_DEPTH -> max_depth.
const EnvPrefix = "TREEMIG_"

// Default values.
const (
	DefaultMode      = "fail-fast"
	DefaultColumn    = -1
	DefaultDelimiter = "\t"
	DefaultWorkers   = 1
	DefaultMaxDepth  = 1000
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultFormat    = "text"
)

// DefaultFiles are looked up in the working directory when no config file
// is given.
var DefaultFiles = []string{"treemig.yaml", "treemig.yml"}

// Config is the resolved configuration.
type Config struct {
	Mode             string `koanf:"mode"`
	Column           int    `koanf:"column"`
	Delimiter        string `koanf:"delimiter"`
	Workers          int    `koanf:"workers"`
	MaxDepth         int    `koanf:"max_depth"`
	StrictComplement bool   `koanf:"strict_complement"`
	Verify           bool   `koanf:"verify"`
	Ledger           string `koanf:"ledger"`
	LogLevel         string `koanf:"log_level"`
	LogFormat        string `koanf:"log_format"`
	Format           string `koanf:"format"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"mode":              DefaultMode,
		"column":            DefaultColumn,
		"delimiter":         DefaultDelimiter,
		"workers":           DefaultWorkers,
		"max_depth":         DefaultMaxDepth,
		"strict_complement": false,
		"verify":            false,
		"ledger":            "",
		"log_level":         DefaultLogLevel,
		"log_format":        DefaultLogFormat,
		"format":            DefaultFormat,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode:      DefaultMode,
		Column:    DefaultColumn,
		Delimiter: DefaultDelimiter,
		Workers:   DefaultWorkers,
		MaxDepth:  DefaultMaxDepth,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Format:    DefaultFormat,
	}
}

// Load resolves configuration from defaults, the config file, environment
// variables and explicitly set flags. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	cfg.Delimiter, err = unescapeDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the explicit path, which must exist, or the first
// default file present. Returns "" when there is none.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// unescapeDelimiter lets shells and env vars pass a tab as `\t`.
func unescapeDelimiter(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	out, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return "", fmt.Errorf("invalid delimiter %q: %w", s, err)
	}
	return out, nil
}
