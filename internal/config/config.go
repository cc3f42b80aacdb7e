// Package config loads superforge settings from defaults, an optional YAML
// file and SUPERFORGE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application name and config directory name.
	AppName = "superforge"
	// FileName is the config file name without extension.
	FileName = "superforge"
	// EnvPrefix prefixes environment overrides, e.g. SUPERFORGE_TOOLS_DIR.
	EnvPrefix = "SUPERFORGE"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every tunable the CLI reads.
type Config struct {
	Tools    Tools    `mapstructure:"tools" yaml:"tools"`
	Timeouts Timeouts `mapstructure:"timeouts" yaml:"timeouts"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

// Tools locates the external converter and packer.
type Tools struct {
	// Dir is searched before PATH. Empty means the directory of the executable.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Converter and Packer are explicit paths that bypass the search.
	Converter string `mapstructure:"converter" yaml:"converter"`
	Packer    string `mapstructure:"packer" yaml:"packer"`
}

// Timeouts bounds each external invocation.
type Timeouts struct {
	Convert time.Duration `mapstructure:"convert" yaml:"convert"`
	Pack    time.Duration `mapstructure:"pack" yaml:"pack"`
}

// Log selects verbosity and output format.
type Log struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
	Human bool `mapstructure:"human" yaml:"human"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timeouts: Timeouts{
			Convert: 10 * time.Minute,
			Pack:    30 * time.Minute,
		},
	}
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// File is an explicit config path; when set it must exist.
	File string
	// Dirs are searched in order for superforge.yaml when File is empty.
	// Nil means SearchDirs().
	Dirs []string
}

// SearchDirs returns the default config search path: the user config
// directory followed by the working directory.
func SearchDirs() []string {
	var dirs []string
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, AppName))
	}
	return append(dirs, ".")
}

// Load resolves the configuration. It returns the config and the file it was
// read from ("" when only defaults and environment applied).
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("tools.dir", defaults.Tools.Dir)
	v.SetDefault("tools.converter", defaults.Tools.Converter)
	v.SetDefault("tools.packer", defaults.Tools.Packer)
	v.SetDefault("timeouts.convert", defaults.Timeouts.Convert)
	v.SetDefault("timeouts.pack", defaults.Timeouts.Pack)
	v.SetDefault("log.debug", defaults.Log.Debug)
	v.SetDefault("log.human", defaults.Log.Human)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	switch {
	case opts.File != "":
		if _, err := os.Stat(opts.File); err != nil {
			return nil, "", fmt.Errorf("config file %s: %w", opts.File, err)
		}
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", opts.File, err)
		}
		resolved = opts.File
	default:
		dirs := opts.Dirs
		if dirs == nil {
			dirs = SearchDirs()
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, "", fmt.Errorf("read config: %w", err)
			}
		} else {
			resolved = v.ConfigFileUsed()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate checks that timeouts are positive.
func (c Config) Validate() error {
	if c.Timeouts.Convert <= 0 {
		return fmt.Errorf("%w: timeouts.convert must be positive, got %s", ErrInvalid, c.Timeouts.Convert)
	}
	if c.Timeouts.Pack <= 0 {
		return fmt.Errorf("%w: timeouts.pack must be positive, got %s", ErrInvalid, c.Timeouts.Pack)
	}
	return nil
}

// Show renders the effective configuration as YAML.
func Show(c Config) (string, error) {
	out, err := yaml.Marshal(showView{
		Tools: c.Tools,
		Timeouts: showTimeouts{
			Convert: c.Timeouts.Convert.String(),
			Pack:    c.Timeouts.Pack.String(),
		},
		Log: c.Log,
	})
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

// yaml.v3 encodes time.Duration as nanoseconds; the view keeps the
// human form that Load accepts back.
type showView struct {
	Tools    Tools        `yaml:"tools"`
	Timeouts showTimeouts `yaml:"timeouts"`
	Log      Log          `yaml:"log"`
}

type showTimeouts struct {
	Convert string `yaml:"convert"`
	Pack    string `yaml:"pack"`
}
