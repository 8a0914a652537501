// Package appconfig defines the application configuration and its loader.
package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Backend       BackendConfig `mapstructure:"backend" yaml:"backend"`
	Session       SessionConfig `mapstructure:"session" yaml:"session"`
	Run           RunConfig     `mapstructure:"run" yaml:"run"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// BackendConfig selects and configures the compile backend.
type BackendConfig struct {
	// Kind is "http" or "wasm".
	Kind       string `mapstructure:"kind" yaml:"kind"`
	URL        string `mapstructure:"url" yaml:"url"`
	ModulePath string `mapstructure:"module_path" yaml:"module_path"`
}

// SessionConfig tunes the interactive compile session.
type SessionConfig struct {
	DebounceMillis int    `mapstructure:"debounce_millis" yaml:"debounce_millis"`
	Stage          string `mapstructure:"stage" yaml:"stage"`
}

// RunConfig configures the code-generation-and-execution path.
type RunConfig struct {
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	RunnerModulePath string `mapstructure:"runner_module_path" yaml:"runner_module_path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".treescope", "state"),
		HTTP: HTTPConfig{
			Addr: ":27590",
		},
		Backend: BackendConfig{
			Kind:       "http",
			URL:        "http://127.0.0.1:27591",
			ModulePath: "",
		},
		Session: SessionConfig{
			DebounceMillis: 500,
			Stage:          "all",
		},
		Run: RunConfig{
			Enabled:          false,
			RunnerModulePath: "",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".treescope", "config.yaml"), nil
}
