package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TREESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("backend.kind", cfg.Backend.Kind)
	v.SetDefault("backend.url", cfg.Backend.URL)
	v.SetDefault("backend.module_path", cfg.Backend.ModulePath)
	v.SetDefault("session.debounce_millis", cfg.Session.DebounceMillis)
	v.SetDefault("session.stage", cfg.Session.Stage)
	v.SetDefault("run.enabled", cfg.Run.Enabled)
	v.SetDefault("run.runner_module_path", cfg.Run.RunnerModulePath)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Backend.Kind {
	case "http":
		raw := strings.TrimSpace(cfg.Backend.URL)
		if raw == "" {
			return fmt.Errorf("backend.url is required when backend.kind is http")
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("backend.url must include scheme and host (e.g. http://127.0.0.1:27591)")
		}
	case "wasm":
		if strings.TrimSpace(cfg.Backend.ModulePath) == "" {
			return fmt.Errorf("backend.module_path is required when backend.kind is wasm")
		}
	default:
		return fmt.Errorf("unsupported backend.kind %q", cfg.Backend.Kind)
	}
	if cfg.Session.DebounceMillis < 0 {
		return fmt.Errorf("session.debounce_millis must not be negative")
	}
	switch cfg.Session.Stage {
	case "parse", "lower", "infer", "all":
	default:
		return fmt.Errorf("unsupported session.stage %q", cfg.Session.Stage)
	}
	if cfg.Run.Enabled {
		if cfg.Backend.Kind != "wasm" {
			return fmt.Errorf("run.enabled requires backend.kind wasm")
		}
		if strings.TrimSpace(cfg.Run.RunnerModulePath) == "" {
			return fmt.Errorf("run.runner_module_path is required when run.enabled is true")
		}
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Backend.ModulePath = expandEnv(cfg.Backend.ModulePath)
	cfg.Run.RunnerModulePath = expandEnv(cfg.Run.RunnerModulePath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
