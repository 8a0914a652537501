package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	def, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.HTTP.Addr != def.HTTP.Addr || cfg.Backend.Kind != def.Backend.Kind {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Session.DebounceMillis != 500 {
		t.Fatalf("debounce = %d", cfg.Session.DebounceMillis)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
config_version: 1
http:
  addr: ":9999"
session:
  debounce_millis: 200
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Session.DebounceMillis != 200 {
		t.Fatalf("debounce = %d", cfg.Session.DebounceMillis)
	}
	// Untouched keys keep their defaults.
	if cfg.Backend.Kind != "http" {
		t.Fatalf("backend kind = %q", cfg.Backend.Kind)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "http:\n  addr: \":9999\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("missing config_version accepted")
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config_version: 99\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unsupported config_version accepted")
	}
}

func TestLoadRejectsUnknownBackendKind(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config_version: 1\nbackend:\n  kind: grpc\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unsupported backend kind accepted")
	}
}

func TestLoadWasmBackendRequiresModulePath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config_version: 1\nbackend:\n  kind: wasm\n")
	if _, err := Load(path); err == nil {
		t.Fatal("wasm backend without module path accepted")
	}
}

func TestLoadRunRequiresWasmBackend(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
config_version: 1
run:
  enabled: true
  runner_module_path: /tmp/runner.wasm
`)
	if _, err := Load(path); err == nil {
		t.Fatal("run over http backend accepted")
	}
}

func TestLoadRejectsUnknownStage(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config_version: 1\nsession:\n  stage: optimize\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unsupported session stage accepted")
	}
}

func TestEnvOverridesConfig(t *testing.T) {
	t.Setenv("TREESCOPE_HTTP_ADDR", ":9999")
	t.Setenv("TREESCOPE_BACKEND_URL", "http://10.0.0.1:4000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("addr = %q, env override not applied", cfg.HTTP.Addr)
	}
	if cfg.Backend.URL != "http://10.0.0.1:4000" {
		t.Fatalf("backend url = %q, env override not applied", cfg.Backend.URL)
	}
}

func TestEnvOverridesFileValue(t *testing.T) {
	t.Setenv("TREESCOPE_SESSION_DEBOUNCE_MILLIS", "125")

	path := writeConfig(t, "config_version: 1\nsession:\n  debounce_millis: 700\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Session.DebounceMillis != 125 {
		t.Fatalf("debounce = %d, env does not take precedence over file", cfg.Session.DebounceMillis)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TREESCOPE_TEST_DIR", "/var/lib/scope")

	path := writeConfig(t, "config_version: 1\nstate_dir: $TREESCOPE_TEST_DIR/state\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.StateDir != "/var/lib/scope/state" {
		t.Fatalf("state dir = %q", cfg.StateDir)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if _, err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault error = %v", err)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatal("overwrite without flag accepted")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("forced overwrite error = %v", err)
	}

	// The written file round-trips through Load.
	if _, err := Load(path); err != nil {
		t.Fatalf("Load written default error = %v", err)
	}
}
