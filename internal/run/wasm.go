package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"pkt.systems/pslog"
)

const (
	sourceFileName    = "main.src"
	generatedFileName = "main.gen"
)

// wasmModule lazily loads one wasm module into a private wazero runtime.
type wasmModule struct {
	path string

	initOnce sync.Once
	initErr  error
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

func newWasmModule(path string) (*wasmModule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("wasm module path is required")
	}
	return &wasmModule{path: path}, nil
}

func (w *wasmModule) ensure(ctx context.Context) error {
	w.initOnce.Do(func() {
		raw, err := os.ReadFile(w.path)
		if err != nil {
			w.initErr = fmt.Errorf("read wasm module: %w", err)
			return
		}
		rt := wazero.NewRuntime(ctx)
		wasi_snapshot_preview1.MustInstantiate(ctx, rt)
		compiled, err := rt.CompileModule(ctx, raw)
		if err != nil {
			_ = rt.Close(ctx)
			w.initErr = fmt.Errorf("compile wasm module: %w", err)
			return
		}
		w.runtime = rt
		w.compiled = compiled
	})
	return w.initErr
}

func (w *wasmModule) close(ctx context.Context) error {
	if w == nil || w.runtime == nil {
		return nil
	}
	return w.runtime.Close(ctx)
}

// instantiate runs the module once with the given config and returns the
// exit error, if any. Module instances are anonymous and closed afterwards.
func (w *wasmModule) instantiate(ctx context.Context, cfg wazero.ModuleConfig) error {
	mod, err := w.runtime.InstantiateModule(ctx, w.compiled, cfg)
	if mod != nil {
		_ = mod.Close(ctx)
	}
	return err
}

// WasmGenerator compiles playground source to target-language text by
// invoking the compiler wasm module in emit mode. Generated source is read
// from standard output.
type WasmGenerator struct {
	module *wasmModule
	log    pslog.Logger
}

// NewWasmGenerator constructs a generator over the compiler module at path.
func NewWasmGenerator(path string, logger pslog.Logger) (*WasmGenerator, error) {
	module, err := newWasmModule(path)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("worker", "generate", "module", path)
	}
	return &WasmGenerator{module: module, log: logger}, nil
}

// Generate implements Generator.
func (g *WasmGenerator) Generate(ctx context.Context, source string) (string, error) {
	if g == nil {
		return "", errors.New("nil generator")
	}
	if err := g.module.ensure(ctx); err != nil {
		return "", err
	}

	fsys := fstest.MapFS{sourceFileName: &fstest.MapFile{Data: []byte(source)}}
	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("compiler", "--emit", sourceFileName).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithFSConfig(wazero.NewFSConfig().WithFSMount(fsys, "/"))

	if err := g.module.instantiate(ctx, cfg); err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				return stdout.String(), nil
			}
			return "", fmt.Errorf("code generation failed: %s", exitText(stderr.Bytes(), exitErr.ExitCode()))
		}
		return "", fmt.Errorf("wasm invocation failed: %w", err)
	}
	return stdout.String(), nil
}

// Close releases the generator runtime.
func (g *WasmGenerator) Close(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.module.close(ctx)
}

// WasmExecutor runs generated source inside a sandboxed runner module,
// streaming its standard error as incremental events.
type WasmExecutor struct {
	module *wasmModule
	log    pslog.Logger
}

// NewWasmExecutor constructs an executor over the runner module at path.
func NewWasmExecutor(path string, logger pslog.Logger) (*WasmExecutor, error) {
	module, err := newWasmModule(path)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("worker", "execute", "module", path)
	}
	return &WasmExecutor{module: module, log: logger}, nil
}

// Execute implements Executor.
func (e *WasmExecutor) Execute(ctx context.Context, generated string, emit func(Event)) error {
	if e == nil {
		return errors.New("nil executor")
	}
	if err := e.module.ensure(ctx); err != nil {
		return err
	}

	fsys := fstest.MapFS{generatedFileName: &fstest.MapFile{Data: []byte(generated)}}
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("runner", generatedFileName).
		WithStderr(&chunkWriter{emit: emit}).
		WithFSConfig(wazero.NewFSConfig().WithFSMount(fsys, "/"))

	if err := e.module.instantiate(ctx, cfg); err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				return nil
			}
			return fmt.Errorf("runner exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("wasm invocation failed: %w", err)
	}
	return nil
}

// Close releases the executor runtime.
func (e *WasmExecutor) Close(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.module.close(ctx)
}

// chunkWriter forwards each write as one stderr event.
type chunkWriter struct {
	emit func(Event)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) > 0 && w.emit != nil {
		w.emit(Event{Stderr: string(p)})
	}
	return len(p), nil
}

func exitText(stderr []byte, code uint32) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return fmt.Sprintf("exit code %d", code)
	}
	return msg
}
