// Package wasmbackend binds the compile contract to a sandboxed wasm build
// of the compiler, fed source through a virtual single-file filesystem and
// read back as JSON on standard output.
package wasmbackend

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

	"github.com/kpumuk/treescope/internal/compile"
)

const (
	// sourceFileName is the single file visible to the sandboxed compiler.
	sourceFileName = "main.src"
	maxErrBytes    = 2048
)

// Runner executes the compiler wasm module. The module is compiled once and
// instantiated per call, so concurrent compiles never share mutable state.
type Runner struct {
	modulePath string
	log        pslog.Logger

	initOnce sync.Once
	initErr  error
	runtime  wazero.Runtime
	module   wazero.CompiledModule
}

// New constructs a runner for the wasm module at modulePath.
func New(modulePath string, logger pslog.Logger) (*Runner, error) {
	if strings.TrimSpace(modulePath) == "" {
		return nil, errors.New("wasm module path is required")
	}
	if logger != nil {
		logger = logger.With("backend", "wasm", "module", modulePath)
	}
	return &Runner{modulePath: modulePath, log: logger}, nil
}

func (r *Runner) ensureCompiled(ctx context.Context) error {
	r.initOnce.Do(func() {
		wasmBytes, err := os.ReadFile(r.modulePath)
		if err != nil {
			r.initErr = fmt.Errorf("read wasm module: %w", err)
			return
		}
		rt := wazero.NewRuntime(ctx)
		wasi_snapshot_preview1.MustInstantiate(ctx, rt)
		mod, err := rt.CompileModule(ctx, wasmBytes)
		if err != nil {
			_ = rt.Close(ctx)
			r.initErr = fmt.Errorf("compile wasm module: %w", err)
			return
		}
		r.runtime = rt
		r.module = mod
		if r.log != nil {
			r.log.Info("wasm compiler module loaded", "bytes", len(wasmBytes))
		}
	})
	return r.initErr
}

// Compile implements compile.Client by running the sandboxed compiler.
func (r *Runner) Compile(ctx context.Context, source string, stage compile.Stage) (compile.Outcome, error) {
	if r == nil {
		return compile.Outcome{}, errors.New("nil wasm backend")
	}
	if !stage.Valid() {
		return compile.Outcome{}, fmt.Errorf("invalid stage %q", stage)
	}
	if err := r.ensureCompiled(ctx); err != nil {
		return compile.Outcome{}, err
	}

	fsys := fstest.MapFS{
		sourceFileName: &fstest.MapFile{Data: []byte(source)},
	}
	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName(""). // anonymous: allows concurrent instantiations
		WithArgs("compiler", "--stage", string(stage), sourceFileName).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithFSConfig(wazero.NewFSConfig().WithFSMount(fsys, "/"))

	mod, runErr := r.runtime.InstantiateModule(ctx, r.module, cfg)
	if mod != nil {
		_ = mod.Close(ctx)
	}
	return outcomeFromRun(stdout.Bytes(), stderr.Bytes(), runErr)
}

// Close releases the wazero runtime.
func (r *Runner) Close(ctx context.Context) error {
	if r == nil || r.runtime == nil {
		return nil
	}
	return r.runtime.Close(ctx)
}

// outcomeFromRun converts a finished sandbox invocation into an Outcome.
// A non-zero exit is a compiler diagnostic, not a transport failure: the
// captured stderr text becomes the error field. Output that fails to parse
// as JSON is a transport failure with decode context attached.
func outcomeFromRun(stdout, stderr []byte, runErr error) (compile.Outcome, error) {
	if runErr != nil {
		var exitErr *sys.ExitError
		if !errors.As(runErr, &exitErr) {
			return compile.Outcome{}, fmt.Errorf("wasm invocation failed: %w", runErr)
		}
		if exitErr.ExitCode() != 0 {
			return compile.Outcome{Success: false, Error: diagnosticText(stderr, exitErr.ExitCode())}, nil
		}
		// proc_exit(0) is a normal completion path.
	}
	return compile.DecodeOutcome(stdout)
}

func diagnosticText(stderr []byte, code uint32) string {
	msg := strings.TrimSpace(string(stderr))
	if len(msg) > maxErrBytes {
		msg = msg[:maxErrBytes] + "..."
	}
	if msg == "" {
		return fmt.Sprintf("compiler exited with code %d", code)
	}
	return msg
}
