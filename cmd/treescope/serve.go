package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/appconfig"
	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/compile/httpbackend"
	"github.com/kpumuk/treescope/internal/compile/wasmbackend"
	"github.com/kpumuk/treescope/internal/httpapi"
	"github.com/kpumuk/treescope/internal/prefs"
	"github.com/kpumuk/treescope/internal/run"
	"github.com/kpumuk/treescope/internal/session"
	"github.com/kpumuk/treescope/internal/viewstate"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the playground server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}

			backend, closeBackend, err := buildBackend(cfg, logger)
			if err != nil {
				return err
			}
			if closeBackend != nil {
				defer closeBackend()
			}
			logger.Info("compile backend ready", "kind", cfg.Backend.Kind)

			sess := session.New(backend, session.Config{
				Debounce: time.Duration(cfg.Session.DebounceMillis) * time.Millisecond,
				Stage:    compile.Stage(cfg.Session.Stage),
			}, logger)

			store, err := prefs.NewStore(filepath.Join(cfg.StateDir, "viewstate.json"), logger)
			if err != nil {
				return err
			}
			view := viewstate.NewCoordinator(store, logger)

			var runner *run.Manager
			if cfg.Run.Enabled {
				gen, err := run.NewWasmGenerator(cfg.Backend.ModulePath, logger)
				if err != nil {
					return err
				}
				defer func() { _ = gen.Close(context.Background()) }()
				exec, err := run.NewWasmExecutor(cfg.Run.RunnerModulePath, logger)
				if err != nil {
					return err
				}
				defer func() { _ = exec.Close(context.Background()) }()
				runner = run.NewManager(gen, exec, logger)
				defer runner.Stop()
			}

			srv := httpapi.NewServer(httpapi.Config{Addr: cfg.HTTP.Addr}, backend, sess, runner, view)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func buildBackend(cfg appconfig.Config, logger pslog.Logger) (compile.Client, func(), error) {
	switch cfg.Backend.Kind {
	case "http":
		client, err := httpbackend.New(cfg.Backend.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Health(pingCtx); err != nil {
			logger.Warn("compile backend not reachable yet", "url", cfg.Backend.URL, "err", err)
		}
		return client, nil, nil
	case "wasm":
		runner, err := wasmbackend.New(cfg.Backend.ModulePath, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = runner.Close(context.Background()) }
		return runner, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend kind %q", cfg.Backend.Kind)
	}
}
