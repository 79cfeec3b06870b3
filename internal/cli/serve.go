package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"

	"github.com/marthink/redmaker/internal/activation"
	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/config"
	"github.com/marthink/redmaker/internal/credential"
	"github.com/marthink/redmaker/internal/fleet"
	"github.com/marthink/redmaker/internal/seed"
	"github.com/marthink/redmaker/internal/server"
	"github.com/marthink/redmaker/internal/store"
	"github.com/marthink/redmaker/internal/telemetry"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string
	Database   string
	NoSeed     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the Red Maker backend: activation and telemetry APIs plus the
monitoring panel.

Configuration is resolved from defaults, then the optional YAML config
file, then REDMAKER_* environment variables. The --addr and --db flags
override all of those. The SQLite database is created if it doesn't
exist, and the built-in sample activation codes are provisioned unless
--no-seed is given.

Example:
  redmaker serve
  redmaker serve --config ./redmaker.yaml --verbose
  redmaker serve --addr 127.0.0.1:9000 --db /tmp/redmaker.db --no-seed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().BoolVar(&opts.NoSeed, "no-seed", false, "skip seeding sample activation codes")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.NoSeed {
		cfg.Seed = false
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log := newLogger(opts.Verbose || cfg.Verbose)
	slog.SetDefault(log)

	// Open database (create if not exists)
	log.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready")

	node, err := snowflake.NewNode(1)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create reading id node", err)
	}

	clk := clock.Real{}
	act := activation.NewService(st, credential.SecureGenerator{}, clk, log)
	tel := telemetry.NewService(st, node, clk, log)
	flt := fleet.NewService(st, clk)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	if cfg.Seed {
		if _, err := seed.Ensure(ctx, act, log); err != nil {
			return WrapExitError(ExitCommandError, "failed to seed activation codes", err)
		}
	}
	if cfg.SeedFile != "" {
		entries, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load seed file", err)
		}
		if _, err := seed.Apply(ctx, act, entries, log); err != nil {
			return WrapExitError(ExitCommandError, "failed to apply seed file", err)
		}
	}

	srv := server.New(cfg, log, st, act, tel, flt, clk)
	httpSrv := server.NewHTTPServer(cfg.Addr, srv.Router(), log)

	fmt.Fprintf(cmd.OutOrStdout(), "Red Maker backend listening on %s\n", cfg.Addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := httpSrv.Serve(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	log.Info("server stopped gracefully")
	return nil
}
