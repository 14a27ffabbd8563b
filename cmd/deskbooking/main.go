package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/desk-booking/internal/config"
	"github.com/example/desk-booking/internal/logging"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "deskbooking:", err)
		os.Exit(1)
	}
}

type options struct {
	envFile     string
	seed        bool
	migrateOnly bool
	addr        string
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("deskbooking", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file read before the environment (default .env when present)")
	flags.BoolVar(&opts.seed, "seed", false, "insert the seed inventory from DESKBOOKING_SEED_FILE or the built-in default")
	flags.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply migrations and the seed, then exit")
	flags.StringVar(&opts.addr, "addr", "", "listen address, overrides DESKBOOKING_HTTP_PORT")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if flags.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	logger := logging.New(stdout, cfg.LogLevel)

	store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	deps := productionDependencies(cfg.SessionSecret)

	if opts.seed || cfg.SeedFile != "" {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		seeder := seeder{store: store, hash: deps.hash, idGenerator: deps.idGenerator, now: deps.now, logger: logger}
		if _, err := seeder.apply(ctx, seed); err != nil {
			return err
		}
	}

	if opts.migrateOnly {
		logger.Info("migrations applied, exiting", "path", cfg.SQLitePath)
		return nil
	}

	addr := cfg.Addr()
	if opts.addr != "" {
		addr = opts.addr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           newHandler(store, cfg, logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("desk booking API listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("desk booking API stopped")
	return nil
}
