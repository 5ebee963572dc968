package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Spok95/eco-wardrobe/internal/config"
	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/infra/db"
	"github.com/Spok95/eco-wardrobe/internal/infra/logger"
	"github.com/Spok95/eco-wardrobe/internal/infra/xlsx"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
	"github.com/Spok95/eco-wardrobe/internal/store/lite"
)

var version = "0.1.0"

type rootFlags struct {
	config  string
	lite    string
	verbose bool
}

// store каталог, с которым работают команды: Postgres или файл SQLite.
type store interface {
	scoring.Catalog
	catalog.Sink
	xlsx.Source
	Dedupe(ctx context.Context, dryRun bool) ([]impacts.Conflict, error)
}

func (f *rootFlags) logger(cmd *cobra.Command) *slog.Logger {
	env := "prod"
	if f.verbose {
		env = "dev"
	}
	return logger.NewTo(cmd.ErrOrStderr(), env)
}

func (f *rootFlags) loadConfig() (config.Config, error) {
	if f.config == "" {
		return config.Load("")
	}
	if _, err := os.Stat(f.config); err != nil {
		// без файла работаем на значениях по умолчанию и APP_*
		return config.Load("")
	}
	return config.Load(f.config)
}

// open открывает каталог: --lite важнее настроек storage из конфига.
func (f *rootFlags) open(ctx context.Context) (store, func(), error) {
	path := f.lite
	if path == "" {
		cfg, err := f.loadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.Storage.Driver != "sqlite" {
			pool, err := db.Connect(ctx, cfg.Postgres.DSN)
			if err != nil {
				return nil, nil, fmt.Errorf("connect postgres: %w", err)
			}
			return catalog.NewRepo(pool), pool.Close, nil
		}
		path = cfg.Storage.SQLitePath
	}
	st, err := lite.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return st, func() { _ = st.Close() }, nil
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "impactctl",
		Short:         "Manage the clothing impact catalog and score items from the command line",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "config/example.yaml", "Config file path")
	pf.StringVar(&f.lite, "lite", "", "Use this SQLite file instead of the configured storage")
	pf.BoolVar(&f.verbose, "verbose", false, "Debug logging to stderr")

	root.AddCommand(
		newMigrateCmd(f),
		newSeedCmd(f),
		newImportCmd(f),
		newExportCmd(f),
		newDedupeCmd(f),
		newScoreCmd(f),
		newProfilesCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
