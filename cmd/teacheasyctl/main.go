// Command teacheasyctl runs administrative tasks against the TeachEasy database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/teacheasy/teacheasy/internal/config"
	"github.com/teacheasy/teacheasy/internal/store"
)

var version = "dev"

// globals shared by every subcommand
type globals struct {
	configPath string
	verbose    bool
}

func (g *globals) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.SlogLevel()
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func (g *globals) openStore(ctx context.Context) (*store.PostgresStore, *config.Config, *slog.Logger, error) {
	cfg, logger, err := g.load()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, cfg, logger, nil
}

func main() {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "teacheasyctl",
		Short: "Administrative tasks for the TeachEasy service",
		Long: `teacheasyctl applies schema migrations, imports scholarship and discount
exports or scrapes them from the web, cleans the catalog and runs maintenance
jobs on demand.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newMigrateCmd(g),
		newImportCmd(g),
		newScrapeCmd(g),
		newCleanCmd(g),
		newMaintainCmd(g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
