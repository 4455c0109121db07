package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teacheasy/teacheasy/internal/assistant"
	"github.com/teacheasy/teacheasy/internal/catalog"
	"github.com/teacheasy/teacheasy/internal/config"
	"github.com/teacheasy/teacheasy/internal/scheduler"
	"github.com/teacheasy/teacheasy/internal/scrape"
	"github.com/teacheasy/teacheasy/internal/store"
)

func newMigrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			dir, name := store.MigrateUp, "up"
			if len(args) == 1 && args[0] == "down" {
				dir, name = store.MigrateDown, "down"
			}
			if err := store.Migrate(cfg.Database.URL, dir); err != nil {
				return err
			}
			logger.Info("migration complete", "direction", name)
			return nil
		},
	}
}

func newImportCmd(g *globals) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalog records from a JSON export",
	}
	cmd.PersistentFlags().BoolVar(&replace, "replace", false, "Delete existing records of the imported kind first")

	run := func(kind string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			db, _, logger, err := g.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			im := catalog.NewImporter(db, logger)
			opts := catalog.Options{Replace: replace}
			var rep *catalog.Report
			if kind == "scholarships" {
				rep, err = im.ImportScholarships(ctx, f, opts)
			} else {
				rep, err = im.ImportDiscounts(ctx, f, opts)
			}
			if rep != nil {
				printReport(cmd.OutOrStdout(), kind, rep)
			}
			return err
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "scholarships <file.json>",
			Short: "Import scholarships",
			Args:  cobra.ExactArgs(1),
			RunE:  run("scholarships"),
		},
		&cobra.Command{
			Use:   "discounts <file.json>",
			Short: "Import educator discounts",
			Args:  cobra.ExactArgs(1),
			RunE:  run("discounts"),
		},
	)
	return cmd
}

func printReport(w io.Writer, kind string, rep *catalog.Report) {
	fmt.Fprintf(w, "%s: %s imported, %s skipped, %s deleted", kind,
		humanize.Comma(int64(rep.Imported)), humanize.Comma(int64(rep.Skipped)), humanize.Comma(rep.Deleted))
	if rep.Duplicates > 0 {
		fmt.Fprintf(w, ", %s already stored", humanize.Comma(int64(rep.Duplicates)))
	}
	fmt.Fprintln(w)
	for _, e := range rep.Errors {
		fmt.Fprintf(w, "  skipped %s\n", e)
	}
}

func newScrapeCmd(g *globals) *cobra.Command {
	var (
		sources      []string
		dryRun       bool
		asJSON       bool
		useAssistant bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the configured listing pages into the catalog",
		Long: `scrape fetches every configured listing page, or only those named with
--source, and imports new scholarships and discounts. Records already in the
catalog are left alone. --dry-run prints what would be imported instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				cfg    *config.Config
				logger *slog.Logger
				im     scrape.Importer
				err    error
			)
			if dryRun {
				cfg, logger, err = g.load()
			} else {
				var db *store.PostgresStore
				db, cfg, logger, err = g.openStore(ctx)
				if err == nil {
					defer db.Close()
					im = catalog.NewImporter(db, logger)
				}
			}
			if err != nil {
				return err
			}

			var asst assistant.Assistant
			if useAssistant || cfg.Scrape.UseAssistant {
				cfg.Scrape.UseAssistant = true
				if asst, err = assistant.New(ctx, cfg.Assistant, cfg.AssistantTimeout()); err != nil {
					return err
				}
			}
			runner, err := scrape.NewFromConfig(cfg.Scrape, asst, im, nil, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				batch, err := runner.Collect(ctx, sources...)
				if err != nil {
					return err
				}
				if asJSON {
					return encodeJSON(out, batch)
				}
				printSources(out, batch.Sources)
				fmt.Fprintf(out, "would import %s scholarships, %s discounts\n",
					humanize.Comma(int64(len(batch.Scholarships))), humanize.Comma(int64(len(batch.Discounts))))
				return nil
			}

			res, err := runner.Run(ctx, sources...)
			if res != nil {
				if asJSON {
					if encErr := encodeJSON(out, res); encErr != nil {
						return encErr
					}
				} else {
					printSources(out, res.Sources)
					if res.ScholarshipReport != nil {
						printReport(out, "scholarships", res.ScholarshipReport)
					}
					if res.DiscountReport != nil {
						printReport(out, "discounts", res.DiscountReport)
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Scrape only the named sources")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the records instead of importing them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&useAssistant, "assistant", false, "Classify scholarships with the configured language model")
	return cmd
}

func printSources(w io.Writer, results []scrape.SourceResult) {
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s (%s): failed: %s\n", r.Name, r.Kind, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s (%s): %s listings\n", r.Name, r.Kind, humanize.Comma(int64(r.Listings)))
	}
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCleanCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove catalog records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "scholarships",
		Short: "Delete every scholarship; discounts are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, logger, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.DeleteAllScholarships(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("scholarships removed", "count", n)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s scholarships\n", humanize.Comma(n))
			return nil
		},
	})
	return cmd
}

func newMaintainCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run every maintenance job once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, logger, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			sched, err := scheduler.New(db, nil, cfg.Maintenance.Schedule, logger)
			if err != nil {
				return err
			}
			rep, err := sched.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return encodeJSON(out, rep)
			}
			fmt.Fprintf(out, "expired discounts:   %d\n", rep.ExpiredDiscounts)
			fmt.Fprintf(out, "activated discounts: %d\n", rep.ActivatedDiscounts)
			fmt.Fprintf(out, "rolled deadlines:    %d\n", rep.RolledDeadlines)
			if rep.Stats != nil {
				fmt.Fprintf(out, "active scholarships: %s\n", humanize.Comma(int64(rep.Stats.ActiveScholarships)))
				fmt.Fprintf(out, "active discounts:    %s\n", humanize.Comma(int64(rep.Stats.ActiveDiscounts)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
