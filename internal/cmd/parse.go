package cmd

import (
	"context"
	"errors"
	"sort"

	"logsift/internal/database"
	"logsift/internal/database/repositories"
	"logsift/internal/discovery"
	"logsift/internal/export"
	"logsift/internal/ingestion"
	"logsift/internal/parser/nginx"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse the local logs and export the combined tables",
	Long: `Discover the access logs in ACCESS_LOG_DIR (ACCESS_LOG_PATTERN) and the error
logs in ERROR_LOG_DIR (ERROR_LOG_PATTERN), tokenize every line and write one
combined CSV per kind. When SQLITE_EXPORT_PATH is set the same tables are
also written to SQLite. Every export replaces the previous one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		return parse(ctx)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parse(ctx context.Context) error {
	sinks := []ingestion.Sink{
		export.NewCSVSink(cfg.Export.AccessCSVPath, cfg.Export.ErrorCSVPath, logger),
	}

	if cfg.Export.SQLitePath != "" {
		db, err := database.NewConnection(&database.Config{Path: cfg.Export.SQLitePath}, logger)
		if err != nil {
			return err
		}
		defer closeDB(db)
		sinks = append(sinks, export.NewSQLiteSink(repositories.NewLogTableRepository(db, logger), logger))
	}

	pipeline := ingestion.NewPipeline(
		ingestion.Config{
			Access: discovery.Source{
				Kind:    discovery.Access,
				Dir:     cfg.LogSources.AccessDir,
				Pattern: cfg.LogSources.AccessPattern,
			},
			Error: discovery.Source{
				Kind:    discovery.Error,
				Dir:     cfg.LogSources.ErrorDir,
				Pattern: cfg.LogSources.ErrorPattern,
			},
			WorkerPoolSize: cfg.Performance.WorkerPoolSize,
		},
		discovery.NewFinder(logger),
		nginx.NewAccessParser(logger),
		nginx.NewErrorParser(logger),
		sinks,
		logger,
	)

	report, err := pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted, nothing further was exported")
		}
		return err
	}

	printBatchReport(report)
	return nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		logger.Warn("Failed to close the export database", logger.Args("error", err))
	}
}

func printBatchReport(r *ingestion.BatchReport) {
	data := pterm.TableData{
		{"Kind", "Files", "Failed", "Records", "Lines", "Malformed units", "Bad timestamps"},
	}
	for _, k := range []ingestion.KindReport{r.Access, r.Error} {
		data = append(data, []string{
			string(k.Kind),
			pterm.Sprint(k.FilesProcessed),
			pterm.Sprint(k.FilesFailed),
			pterm.Sprint(k.Records),
			pterm.Sprint(k.Accounting.Lines),
			pterm.Sprint(k.Accounting.Units),
			pterm.Sprint(k.Accounting.BadTimestamps),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	for _, k := range []ingestion.KindReport{r.Access, r.Error} {
		for _, f := range k.Files {
			if f.Err != nil {
				logger.Warn("File skipped", logger.Args("kind", k.Kind, "path", f.Path, "error", f.Err))
			}
		}
		deviations := make([]string, 0, len(k.Accounting.Deviations))
		for d := range k.Accounting.Deviations {
			deviations = append(deviations, string(d))
		}
		sort.Strings(deviations)
		for _, d := range deviations {
			logger.Info("Deviation",
				logger.Args("kind", k.Kind, "cause", d, "count", k.Accounting.Deviations[nginx.Deviation(d)]))
		}
	}
	pterm.Success.Printfln("Exported %d access and %d error records", r.Access.Records, r.Error.Records)
}
