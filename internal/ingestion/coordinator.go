package ingestion

import (
	"context"
	"fmt"
	"time"

	"logsift/internal/discovery"
	"logsift/internal/parser/nginx"

	"github.com/pterm/pterm"
)

// Sink persists the combined tables of a batch. Every write replaces what a
// previous run exported.
type Sink interface {
	Name() string
	WriteAccess(records []nginx.AccessRecord) error
	WriteError(records []nginx.ErrorRecord) error
}

// Config holds the inputs of a pipeline run
type Config struct {
	Access         discovery.Source
	Error          discovery.Source
	WorkerPoolSize int
}

// Pipeline discovers, parses and exports one batch of access and error logs
type Pipeline struct {
	cfg          Config
	finder       *discovery.Finder
	accessParser FileParser[nginx.AccessRecord]
	errorParser  FileParser[nginx.ErrorRecord]
	sinks        []Sink
	logger       *pterm.Logger
}

// NewPipeline creates a new pipeline
func NewPipeline(
	cfg Config,
	finder *discovery.Finder,
	accessParser FileParser[nginx.AccessRecord],
	errorParser FileParser[nginx.ErrorRecord],
	sinks []Sink,
	logger *pterm.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		finder:       finder,
		accessParser: accessParser,
		errorParser:  errorParser,
		sinks:        sinks,
		logger:       logger,
	}
}

// Run parses the access and the error logs, then writes both tables to every sink.
// A file that cannot be parsed is reported and skipped. Nothing is exported when
// ctx is cancelled before parsing completes; a failing sink aborts the batch.
func (p *Pipeline) Run(ctx context.Context) (*BatchReport, error) {
	start := time.Now()
	report := &BatchReport{}

	p.logger.Info("Starting parse pipeline",
		p.logger.Args("sinks", len(p.sinks), "workers", p.cfg.WorkerPoolSize))

	accessRecords, accessReport, err := runKind(ctx, p, p.cfg.Access, p.accessParser)
	report.Access = accessReport
	if err != nil {
		return report, err
	}

	errorRecords, errorReport, err := runKind(ctx, p, p.cfg.Error, p.errorParser)
	report.Error = errorReport
	if err != nil {
		return report, err
	}

	if err := ctx.Err(); err != nil {
		p.logger.Warn("Batch cancelled before export", p.logger.Args("error", err))
		return report, err
	}

	for _, sink := range p.sinks {
		if err := sink.WriteAccess(accessRecords); err != nil {
			p.logger.WithCaller().Error("Failed to export access table",
				p.logger.Args("sink", sink.Name(), "error", err))
			return report, fmt.Errorf("export access table to %s: %w", sink.Name(), err)
		}
		if err := sink.WriteError(errorRecords); err != nil {
			p.logger.WithCaller().Error("Failed to export error table",
				p.logger.Args("sink", sink.Name(), "error", err))
			return report, fmt.Errorf("export error table to %s: %w", sink.Name(), err)
		}
	}

	p.logger.Info("Parse pipeline finished",
		p.logger.Args(
			"access_records", report.Access.Records,
			"error_records", report.Error.Records,
			"malformed_units", report.Access.Accounting.Units+report.Error.Accounting.Units,
			"duration", time.Since(start).Round(time.Millisecond).String(),
		))

	return report, nil
}

// runKind discovers one source and parses its files
func runKind[T any](ctx context.Context, p *Pipeline, src discovery.Source, parser FileParser[T]) ([]T, KindReport, error) {
	files, err := p.finder.Find(src)
	if err != nil {
		// An absent directory yields an empty table rather than a failed batch
		p.logger.WithCaller().Warn("Log discovery failed, exporting an empty table",
			p.logger.Args("kind", src.Kind, "dir", src.Dir, "error", err))
		return []T{}, KindReport{Kind: src.Kind, DiscoveryErr: err}, nil
	}

	if len(files) == 0 {
		p.logger.Warn("No log files matched",
			p.logger.Args("kind", src.Kind, "dir", src.Dir, "pattern", src.Pattern))
	}

	records, report, err := parseAll(ctx, src.Kind, files, parser, p.cfg.WorkerPoolSize, p.logger)
	if err != nil {
		p.logger.Warn("Batch aborted",
			p.logger.Args("kind", src.Kind, "error", err))
		return nil, report, err
	}

	p.logger.Info("Processed log files",
		p.logger.Args(
			"kind", src.Kind,
			"files", report.FilesProcessed,
			"failed", report.FilesFailed,
			"records", report.Records,
			"malformed_units", report.Accounting.Units,
		))

	return records, report, nil
}
