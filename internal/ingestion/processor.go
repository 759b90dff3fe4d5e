package ingestion

import (
	"context"

	"logsift/internal/discovery"
	"logsift/internal/parser/nginx"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// FileParser turns one log file into records
type FileParser[T any] interface {
	Name() string
	ParseFile(path string) (*nginx.Outcome[T], error)
}

// parseAll parses files with up to workers files in flight and concatenates the
// records in the order of files. A file that cannot be read is reported and skipped.
// Only cancellation of ctx aborts the batch.
func parseAll[T any](ctx context.Context, kind discovery.Kind, files []discovery.File, parser FileParser[T], workers int, logger *pterm.Logger) ([]T, KindReport, error) {
	report := KindReport{Kind: kind, FilesDiscovered: len(files)}

	if workers <= 0 {
		workers = 4
	}

	outcomes := make([]*nginx.Outcome[T], len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			logger.Debug("Parsing log file",
				logger.Args("kind", kind, "parser", parser.Name(), "path", file.Path))

			out, err := parser.ParseFile(file.Path)
			if err != nil {
				logger.WithCaller().Warn("Failed to parse log file, continuing with next file",
					logger.Args("kind", kind, "path", file.Path, "error", err))
				errs[i] = err
				return nil
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, err
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	total := 0
	for _, out := range outcomes {
		if out != nil {
			total += len(out.Records)
		}
	}

	records := make([]T, 0, total)
	for i, file := range files {
		if errs[i] != nil {
			report.add(file, nil, 0, errs[i])
			continue
		}
		out := outcomes[i]
		records = append(records, out.Records...)
		report.add(file, &out.Accounting, len(out.Records), nil)
	}

	return records, report, nil
}
