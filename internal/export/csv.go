package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"logsift/internal/parser/nginx"

	"github.com/pterm/pterm"
)

// CSVSink writes the combined tables as comma separated files with a header row.
// Each write replaces the target file; readers never observe a half written export.
type CSVSink struct {
	accessPath string
	errorPath  string
	logger     *pterm.Logger
}

// NewCSVSink creates a sink writing the access table to accessPath and the error table to errorPath
func NewCSVSink(accessPath, errorPath string, logger *pterm.Logger) *CSVSink {
	return &CSVSink{
		accessPath: accessPath,
		errorPath:  errorPath,
		logger:     logger,
	}
}

// Name returns the sink identifier
func (s *CSVSink) Name() string {
	return "csv"
}

// WriteAccess exports the access table
func (s *CSVSink) WriteAccess(records []nginx.AccessRecord) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}
	return s.writeTable(s.accessPath, nginx.AccessColumns, rows)
}

// WriteError exports the error table
func (s *CSVSink) WriteError(records []nginx.ErrorRecord) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
	}
	return s.writeTable(s.errorPath, nginx.ErrorColumns, rows)
}

func (s *CSVSink) writeTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	tmpPath := tmp.Name()
	// No-op once the rename succeeded
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod export file: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.logger.Info("Exported table",
		s.logger.Args("path", path, "rows", len(rows), "columns", len(header)))
	return nil
}
