package export

import (
	"fmt"

	"logsift/internal/database/models"
	"logsift/internal/database/repositories"
	"logsift/internal/parser/nginx"

	"github.com/pterm/pterm"
)

// SQLiteSink writes the combined tables into the access_logs and error_logs tables.
// Seq keeps the order of the combined table.
type SQLiteSink struct {
	repo   repositories.LogTableRepository
	logger *pterm.Logger
}

// NewSQLiteSink creates a sink backed by repo
func NewSQLiteSink(repo repositories.LogTableRepository, logger *pterm.Logger) *SQLiteSink {
	return &SQLiteSink{repo: repo, logger: logger}
}

// Name returns the sink identifier
func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// WriteAccess replaces the access_logs table
func (s *SQLiteSink) WriteAccess(records []nginx.AccessRecord) error {
	rows := make([]*models.AccessLog, len(records))
	for i, rec := range records {
		rows[i] = &models.AccessLog{
			Seq:        i + 1,
			ClientIP:   rec.ClientIP,
			Timestamp:  rec.Timestamp,
			HTTPMethod: rec.HTTPMethod,
			URL:        rec.URL,
			StatusCode: rec.StatusCode,
			UserAgent:  rec.UserAgentJSON(),
		}
	}

	if err := s.repo.ReplaceAccessLogs(rows); err != nil {
		return fmt.Errorf("replace access_logs: %w", err)
	}
	s.logger.Info("Exported table", s.logger.Args("table", "access_logs", "rows", len(rows)))
	return nil
}

// WriteError replaces the error_logs table
func (s *SQLiteSink) WriteError(records []nginx.ErrorRecord) error {
	rows := make([]*models.ErrorLog, len(records))
	for i, rec := range records {
		rows[i] = &models.ErrorLog{
			Seq:        i + 1,
			Timestamp:  rec.Timestamp,
			ErrorLevel: rec.ErrorLevel,
			ProcessID:  rec.ProcessID,
			Message:    rec.Message,
			ClientIP:   rec.ClientIP,
			Server:     rec.Server,
			Request:    rec.Request,
			Host:       rec.Host,
		}
	}

	if err := s.repo.ReplaceErrorLogs(rows); err != nil {
		return fmt.Errorf("replace error_logs: %w", err)
	}
	s.logger.Info("Exported table", s.logger.Args("table", "error_logs", "rows", len(rows)))
	return nil
}
