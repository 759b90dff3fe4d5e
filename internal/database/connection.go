package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pterm/pterm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Path          string
	SlowThreshold time.Duration
}

// statementTarget picks the table a statement works on, e.g. INSERT INTO `access_logs`
var statementTarget = regexp.MustCompile("(?i)\\b(?:INTO|FROM|ON|TABLE(?:\\s+IF\\s+(?:NOT\\s+)?EXISTS)?)\\s+[`\"]?(\\w+)")

// ExportLogger reports the statements of an export run through pterm.
// Every INSERT is logged as one batch with its table and row count, and the
// rows written per table are tallied for the run summary.
type ExportLogger struct {
	logger        *pterm.Logger
	slowThreshold time.Duration
	level         logger.LogLevel

	mu       sync.Mutex
	inserted map[string]int64
}

func NewExportLogger(ptermLogger *pterm.Logger, slowThreshold time.Duration) *ExportLogger {
	return &ExportLogger{
		logger:        ptermLogger,
		slowThreshold: slowThreshold,
		level:         logger.Warn,
		inserted:      make(map[string]int64),
	}
}

func (l *ExportLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l *ExportLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.Debug(fmt.Sprintf(msg, data...))
	}
}

func (l *ExportLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *ExportLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *ExportLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	op, table := describeStatement(sql)

	if err != nil {
		l.logger.Error("Export statement failed",
			l.logger.Args("op", op, "table", table, "error", err, "sql", truncate(sql, 200)))
		return
	}

	if op == "INSERT" {
		l.mu.Lock()
		l.inserted[table] += rows
		total := l.inserted[table]
		l.mu.Unlock()
		l.logger.Trace("Inserted batch",
			l.logger.Args("table", table, "rows", rows, "table_rows", total, "duration_ms", elapsed.Milliseconds()))
	} else {
		l.logger.Trace("Export statement",
			l.logger.Args("op", op, "table", table, "rows", rows, "duration_ms", elapsed.Milliseconds()))
	}

	if elapsed >= l.slowThreshold {
		l.logger.Debug("Slow export statement",
			l.logger.Args("op", op, "table", table, "rows", rows, "duration_ms", elapsed.Milliseconds()))
	}
}

// Inserted returns the rows inserted into table since the connection was opened
func (l *ExportLogger) Inserted(table string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inserted[table]
}

// describeStatement returns the upper-cased leading keyword of sql and the table it targets
func describeStatement(sql string) (string, string) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "", ""
	}
	op := strings.ToUpper(fields[0])
	table := ""
	if m := statementTarget.FindStringSubmatch(sql); m != nil {
		table = m[1]
	}
	return op, table
}

// NewConnection opens (creating if needed) the SQLite export database
func NewConnection(cfg *Config, logger *pterm.Logger) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Single writer: WAL is not needed, but a busy timeout guards against a reader holding the file
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	slowThreshold := cfg.SlowThreshold
	if slowThreshold <= 0 {
		slowThreshold = 500 * time.Millisecond
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewExportLogger(logger, slowThreshold),
	})
	if err != nil {
		logger.WithCaller().Error("Failed to open the export database.", logger.Args("path", cfg.Path, "error", err))
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	logger.Debug("Export database connection established.", logger.Args("path", cfg.Path))
	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
