package repositories

import (
	"logsift/internal/database/models"

	"github.com/pterm/pterm"
	"gorm.io/gorm"
)

// SQLite has a variable limit (32766 since 3.32); stay well below it
const (
	maxSQLiteVariables = 32766
	accessColumns      = 8
	errorColumns       = 10
	accessBatchSize    = maxSQLiteVariables / accessColumns / 2
	errorBatchSize     = maxSQLiteVariables / errorColumns / 2
)

// LogTableRepository replaces the exported log tables
type LogTableRepository interface {
	ReplaceAccessLogs(rows []*models.AccessLog) error
	ReplaceErrorLogs(rows []*models.ErrorLog) error
	CountAccessLogs() (int64, error)
	CountErrorLogs() (int64, error)
}

type logTableRepo struct {
	db     *gorm.DB
	logger *pterm.Logger
}

// NewLogTableRepository creates a new log table repository
func NewLogTableRepository(db *gorm.DB, logger *pterm.Logger) LogTableRepository {
	return &logTableRepo{
		db:     db,
		logger: logger,
	}
}

// ReplaceAccessLogs drops the access table and fills it with rows, in one transaction
func (r *logTableRepo) ReplaceAccessLogs(rows []*models.AccessLog) error {
	return replaceTable(r.db, r.logger, &models.AccessLog{}, rows, accessBatchSize)
}

// ReplaceErrorLogs drops the error table and fills it with rows, in one transaction
func (r *logTableRepo) ReplaceErrorLogs(rows []*models.ErrorLog) error {
	return replaceTable(r.db, r.logger, &models.ErrorLog{}, rows, errorBatchSize)
}

func (r *logTableRepo) CountAccessLogs() (int64, error) {
	var count int64
	err := r.db.Model(&models.AccessLog{}).Count(&count).Error
	return count, err
}

func (r *logTableRepo) CountErrorLogs() (int64, error) {
	var count int64
	err := r.db.Model(&models.ErrorLog{}).Count(&count).Error
	return count, err
}

func replaceTable[M any](db *gorm.DB, logger *pterm.Logger, model *M, rows []*M, batchSize int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(model); err != nil {
			logger.WithCaller().Error("Failed to drop table", logger.Args("error", err))
			return err
		}
		if err := tx.AutoMigrate(model); err != nil {
			logger.WithCaller().Error("Failed to create table", logger.Args("error", err))
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			logger.WithCaller().Error("Failed to insert rows",
				logger.Args("count", len(rows), "error", err))
			return err
		}
		logger.Trace("Replaced table rows", logger.Args("count", len(rows)))
		return nil
	})
}
