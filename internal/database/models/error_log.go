package models

import (
	"time"
)

// ErrorLog is one row of the exported error table
type ErrorLog struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	Seq        int        `gorm:"not null;index:idx_error_seq"`
	Timestamp  *time.Time `gorm:"index:idx_error_timestamp"`
	ErrorLevel *string    `gorm:"index:idx_error_level"`
	ProcessID  *string
	Message    *string `gorm:"type:text"`
	ClientIP   *string
	Server     *string
	Request    *string `gorm:"type:text"`
	Host       *string
}

func (ErrorLog) TableName() string {
	return "error_logs"
}
