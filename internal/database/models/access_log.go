package models

import (
	"time"
)

// AccessLog is one row of the exported access table
type AccessLog struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	Seq        int        `gorm:"not null;index:idx_access_seq"` // position in the combined table
	ClientIP   string     `gorm:"index:idx_access_client_ip"`
	Timestamp  *time.Time `gorm:"index:idx_access_timestamp"`
	HTTPMethod *string
	URL        *string    `gorm:"column:url"`
	StatusCode *string    `gorm:"index:idx_access_status"`
	UserAgent  string     `gorm:"type:text"` // JSON array of raw fragments
}

func (AccessLog) TableName() string {
	return "access_logs"
}
