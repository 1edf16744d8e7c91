package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportJobStatus string

const (
	ImportPending    ImportJobStatus = "pending"
	ImportProcessing ImportJobStatus = "processing"
	ImportCompleted  ImportJobStatus = "completed"
	ImportFailed     ImportJobStatus = "failed"
)

// ImportJob records one conversion or Moodle push for audit purposes.
type ImportJob struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"` // UUID
	Source string `json:"source" gorm:"not null;size:20;index"`

	// File info
	FileName string `json:"file_name" gorm:"not null;size:255"`
	FileSize int64  `json:"file_size" gorm:"not null"`

	// Processing info
	Status        ImportJobStatus `json:"status" gorm:"default:pending;index"`
	TotalRows     int             `json:"total_rows"`
	QuestionCount int             `json:"question_count"`
	SkippedCount  int             `json:"skipped_count"`

	// Moodle push info, empty for download-only conversions
	CategoryID    int `json:"category_id"`
	ImportedCount int `json:"imported_count"`

	// Results
	Errors datatypes.JSON `json:"errors" gorm:"type:jsonb"` // []RowError

	// Timestamps
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RowError describes why a single input row or parsed question was rejected.
// Row is 1-based, matching what the author sees in their file.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ConversionResult summarizes one generation run over a session.
type ConversionResult struct {
	XML           []byte     `json:"-"`
	QuestionCount int        `json:"question_count"`
	SkippedCount  int        `json:"skipped_count"`
	Errors        []RowError `json:"errors,omitempty"`
}
