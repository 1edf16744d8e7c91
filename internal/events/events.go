package events

import (
	"time"

	"github.com/google/uuid"
)

// ImportEventType distinguishes the lifecycle events emitted by the
// conversion and import pipelines.
type ImportEventType string

const (
	EventConversionCompleted ImportEventType = "conversion.completed"
	EventConversionFailed    ImportEventType = "conversion.failed"
	EventMoodleImportDone    ImportEventType = "moodle_import.completed"
	EventMoodleImportFailed  ImportEventType = "moodle_import.failed"
)

// ImportEvent is published after each conversion or Moodle push so that
// downstream consumers (reporting, notifications) can react without
// touching the service database.
type ImportEvent struct {
	ID        string          `json:"id"`
	Type      ImportEventType `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`

	JobID         string `json:"job_id"`
	FileName      string `json:"file_name"`
	QuestionCount int    `json:"question_count"`
	SkippedCount  int    `json:"skipped_count"`
	CategoryID    int    `json:"category_id,omitempty"`
	ImportedCount int    `json:"imported_count,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewImportEvent stamps identity and time onto an event.
func NewImportEvent(eventType ImportEventType, jobID string) *ImportEvent {
	return &ImportEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "qcm-importer",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
	}
}
