package services

import (
	"errors"
	"fmt"

	apperrors "github.com/crem-edu/qcm-importer/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")

	// Load errors
	ErrUnreadableWorkbook = errors.New("file cannot be read as a spreadsheet")
	ErrEmptyWorkbook      = errors.New("spreadsheet has no sheets")
	ErrMissingColumns     = errors.New("required columns are missing")
	ErrUnsupportedFormat  = errors.New("unsupported file format")

	// Question errors
	ErrNoOptions        = errors.New("question has no options")
	ErrNoCorrectAnswer  = errors.New("no correct answer identified")
	ErrNoQuestions      = errors.New("no questions loaded")

	// Attachment errors
	ErrNotAnImage     = errors.New("only image files are accepted")
	ErrImageTooLarge  = errors.New("image exceeds the 5 MB limit")

	// Licence errors
	ErrNoClientColumn = errors.New("client column not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// FormatError marks input that could not be parsed as a recognized
// container. Fatal to the whole load.
type FormatError struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func (fe *FormatError) Error() string {
	return fmt.Sprintf("unreadable input %q: %s", fe.FileName, fe.Reason)
}

func (fe *FormatError) Unwrap() error {
	return fe.Err
}

// ResolutionError marks a single question whose correct answers could not
// be resolved. Fatal to that question only; the batch continues.
type ResolutionError struct {
	QuestionNumber int    `json:"question_number"`
	Reason         string `json:"reason"`
}

func (re *ResolutionError) Error() string {
	return fmt.Sprintf("question %d: %s", re.QuestionNumber, re.Reason)
}

// AttachmentError marks a rejected image attachment attempt. Existing
// state is untouched.
type AttachmentError struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

func (ae *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q rejected: %s", ae.FileName, ae.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewFormatError(fileName, reason string, err error) *FormatError {
	return &FormatError{FileName: fileName, Reason: reason, Err: err}
}

func NewResolutionError(questionNumber int, reason string) *ResolutionError {
	return &ResolutionError{QuestionNumber: questionNumber, Reason: reason}
}

func NewAttachmentError(fileName, reason string) *AttachmentError {
	return &AttachmentError{FileName: fileName, Reason: reason}
}

// IsFormat checks if error represents an unparseable input container
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe) ||
		errors.Is(err, ErrUnreadableWorkbook) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrMissingColumns) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var sve *apperrors.ValidationError
	return errors.As(err, &sve)
}

// IsResolution checks if error is fatal to one question only
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsAttachment checks if error represents a rejected attachment
func IsAttachment(err error) bool {
	var ae *AttachmentError
	return errors.As(err, &ae)
}
