package validator

import (
	"regexp"

	apperrors "github.com/crem-edu/qcm-importer/internal/errors"
	"github.com/go-playground/validator/v10"
)

var letterRun = regexp.MustCompile(`^[A-Ea-e]+$`)

// Validator validates request payloads via struct tags.
type Validator struct {
	structValidator *validator.Validate
}

// New creates the shared validator instance with custom rules registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags, translating failures to the shared
// error type.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

func registerCustomValidators(v *validator.Validate) {
	v.RegisterValidation("question_source", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "spreadsheet" || value == "document"
	})

	v.RegisterValidation("qcm_letters", func(fl validator.FieldLevel) bool {
		return letterRun.MatchString(fl.Field().String())
	})
}
