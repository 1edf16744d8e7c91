package errors

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("category", "category name is required", "")

	assert.Equal(t, "category", err.Field)
	assert.Equal(t, "category name is required", err.Message)
	assert.Equal(t, "", err.Value)
	assert.Equal(t, "validation error on field 'category': category name is required", err.Error())
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("source", "must be spreadsheet or document", "question_source", "pdf")

	assert.Equal(t, "question_source", err.Rule)
	assert.Equal(t, "source", err.Field)
	assert.Equal(t, "pdf", err.Value)
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("questions", "is required", nil))
	assert.Equal(t, "validation failed: questions is required", errs.Error())

	errs = append(errs, *NewValidationError("category_id", "must be at least 1", 0))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestToValidationErrors(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("question_source", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "spreadsheet" || value == "document"
	}))
	require.NoError(t, v.RegisterValidation("qcm_letters", func(fl validator.FieldLevel) bool {
		return false
	}))

	t.Run("CustomRuleMessages", func(t *testing.T) {
		payload := struct {
			Source  string `validate:"question_source"`
			Letters string `validate:"qcm_letters"`
		}{Source: "pdf", Letters: "XYZ"}

		errs := ToValidationErrors(v.Struct(payload))
		require.Len(t, errs, 2)

		assert.Equal(t, "question_source", errs[0].Rule)
		assert.Equal(t, "must be spreadsheet or document", errs[0].Message)
		assert.Equal(t, "pdf", errs[0].Value)

		assert.Equal(t, "qcm_letters", errs[1].Rule)
		assert.Equal(t, "must be letters A through E", errs[1].Message)
	})

	t.Run("BuiltinRuleMessages", func(t *testing.T) {
		payload := struct {
			Category string `validate:"required"`
			Points   int    `validate:"min=1"`
		}{}

		errs := ToValidationErrors(v.Struct(payload))
		require.Len(t, errs, 2)
		assert.Equal(t, "is required", errs[0].Message)
		assert.Equal(t, "must be at least 1", errs[1].Message)
	})

	t.Run("NonValidatorErrorYieldsNothing", func(t *testing.T) {
		assert.Empty(t, ToValidationErrors(errors.New("broken pipe")))
	})
}
