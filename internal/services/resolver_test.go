package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCorrectAnswers(t *testing.T) {
	options := []string{"Paris", "London", "Berlin", "Madrid"}

	t.Run("ExactMatch", func(t *testing.T) {
		assert.Equal(t, []string{"Paris"}, ResolveCorrectAnswers("Paris", options))
	})

	t.Run("CaseInsensitiveMatch", func(t *testing.T) {
		assert.Equal(t, []string{"London"}, ResolveCorrectAnswers("LONDON", options))
	})

	t.Run("SubstringOptionContainsPart", func(t *testing.T) {
		assert.Equal(t, []string{"Berlin"}, ResolveCorrectAnswers("Berl", options))
	})

	t.Run("SubstringPartContainsOption", func(t *testing.T) {
		assert.Equal(t, []string{"Madrid"}, ResolveCorrectAnswers("Madrid (Spain)", options))
	})

	t.Run("MultipleCommaSeparatedParts", func(t *testing.T) {
		got := ResolveCorrectAnswers("Paris, berlin", options)
		assert.Equal(t, []string{"Paris", "Berlin"}, got)
	})

	t.Run("UnmatchedPartsDroppedSilently", func(t *testing.T) {
		got := ResolveCorrectAnswers("Paris, Tokyo", options)
		assert.Equal(t, []string{"Paris"}, got)
	})

	t.Run("ExactWinsOverSubstring", func(t *testing.T) {
		opts := []string{"abc def", "abc"}
		assert.Equal(t, []string{"abc"}, ResolveCorrectAnswers("abc", opts))
	})

	t.Run("FirstOptionInOrderWinsTies", func(t *testing.T) {
		opts := []string{"true statement", "another true statement"}
		assert.Equal(t, []string{"true statement"}, ResolveCorrectAnswers("true", opts))
	})

	t.Run("EmptyTextReturnsNil", func(t *testing.T) {
		assert.Nil(t, ResolveCorrectAnswers("   ", options))
	})

	t.Run("NoMatchReturnsEmpty", func(t *testing.T) {
		assert.Empty(t, ResolveCorrectAnswers("Rome", options))
	})
}
