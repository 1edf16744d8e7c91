package services

import (
	"context"
	"strings"
	"testing"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questionBlock(title string, options ...string) string {
	return title + "\n" + strings.Join(options, "\n") + "\n"
}

func TestSplitCorrectionBlock(t *testing.T) {
	t.Run("SplitsAtMarkerLine", func(t *testing.T) {
		body, corrections := splitCorrectionBlock("q1\nA\nCorrection\nQCM 1 - A")
		assert.Equal(t, "q1\nA", body)
		assert.Equal(t, "QCM 1 - A", corrections)
	})

	t.Run("MarkerIsCaseInsensitiveAndTrimmed", func(t *testing.T) {
		body, corrections := splitCorrectionBlock("q1\n  CORRECTION  \nrest")
		assert.Equal(t, "q1", body)
		assert.Equal(t, "rest", corrections)
	})

	t.Run("NoMarkerKeepsEverythingInBody", func(t *testing.T) {
		body, corrections := splitCorrectionBlock("q1\nA\nB")
		assert.Equal(t, "q1\nA\nB", body)
		assert.Empty(t, corrections)
	})

	t.Run("MarkerInsideALineDoesNotSplit", func(t *testing.T) {
		body, corrections := splitCorrectionBlock("voir la correction plus bas\nq1")
		assert.Equal(t, "voir la correction plus bas\nq1", body)
		assert.Empty(t, corrections)
	})
}

func TestParseQuestions(t *testing.T) {
	t.Run("SixLineWindows", func(t *testing.T) {
		body := questionBlock("Premiere question ?", "opt1", "opt2", "opt3", "opt4", "opt5") +
			questionBlock("Deuxieme question ?", "o1", "o2", "o3", "o4", "o5")

		questions := parseQuestions(body)
		require.Len(t, questions, 2)

		assert.Equal(t, 1, questions[0].ID)
		assert.Equal(t, "Premiere question ?", questions[0].Title)
		require.Len(t, questions[0].Answers, 5)
		assert.Equal(t, "opt1", questions[0].Answers[0].Text)
		assert.Equal(t, "A", questions[0].Answers[0].Letter)
		assert.Equal(t, "E", questions[0].Answers[4].Letter)

		assert.Equal(t, 2, questions[1].ID)
		assert.Equal(t, "Deuxieme question ?", questions[1].Title)
	})

	t.Run("BlankLinesIgnored", func(t *testing.T) {
		body := "Titre ?\n\n  \nA1\nA2\nA3\nA4\nA5\n"
		questions := parseQuestions(body)
		require.Len(t, questions, 1)
		assert.Equal(t, "A5", questions[0].Answers[4].Text)
	})

	t.Run("TrailingPartialWindowDiscarded", func(t *testing.T) {
		body := questionBlock("Complete ?", "a", "b", "c", "d", "e") +
			"Tronquee ?\nseulement\ntrois\noptions"
		questions := parseQuestions(body)
		require.Len(t, questions, 1)
		assert.Equal(t, "Complete ?", questions[0].Title)
	})

	t.Run("ExactlySixLinesYieldsOneQuestion", func(t *testing.T) {
		questions := parseQuestions(questionBlock("t", "1", "2", "3", "4", "5"))
		assert.Len(t, questions, 1)
	})
}

func TestParseCorrections(t *testing.T) {
	t.Run("DashEnDashAndColonMarkers", func(t *testing.T) {
		block := "QCM 1 - AC\nQCM 2 – b\nQCM3: ABE"
		entries := parseCorrections(block)
		require.Len(t, entries, 3)

		assert.Equal(t, 1, entries[0].QCMNumber)
		assert.Equal(t, []string{"A", "C"}, entries[0].CorrectLetters)
		assert.Equal(t, []string{"B"}, entries[1].CorrectLetters)
		assert.Equal(t, 3, entries[2].QCMNumber)
		assert.Equal(t, []string{"A", "B", "E"}, entries[2].CorrectLetters)
	})

	t.Run("FeedbackLinesAccumulateUntilNextMarker", func(t *testing.T) {
		block := "QCM 1 - A\nExplication ligne 1\nExplication ligne 2\nQCM 2 - B\nAutre note"
		entries := parseCorrections(block)
		require.Len(t, entries, 2)
		assert.Equal(t, "Explication ligne 1\nExplication ligne 2", entries[0].Feedback)
		assert.Equal(t, "Autre note", entries[1].Feedback)
	})

	t.Run("LinesBeforeFirstMarkerDropped", func(t *testing.T) {
		entries := parseCorrections("preambule sans marqueur\nQCM 1 - A")
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].Feedback)
	})

	t.Run("LowercaseMarkerAccepted", func(t *testing.T) {
		entries := parseCorrections("qcm 4 - ce")
		require.Len(t, entries, 1)
		assert.Equal(t, 4, entries[0].QCMNumber)
		assert.Equal(t, []string{"C", "E"}, entries[0].CorrectLetters)
	})
}

func TestApplyCorrections(t *testing.T) {
	makeQuestion := func(id int) *models.Question {
		q := &models.Question{ID: id}
		for j := 0; j < 5; j++ {
			q.Answers = append(q.Answers, models.Answer{
				Text:   "opt",
				Letter: string(rune('A' + j)),
			})
		}
		return q
	}

	t.Run("PositionalPairingIgnoresPrintedNumber", func(t *testing.T) {
		questions := []*models.Question{makeQuestion(1), makeQuestion(2)}
		// The printed numbers are wrong on purpose; position wins.
		corrections := []*models.CorrectionEntry{
			{QCMNumber: 7, CorrectLetters: []string{"A", "C"}},
			{QCMNumber: 1, CorrectLetters: []string{"E"}},
		}

		applyCorrections(questions, corrections)

		assert.True(t, questions[0].Answers[0].IsCorrect)
		assert.False(t, questions[0].Answers[1].IsCorrect)
		assert.True(t, questions[0].Answers[2].IsCorrect)
		assert.True(t, questions[1].Answers[4].IsCorrect)
		assert.False(t, questions[1].Answers[0].IsCorrect)
	})

	t.Run("StopsAtShorterSequence", func(t *testing.T) {
		questions := []*models.Question{makeQuestion(1), makeQuestion(2)}
		corrections := []*models.CorrectionEntry{{QCMNumber: 1, CorrectLetters: []string{"B"}}}

		applyCorrections(questions, corrections)

		assert.True(t, questions[0].Answers[1].IsCorrect)
		for _, a := range questions[1].Answers {
			assert.False(t, a.IsCorrect)
		}
	})

	t.Run("FeedbackReplacesOnlyWhenPresent", func(t *testing.T) {
		questions := []*models.Question{makeQuestion(1), makeQuestion(2)}
		questions[1].GeneralFeedback = "conserve"
		corrections := []*models.CorrectionEntry{
			{QCMNumber: 1, CorrectLetters: []string{"A"}, Feedback: "remplace"},
			{QCMNumber: 2, CorrectLetters: []string{"A"}},
		}

		applyCorrections(questions, corrections)

		assert.Equal(t, "remplace", questions[0].GeneralFeedback)
		assert.Equal(t, "conserve", questions[1].GeneralFeedback)
	})
}

func TestDocumentServiceParseText(t *testing.T) {
	service := NewDocumentService(utils.NewDevelopmentLogger())

	text := questionBlock("Quelle est la capitale de la France ?",
		"Paris", "Londres", "Berlin", "Madrid", "Rome") +
		questionBlock("Combien font 2+2 ?", "3", "4", "5", "6", "7") +
		"Correction\n" +
		"QCM 1 - A\nLa capitale est Paris.\n" +
		"QCM 2 - B\n"

	session := service.ParseText(context.Background(), text, "qcm.txt")

	assert.Equal(t, models.SourceDocument, session.Source)
	assert.Equal(t, "qcm.txt", session.FileName)
	require.Len(t, session.Questions, 2)
	require.Len(t, session.Corrections, 2)

	assert.True(t, session.Questions[0].Answers[0].IsCorrect)
	assert.Equal(t, "La capitale est Paris.", session.Questions[0].GeneralFeedback)
	assert.True(t, session.Questions[1].Answers[1].IsCorrect)
	correct := session.Questions[1].CorrectAnswers()
	require.Len(t, correct, 1)
	assert.Equal(t, "4", correct[0].Text)
}

func TestLoadDocumentUnsupportedFormat(t *testing.T) {
	service := NewDocumentService(utils.NewDevelopmentLogger())

	_, err := service.LoadDocument(context.Background(), strings.NewReader("data"), "slides.pdf")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
