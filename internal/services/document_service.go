package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
)

// Documents carry their answer options on the five lines following each
// question title, lettered A-E in order.
const optionsPerQuestion = 5

// correctionMarker starts a new correction entry: "QCM 3 - AC" and the
// variants with en-dash or colon.
var correctionMarker = regexp.MustCompile(`(?i)^QCM\s*(\d+)\s*[-–:]\s*([A-Ea-e]+)`)

// DocumentService turns an uploaded word-processor document into a
// conversion session with corrections already applied.
type DocumentService interface {
	LoadDocument(ctx context.Context, reader io.Reader, fileName string) (*models.ConversionSession, error)
	ParseText(ctx context.Context, text, fileName string) *models.ConversionSession
}

type documentService struct {
	logger utils.Logger
}

func NewDocumentService(logger utils.Logger) DocumentService {
	return &documentService{logger: logger}
}

func (s *documentService) LoadDocument(ctx context.Context, reader io.Reader, fileName string) (*models.ConversionSession, error) {
	s.logger.InfoContext(ctx, "Loading document", "file_name", fileName)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var text string
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".docx", ".doc":
		text, err = extractDocxText(data)
	case ".odt":
		text, err = extractOdtText(data)
	case ".txt":
		text = string(data)
	default:
		return nil, NewValidationError("file", ErrUnsupportedFormat.Error(), ext)
	}
	if err != nil {
		return nil, NewFormatError(fileName, "text extraction failed", err)
	}

	return s.ParseText(ctx, text, fileName), nil
}

// ParseText runs the full document pipeline: split off the correction
// block, parse questions, parse corrections, reconcile.
func (s *documentService) ParseText(ctx context.Context, text, fileName string) *models.ConversionSession {
	body, correctionBlock := splitCorrectionBlock(text)

	session := &models.ConversionSession{
		Source:    models.SourceDocument,
		FileName:  fileName,
		Questions: parseQuestions(body),
	}

	if correctionBlock != "" {
		session.Corrections = parseCorrections(correctionBlock)
		applyCorrections(session.Questions, session.Corrections)
	}

	s.logger.InfoContext(ctx, "Document parsed",
		"file_name", fileName,
		"question_count", len(session.Questions),
		"correction_count", len(session.Corrections))

	return session
}

// ===== FREE-TEXT QUESTION PARSER =====

// splitCorrectionBlock cuts the text at the first line reading exactly
// "correction" (any case). The marker line itself belongs to neither part.
func splitCorrectionBlock(text string) (body, corrections string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), "correction") {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return text, ""
}

// parseQuestions consumes the non-blank body lines in fixed windows of six:
// a title line followed by five options lettered A-E. A trailing window
// shorter than six lines is discarded, ending the parse. Documents whose
// questions do not carry exactly five options will misalign; that is a
// constraint of the input format, not something this parser detects.
func parseQuestions(body string) []*models.Question {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	var questions []*models.Question
	for i := 0; i+optionsPerQuestion < len(lines); i += optionsPerQuestion + 1 {
		q := &models.Question{
			ID:    len(questions) + 1,
			Title: lines[i],
		}
		for j := 0; j < optionsPerQuestion; j++ {
			q.Answers = append(q.Answers, models.Answer{
				Text:   lines[i+1+j],
				Letter: string(rune('A' + j)),
			})
		}
		questions = append(questions, q)
	}
	return questions
}

// ===== CORRECTION-KEY PARSER =====

func parseCorrections(block string) []*models.CorrectionEntry {
	var (
		entries       []*models.CorrectionEntry
		current       *models.CorrectionEntry
		feedbackLines []string
	)

	flush := func() {
		if current != nil {
			current.Feedback = strings.TrimSpace(strings.Join(feedbackLines, "\n"))
			entries = append(entries, current)
		}
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := correctionMarker.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				feedbackLines = append(feedbackLines, line)
			}
			continue
		}

		flush()
		number, _ := strconv.Atoi(m[1])
		current = &models.CorrectionEntry{
			QCMNumber:      number,
			CorrectLetters: strings.Split(strings.ToUpper(m[2]), ""),
		}
		feedbackLines = nil
	}
	flush()

	return entries
}

// applyCorrections pairs questions and entries positionally, stopping at the
// shorter sequence. The entry's letter set becomes the sole source of truth
// for isCorrect, and non-empty feedback replaces the question's. The number
// printed in the document is deliberately not consulted.
func applyCorrections(questions []*models.Question, corrections []*models.CorrectionEntry) {
	for i := 0; i < len(questions) && i < len(corrections); i++ {
		question, correction := questions[i], corrections[i]

		for j := range question.Answers {
			question.Answers[j].IsCorrect = correction.HasLetter(question.Answers[j].Letter)
		}
		if correction.Feedback != "" {
			question.GeneralFeedback = correction.Feedback
		}
	}
}
