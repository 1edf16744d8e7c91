package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
)

// XMLService renders a conversion session into Moodle question-import XML.
//
// The two input paths produce deliberately different documents: the
// spreadsheet generator emits plain question names, the raw Points cell as
// defaultgrade, the three fixed outcome-feedback blocks and all-or-nothing
// fractions; the document generator emits CDATA question names, a literal
// 1.0000000 grade, no outcome feedback and equal-share fractions. Both wrap
// text in CDATA that is still entity-escaped. The deployed Moodle importer
// expects exactly this shape, so none of it is normalized here.
type XMLService interface {
	Generate(ctx context.Context, session *models.ConversionSession, categoryName string) (*models.ConversionResult, error)
}

type xmlService struct {
	logger utils.Logger
}

func NewXMLService(logger utils.Logger) XMLService {
	return &xmlService{logger: logger}
}

func (s *xmlService) Generate(ctx context.Context, session *models.ConversionSession, categoryName string) (*models.ConversionResult, error) {
	if session == nil || len(session.Questions) == 0 {
		return nil, NewValidationError("questions", ErrNoQuestions.Error(), nil)
	}
	if categoryName == "" {
		categoryName = "Questions"
	}

	switch session.Source {
	case models.SourceSpreadsheet:
		return s.generateSpreadsheetXML(ctx, session, categoryName)
	case models.SourceDocument:
		return s.generateDocumentXML(ctx, session, categoryName)
	default:
		return nil, NewValidationError("source", "unknown question source", string(session.Source))
	}
}

// ===== SPREADSHEET PATH =====

func (s *xmlService) generateSpreadsheetXML(ctx context.Context, session *models.ConversionSession, categoryName string) (*models.ConversionResult, error) {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<quiz>\n\n")

	b.WriteString("  <question type=\"category\">\n")
	b.WriteString("    <category>\n")
	fmt.Fprintf(&b, "      <text>$course$/top/%s</text>\n", escapeSpreadsheetXML(categoryName))
	b.WriteString("    </category>\n")
	b.WriteString("  </question>\n\n")

	result := &models.ConversionResult{}
	for _, q := range session.Questions {
		if err := writeSpreadsheetQuestion(&b, q); err != nil {
			s.logger.WarnContext(ctx, "Question skipped", "question", q.ID, "error", err)
			result.SkippedCount++
			result.Errors = append(result.Errors, models.RowError{
				Row:     q.ID,
				Message: err.Error(),
				Value:   q.CorrectAnswerText,
			})
			continue
		}
		result.QuestionCount++
	}

	b.WriteString("</quiz>")
	result.XML = []byte(b.String())

	s.logger.InfoContext(ctx, "XML generated",
		"source", session.Source,
		"question_count", result.QuestionCount,
		"skipped_count", result.SkippedCount)

	return result, nil
}

func writeSpreadsheetQuestion(b *strings.Builder, q *models.Question) error {
	options := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		options = append(options, a.Text)
	}
	if len(options) == 0 {
		return NewResolutionError(q.ID, ErrNoOptions.Error())
	}

	correct := ResolveCorrectAnswers(q.CorrectAnswerText, options)
	if len(correct) == 0 {
		return NewResolutionError(q.ID, ErrNoCorrectAnswer.Error())
	}

	b.WriteString("  <question type=\"multichoice\">\n")
	b.WriteString("    <name>\n")
	fmt.Fprintf(b, "      <text>Question %d</text>\n", q.ID)
	b.WriteString("    </name>\n")

	writeSpreadsheetField(b, "questiontext", q.Title, q.TitleImage)
	writeSpreadsheetField(b, "generalfeedback", q.GeneralFeedback, q.FeedbackImage)

	fmt.Fprintf(b, "    <defaultgrade>%s</defaultgrade>\n", q.Points)
	b.WriteString("    <penalty>0.3333333</penalty>\n")
	b.WriteString("    <hidden>0</hidden>\n")
	fmt.Fprintf(b, "    <single>%t</single>\n", q.Type == models.TypeRadio)
	b.WriteString("    <shuffleanswers>true</shuffleanswers>\n")
	b.WriteString("    <answernumbering>abc</answernumbering>\n")
	b.WriteString("    <correctfeedback format=\"html\">\n")
	b.WriteString("      <text>Votre reponse est correcte.</text>\n")
	b.WriteString("    </correctfeedback>\n")
	b.WriteString("    <partiallycorrectfeedback format=\"html\">\n")
	b.WriteString("      <text>Votre reponse est partiellement correcte.</text>\n")
	b.WriteString("    </partiallycorrectfeedback>\n")
	b.WriteString("    <incorrectfeedback format=\"html\">\n")
	b.WriteString("      <text>Votre reponse est incorrecte.</text>\n")
	b.WriteString("    </incorrectfeedback>\n")

	for _, a := range q.Answers {
		fraction := "0"
		if containsString(correct, a.Text) {
			fraction = "100"
		}
		fmt.Fprintf(b, "    <answer fraction=\"%s\" format=\"html\">\n", fraction)
		html, file := buildTextWithImage(a.Text, a.Image, escapeSpreadsheetXML)
		fmt.Fprintf(b, "      <text><![CDATA[%s]]></text>\n", html)
		b.WriteString(file)
		b.WriteString("      <feedback format=\"html\">\n")
		b.WriteString("        <text></text>\n")
		b.WriteString("      </feedback>\n")
		b.WriteString("    </answer>\n")
	}

	b.WriteString("  </question>\n\n")
	return nil
}

func writeSpreadsheetField(b *strings.Builder, element, text string, image *models.Image) {
	html, file := buildTextWithImage(text, image, escapeSpreadsheetXML)
	fmt.Fprintf(b, "    <%s format=\"html\">\n", element)
	fmt.Fprintf(b, "      <text><![CDATA[%s]]></text>\n", html)
	b.WriteString(file)
	fmt.Fprintf(b, "    </%s>\n", element)
}

// ===== DOCUMENT PATH =====

func (s *xmlService) generateDocumentXML(ctx context.Context, session *models.ConversionSession, categoryName string) (*models.ConversionResult, error) {
	// The document path validates completeness up front and refuses to
	// produce any output if a question has no correct answer.
	for _, q := range session.Questions {
		if len(q.CorrectAnswers()) == 0 {
			return nil, NewValidationError("questions",
				fmt.Sprintf("question %d has no correct answer", q.ID), q.ID)
		}
	}

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<quiz>\n")

	b.WriteString("  <question type=\"category\">\n")
	b.WriteString("    <category>\n")
	fmt.Fprintf(&b, "      <text>$course$/top/%s</text>\n", escapeDocumentXML(categoryName))
	b.WriteString("    </category>\n")
	b.WriteString("  </question>\n")

	for _, q := range session.Questions {
		writeDocumentQuestion(&b, q)
	}

	b.WriteString("</quiz>")

	result := &models.ConversionResult{
		XML:           []byte(b.String()),
		QuestionCount: len(session.Questions),
	}

	s.logger.InfoContext(ctx, "XML generated",
		"source", session.Source,
		"question_count", result.QuestionCount)

	return result, nil
}

func writeDocumentQuestion(b *strings.Builder, q *models.Question) {
	b.WriteString("  <question type=\"multichoice\">\n")
	b.WriteString("    <name>\n")
	fmt.Fprintf(b, "      <text><![CDATA[Question %d]]></text>\n", q.ID)
	b.WriteString("    </name>\n")

	writeDocumentField(b, "questiontext", q.Title, q.TitleImage)
	writeDocumentField(b, "generalfeedback", q.GeneralFeedback, q.FeedbackImage)

	b.WriteString("    <defaultgrade>1.0000000</defaultgrade>\n")
	b.WriteString("    <penalty>0.3333333</penalty>\n")
	b.WriteString("    <hidden>0</hidden>\n")
	b.WriteString("    <single>false</single>\n")
	b.WriteString("    <shuffleanswers>true</shuffleanswers>\n")
	b.WriteString("    <answernumbering>abc</answernumbering>\n")

	correctCount := len(q.CorrectAnswers())
	correctFraction := 0.0
	if correctCount > 0 {
		correctFraction = 100.0 / float64(correctCount)
	}

	for _, a := range q.Answers {
		fraction := 0.0
		if a.IsCorrect {
			fraction = correctFraction
		}
		fmt.Fprintf(b, "    <answer fraction=\"%s\" format=\"html\">\n", formatFraction(fraction))
		html, file := buildTextWithImage(a.Text, a.Image, escapeDocumentXML)
		fmt.Fprintf(b, "      <text><![CDATA[%s]]></text>\n", html)
		b.WriteString(file)
		b.WriteString("      <feedback format=\"html\">\n")
		b.WriteString("        <text></text>\n")
		b.WriteString("      </feedback>\n")
		b.WriteString("    </answer>\n")
	}

	b.WriteString("  </question>\n")
}

func writeDocumentField(b *strings.Builder, element, text string, image *models.Image) {
	html, file := buildTextWithImage(text, image, escapeDocumentXML)
	fmt.Fprintf(b, "    <%s format=\"html\">\n", element)
	fmt.Fprintf(b, "      <text><![CDATA[%s]]></text>\n", html)
	b.WriteString(file)
	fmt.Fprintf(b, "    </%s>\n", element)
}

// ===== SHARED RENDERING =====

// buildTextWithImage escapes the text and, when an image is attached,
// appends the plugin-file img reference and builds the sibling file element
// carrying the base64 payload (any data: URI prefix stripped).
func buildTextWithImage(text string, image *models.Image, escape func(string) string) (html, file string) {
	html = escape(text)
	if image == nil || image.Data == "" {
		return html, ""
	}

	payload := image.Data
	if i := strings.Index(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}
	name := SanitizeFileName(image.Name)

	html += fmt.Sprintf(`<br><img src="@@PLUGINFILE@@/%s" alt="" role="presentation" class="img-responsive">`, name)
	file = fmt.Sprintf("      <file name=\"%s\" path=\"/\" encoding=\"base64\">%s</file>\n", name, payload)
	return html, file
}

// formatFraction renders an answer fraction the way the consuming importer
// has always received it: shortest decimal form (50, 20,
// 33.333333333333336, ...).
func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Text inside CDATA is still entity-escaped; the escaped entities reach the
// importer verbatim and it relies on that. The two paths differ only in the
// apostrophe entity.
func escapeSpreadsheetXML(text string) string {
	return escapeXML(text, "&apos;")
}

func escapeDocumentXML(text string) string {
	return escapeXML(text, "&#039;")
}

func escapeXML(text, apos string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString(apos)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
