package models

// QuestionSource identifies which input path produced a conversion session.
type QuestionSource string

const (
	SourceSpreadsheet QuestionSource = "spreadsheet"
	SourceDocument    QuestionSource = "document"
)

// QuestionType mirrors the spreadsheet "Type" column. CHECKBOX allows
// multiple correct answers, RADIO exactly one.
type QuestionType string

const (
	TypeCheckbox QuestionType = "CHECKBOX"
	TypeRadio    QuestionType = "RADIO"
)

// Image is a user-attached binary carried into the generated XML as an
// inlined base64 file block. Data may still carry a data: URI prefix; the
// serializer strips it.
type Image struct {
	Data string `json:"data"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Answer is one option of a multiple-choice question. Letter is the stable
// identity tag (A-E); serialization order is significant because Moodle
// applies "abc" numbering in that order.
type Answer struct {
	Text      string `json:"text"`
	Letter    string `json:"letter"`
	IsCorrect bool   `json:"is_correct"`
	Image     *Image `json:"image,omitempty"`
}

// Question is the normalized question model shared by both conversion paths.
// ID is the dense, 1-based ordinal in encounter order.
type Question struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	TitleImage      *Image  `json:"title_image,omitempty"`
	GeneralFeedback string  `json:"general_feedback"`
	FeedbackImage   *Image  `json:"feedback_image,omitempty"`
	Answers         []Answer `json:"answers"`

	// Spreadsheet-path fields. Points keeps the raw cell text so the
	// serializer emits it untouched; CorrectAnswerText is resolved against
	// the option list at generation time.
	Type              QuestionType `json:"type,omitempty"`
	Points            string       `json:"points,omitempty"`
	CorrectAnswerText string       `json:"correct_answer,omitempty"`
}

// CorrectAnswers returns the answers currently marked correct, in order.
func (q *Question) CorrectAnswers() []Answer {
	var correct []Answer
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct = append(correct, a)
		}
	}
	return correct
}

// CorrectionEntry is one parsed entry of a document's correction block.
// QCMNumber is the number printed in the document; reconciliation against
// parsed questions is positional and ignores it (known format limitation).
type CorrectionEntry struct {
	QCMNumber      int      `json:"qcm_number"`
	CorrectLetters []string `json:"correct_letters"`
	Feedback       string   `json:"feedback"`
}

// HasLetter reports whether the entry marks the given letter correct.
func (c *CorrectionEntry) HasLetter(letter string) bool {
	for _, l := range c.CorrectLetters {
		if l == letter {
			return true
		}
	}
	return false
}

// ConversionSession is the explicit per-request state shared between a load
// operation and the generation that consumes its output. Exactly one input
// path populates a session; nothing mutates it concurrently.
type ConversionSession struct {
	Source      QuestionSource     `json:"source"`
	FileName    string             `json:"file_name"`
	Questions   []*Question        `json:"questions"`
	Corrections []*CorrectionEntry `json:"corrections,omitempty"`
}
