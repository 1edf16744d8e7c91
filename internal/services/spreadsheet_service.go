package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/xuri/excelize/v2"
)

// Column names of the spreadsheet question format. Header cells are matched
// after trimming but case-sensitively, as the authoring template fixes them.
var requiredColumns = []string{"SNO", "Questions", "Type", "option 1", "Correct Answer", "Points"}

const maxOptions = 5

// SpreadsheetService turns an uploaded workbook into a conversion session.
type SpreadsheetService interface {
	LoadQuestions(ctx context.Context, reader io.Reader, fileName string) (*models.ConversionSession, error)
}

type spreadsheetService struct {
	logger utils.Logger
}

func NewSpreadsheetService(logger utils.Logger) SpreadsheetService {
	return &spreadsheetService{logger: logger}
}

// ===== TABULAR LOADER =====

// loadRows opens the workbook and returns the raw rows of its first sheet.
func loadRows(reader io.Reader, fileName string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewFormatError(fileName, ErrUnreadableWorkbook.Error(), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewFormatError(fileName, ErrEmptyWorkbook.Error(), nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// headerIndex maps trimmed header cells to their column index.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		index[strings.TrimSpace(cell)] = i
	}
	return index
}

// cellValue returns the trimmed cell under the named column, or "" when the
// column is absent or the row is short.
func cellValue(row []string, index map[string]int, name string) string {
	if i, ok := index[name]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// ===== ROW TO QUESTION TRANSLATION =====

func (s *spreadsheetService) LoadQuestions(ctx context.Context, reader io.Reader, fileName string) (*models.ConversionSession, error) {
	s.logger.InfoContext(ctx, "Loading spreadsheet question bank", "file_name", fileName)

	rows, err := loadRows(reader, fileName)
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file is empty or badly formatted", len(rows))
	}

	index := headerIndex(rows[0])

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError("headers",
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), missing)
	}

	session := &models.ConversionSession{
		Source:   models.SourceSpreadsheet,
		FileName: fileName,
	}

	for rowIdx, row := range rows[1:] {
		question := rowToQuestion(row, index, rowIdx+1)
		session.Questions = append(session.Questions, question)
	}

	s.logger.InfoContext(ctx, "Spreadsheet loaded",
		"file_name", fileName,
		"question_count", len(session.Questions))

	return session, nil
}

// rowToQuestion builds the normalized question for one data row. Correct
// answers are resolved later, at generation time, so that a bad row only
// drops that question from the batch.
func rowToQuestion(row []string, index map[string]int, id int) *models.Question {
	q := &models.Question{
		ID:                id,
		Title:             cellValue(row, index, "Questions"),
		GeneralFeedback:   cellValue(row, index, "Commentaires"),
		CorrectAnswerText: cellValue(row, index, "Correct Answer"),
		Type:              models.TypeCheckbox,
		Points:            "1",
	}

	if strings.EqualFold(cellValue(row, index, "Type"), "RADIO") {
		q.Type = models.TypeRadio
	}
	if points := cellValue(row, index, "Points"); points != "" {
		q.Points = points
	}

	for i := 1; i <= maxOptions; i++ {
		text := cellValue(row, index, fmt.Sprintf("option %d", i))
		if text == "" {
			continue
		}
		q.Answers = append(q.Answers, models.Answer{
			Text:   text,
			Letter: string(rune('A' + len(q.Answers))),
		})
	}

	return q
}
