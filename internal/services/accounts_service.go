package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
)

var spaceRun = regexp.MustCompile(`\s+`)

// AccountsService builds the CSV Moodle's user-upload tool consumes from
// anonymat/email pairs, taken either from a spreadsheet's first two columns
// or from pasted text.
type AccountsService interface {
	ParseSpreadsheet(ctx context.Context, reader io.Reader, fileName string) ([]models.AccountEntry, int, error)
	ParseText(ctx context.Context, text string) ([]models.AccountEntry, int)
	BuildCSV(entries []models.AccountEntry, cohortID string) ([]byte, error)
}

type accountsService struct {
	logger utils.Logger
}

func NewAccountsService(logger utils.Logger) AccountsService {
	return &accountsService{logger: logger}
}

// ParseSpreadsheet reads anonymat and email from columns A and B of the
// first sheet, skipping rows with missing cells or an invalid email. The
// skipped count is reported alongside the entries.
func (s *accountsService) ParseSpreadsheet(ctx context.Context, reader io.Reader, fileName string) ([]models.AccountEntry, int, error) {
	rows, err := loadRows(reader, fileName)
	if err != nil {
		return nil, 0, err
	}

	var entries []models.AccountEntry
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		anonymat := strings.TrimSpace(row[0])
		email := strings.TrimSpace(row[1])
		if anonymat == "" || email == "" || !strings.Contains(email, "@") {
			skipped++
			continue
		}
		entries = append(entries, models.AccountEntry{Anonymat: anonymat, Email: email})
	}

	s.logger.InfoContext(ctx, "Account spreadsheet parsed",
		"file_name", fileName, "entries", len(entries), "skipped", skipped)

	return entries, skipped, nil
}

// ParseText accepts pasted rows, one pair per line, split on the first
// separator found among tab, semicolon, comma or runs of spaces.
func (s *accountsService) ParseText(ctx context.Context, text string) ([]models.AccountEntry, int) {
	var entries []models.AccountEntry
	skipped := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var parts []string
		switch {
		case strings.Contains(line, "\t"):
			parts = strings.Split(line, "\t")
		case strings.Contains(line, ";"):
			parts = strings.Split(line, ";")
		case strings.Contains(line, ","):
			parts = strings.Split(line, ",")
		default:
			parts = spaceRun.Split(line, -1)
		}

		if len(parts) < 2 {
			skipped++
			continue
		}
		anonymat := strings.TrimSpace(parts[0])
		email := strings.TrimSpace(parts[1])
		if anonymat == "" || email == "" || !strings.Contains(email, "@") {
			skipped++
			continue
		}
		entries = append(entries, models.AccountEntry{Anonymat: anonymat, Email: email})
	}

	s.logger.InfoContext(ctx, "Account text parsed", "entries", len(entries), "skipped", skipped)

	return entries, skipped
}

// BuildCSV writes the upload file. The anonymat doubles as username and
// lastname; auth is fixed to "email". A non-empty cohortID adds the cohort1
// column.
func (s *accountsService) BuildCSV(entries []models.AccountEntry, cohortID string) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	headers := []string{"username", "email", "auth", "firstname", "lastname"}
	if cohortID != "" {
		headers = append(headers, "cohort1")
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{entry.Anonymat, entry.Email, "email", "Etudiant", entry.Anonymat}
		if cohortID != "" {
			row = append(row, cohortID)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return []byte(buf.String()), nil
}
