package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/crem-edu/qcm-importer/internal/models"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/xuri/excelize/v2"
)

// LicenceFile is one uploaded spreadsheet of the partition run. The licence
// tag is derived from the file name.
type LicenceFile struct {
	Name   string
	Reader io.Reader
}

// LicenceService extracts anonymat numbers from enrollment spreadsheets and
// partitions them by leading digit: 1 and 7 into one bucket, 9 into the
// other, anything else dropped.
type LicenceService interface {
	Partition(ctx context.Context, files []LicenceFile) (*models.LicencePartition, error)
	WriteBucketXLSX(records []models.IdentifierRecord) ([]byte, error)
}

type licenceService struct {
	logger utils.Logger
}

func NewLicenceService(logger utils.Logger) LicenceService {
	return &licenceService{logger: logger}
}

// Partition processes the files sequentially, in the order supplied;
// collision reporting depends on having merged all earlier files first.
// Per-file problems are logged and skipped, never fatal to the run.
func (s *licenceService) Partition(ctx context.Context, files []LicenceFile) (*models.LicencePartition, error) {
	if len(files) == 0 {
		return nil, NewValidationError("files", "no files to process", nil)
	}

	partition := &models.LicencePartition{}

	for _, file := range files {
		licence := licenceTag(file.Name)
		s.logger.InfoContext(ctx, "Processing licence file", "file_name", file.Name, "licence", licence)

		numeros, err := s.extractNumeros(file)
		if err != nil {
			s.logger.WarnContext(ctx, "Licence file skipped", "file_name", file.Name, "error", err)
			continue
		}

		stats := models.LicenceFileStats{Licence: licence, Total: len(numeros)}
		for _, numero := range numeros {
			switch firstDigit(numero) {
			case '1', '7':
				partition.Bucket17 = append(partition.Bucket17, models.IdentifierRecord{Numero: numero, Licence: licence})
				stats.Bucket17++
			case '9':
				partition.Bucket9 = append(partition.Bucket9, models.IdentifierRecord{Numero: numero, Licence: licence})
				stats.Bucket9++
			}
		}
		partition.Stats = append(partition.Stats, stats)
	}

	partition.Collisions = append(
		collectCollisions(partition.Bucket17),
		collectCollisions(partition.Bucket9)...)
	for _, c := range partition.Collisions {
		s.logger.WarnContext(ctx, "Duplicate anonymat number",
			"numero", c.Numero, "licences", strings.Join(c.Licences, ", "))
	}

	sortRecords(partition.Bucket17)
	sortRecords(partition.Bucket9)

	s.logger.InfoContext(ctx, "Partition complete",
		"bucket_17", len(partition.Bucket17),
		"bucket_9", len(partition.Bucket9),
		"collisions", len(partition.Collisions))

	return partition, nil
}

// extractNumeros reads the file's first sheet and collects the unique
// integers of its client column, in first-seen order. Non-numeric and empty
// cells are skipped.
func (s *licenceService) extractNumeros(file LicenceFile) ([]int, error) {
	rows, err := loadRows(file.Reader, file.Name)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	clientCol := -1
	for i, header := range rows[0] {
		lower := strings.ToLower(strings.TrimSpace(header))
		if strings.Contains(lower, "client") && !strings.Contains(lower, "nom") {
			clientCol = i
			break
		}
	}
	if clientCol < 0 {
		return nil, ErrNoClientColumn
	}

	seen := make(map[int]bool)
	var numeros []int
	for _, row := range rows[1:] {
		if clientCol >= len(row) {
			continue
		}
		numero, err := strconv.Atoi(strings.TrimSpace(row[clientCol]))
		if err != nil || seen[numero] {
			continue
		}
		seen[numero] = true
		numeros = append(numeros, numero)
	}
	return numeros, nil
}

// WriteBucketXLSX renders one bucket as a workbook with a single
// "Licences" sheet.
func (s *licenceService) WriteBucketXLSX(records []models.IdentifierRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Licences"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.SetCellValue(sheetName, "A1", "Numéro Anonymat")
	f.SetCellValue(sheetName, "B1", "Licence")

	for i, record := range records {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+2), record.Numero)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+2), record.Licence)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func licenceTag(fileName string) string {
	base := filepath.Base(fileName)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func firstDigit(numero int) byte {
	s := strconv.Itoa(numero)
	return s[0]
}

// collectCollisions reports every numero that appears more than once in one
// bucket, pairing the tag that first claimed it with the offender's.
func collectCollisions(records []models.IdentifierRecord) []models.LicenceCollision {
	seen := make(map[int]string)
	var collisions []models.LicenceCollision
	for _, r := range records {
		if first, ok := seen[r.Numero]; ok {
			collisions = append(collisions, models.LicenceCollision{
				Numero:   r.Numero,
				Licences: []string{first, r.Licence},
			})
			continue
		}
		seen[r.Numero] = r.Licence
	}
	return collisions
}

func sortRecords(records []models.IdentifierRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Licence != records[j].Licence {
			return records[i].Licence < records[j].Licence
		}
		return records[i].Numero < records[j].Numero
	})
}
