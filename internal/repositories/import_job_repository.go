package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/crem-edu/qcm-importer/internal/models"
	"gorm.io/gorm"
)

// ErrJobNotFound is returned when no import job matches the given id.
var ErrJobNotFound = errors.New("import job not found")

// ImportJobRepository persists the audit trail of conversions and Moodle
// pushes.
type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	Update(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	List(ctx context.Context, limit, offset int) ([]*models.ImportJob, int64, error)
}

type importJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepository{db: db}
}

// Migrate creates the import job table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ImportJob{})
}

func (r *importJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (r *importJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	return nil
}

func (r *importJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return &job, nil
}

func (r *importJobRepository) List(ctx context.Context, limit, offset int) ([]*models.ImportJob, int64, error) {
	var jobs []*models.ImportJob
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.ImportJob{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count import jobs: %w", err)
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list import jobs: %w", err)
	}

	return jobs, total, nil
}

// NopImportJobRepository is used when no database is configured; writes are
// discarded and reads come back empty.
type NopImportJobRepository struct{}

func (NopImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error { return nil }
func (NopImportJobRepository) Update(ctx context.Context, job *models.ImportJob) error { return nil }

func (NopImportJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	return nil, ErrJobNotFound
}

func (NopImportJobRepository) List(ctx context.Context, limit, offset int) ([]*models.ImportJob, int64, error) {
	return nil, 0, nil
}
