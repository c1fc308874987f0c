package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/timw/docuflow/internal/domain"
)

// RunRepository handles pipeline run history operations.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record.
func (r *RunRepository) Create(ctx context.Context, run *domain.PipelineRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update updates an existing run record.
func (r *RunRepository) Update(ctx context.Context, run *domain.PipelineRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves a run by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
// Returns:
//   - *domain.PipelineRun: run record if found.
//   - error: non-nil if lookup fails.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves run records newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records.
//   - offset: pagination offset.
// Returns:
//   - []domain.PipelineRun: page of run records.
//   - int64: total record count.
//   - error: non-nil if the query fails.
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]domain.PipelineRun, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.PipelineRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []domain.PipelineRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
