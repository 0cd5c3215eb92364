package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// DubJobRepository handles dub job data operations
type DubJobRepository struct {
	db *gorm.DB
}

// NewDubJobRepository creates a new dub job repository
func NewDubJobRepository(db *gorm.DB) *DubJobRepository {
	return &DubJobRepository{db: db}
}

// CreateDubJob creates a new dub job
func (r *DubJobRepository) CreateDubJob(ctx context.Context, job *entities.DubJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetDubJobByID retrieves a dub job by ID
func (r *DubJobRepository) GetDubJobByID(ctx context.Context, jobID uuid.UUID) (*entities.DubJob, error) {
	var job entities.DubJob
	if err := r.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListDubJobs retrieves the newest dub jobs, optionally filtered by status
func (r *DubJobRepository) ListDubJobs(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error) {
	var jobs []entities.DubJob
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateDubJob saves every field of a dub job
func (r *DubJobRepository) UpdateDubJob(ctx context.Context, job *entities.DubJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.DubJob{}).
		Where("id = ?", job.ID).
		Save(job).Error
}

// UpdateDubJobStage records the stage currently executing
func (r *DubJobRepository) UpdateDubJobStage(ctx context.Context, jobID uuid.UUID, stage entities.DubStage) error {
	return r.db.WithContext(ctx).
		Model(&entities.DubJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"stage":      stage,
			"updated_at": time.Now(),
		}).Error
}
