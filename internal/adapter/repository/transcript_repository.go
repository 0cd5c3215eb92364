package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// SaveTranscript inserts the transcript, replacing any previous one for the same dub job
func (r *TranscriptRepository) SaveTranscript(ctx context.Context, t *entities.Transcript) error {
	if t == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "dub_job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_language", "target_language", "segments", "translated", "degraded", "speaker_count", "updated_at",
			}),
		}).
		Create(t).Error
}

// GetTranscriptByDubJobID retrieves the transcript of a dub job
func (r *TranscriptRepository) GetTranscriptByDubJobID(ctx context.Context, dubJobID uuid.UUID) (*entities.Transcript, error) {
	var t entities.Transcript
	if err := r.db.WithContext(ctx).Where("dub_job_id = ?", dubJobID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
