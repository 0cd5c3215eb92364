package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// DubJobRepository defines persistence operations for dub jobs.
// Getters return (nil, nil) when the record does not exist.
type DubJobRepository interface {
	CreateDubJob(ctx context.Context, job *entities.DubJob) error
	GetDubJobByID(ctx context.Context, jobID uuid.UUID) (*entities.DubJob, error)
	ListDubJobs(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error)
	UpdateDubJob(ctx context.Context, job *entities.DubJob) error
	UpdateDubJobStage(ctx context.Context, jobID uuid.UUID, stage entities.DubStage) error
}

// TranscriptRepository persists the source and translated segments of a run
type TranscriptRepository interface {
	SaveTranscript(ctx context.Context, t *entities.Transcript) error
	GetTranscriptByDubJobID(ctx context.Context, dubJobID uuid.UUID) (*entities.Transcript, error)
}
