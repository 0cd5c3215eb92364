package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DubJobStatus represents the status of a dubbing run
type DubJobStatus string

const (
	DubJobStatusPending   DubJobStatus = "pending"   // Accepted, waiting for a worker
	DubJobStatusRunning   DubJobStatus = "running"   // Pipeline in progress
	DubJobStatusCompleted DubJobStatus = "completed" // Output published
	DubJobStatusFailed    DubJobStatus = "failed"    // Aborted with a fatal error
	DubJobStatusTimedOut  DubJobStatus = "timed_out" // A wait hit its ceiling; safe to resubmit
)

// DubStage names a pipeline stage
type DubStage string

const (
	DubStageQueued     DubStage = "queued"
	DubStageExtract    DubStage = "extract"
	DubStageTranscribe DubStage = "transcribe"
	DubStageTranslate  DubStage = "translate"
	DubStageSynthesize DubStage = "synthesize"
	DubStageMix        DubStage = "mix"
	DubStageMux        DubStage = "mux"
	DubStagePublish    DubStage = "publish"
	DubStageDone       DubStage = "done"
)

// DubJob is the persisted record of one dubbing run
type DubJob struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Status         DubJobStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	Stage          DubStage     `json:"stage" gorm:"type:varchar(50);not null;default:'queued'"`
	TargetLanguage string       `json:"target_language" gorm:"type:varchar(20);not null"`
	SourceLanguage string       `json:"source_language,omitempty" gorm:"type:varchar(20)"`
	SegmentCount   int          `json:"segment_count" gorm:"type:integer;default:0"`
	Degraded       bool         `json:"degraded" gorm:"default:false"`

	// Artifacts maps an artifact name (e.g. output.mp4) to its object key
	Artifacts datatypes.JSONType[map[string]string] `json:"artifacts" gorm:"type:jsonb"`

	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewDubJob creates a pending dub job
func NewDubJob(targetLanguage string) *DubJob {
	now := time.Now()
	return &DubJob{
		ID:             uuid.New(),
		Status:         DubJobStatusPending,
		Stage:          DubStageQueued,
		TargetLanguage: targetLanguage,
		Artifacts:      datatypes.NewJSONType(map[string]string{}),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsFinished reports whether the job reached a terminal status
func (j *DubJob) IsFinished() bool {
	switch j.Status {
	case DubJobStatusCompleted, DubJobStatusFailed, DubJobStatusTimedOut:
		return true
	}
	return false
}

// MarkAsRunning marks the job as picked up by a worker
func (j *DubJob) MarkAsRunning() {
	j.Status = DubJobStatusRunning
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkStage records the stage currently executing
func (j *DubJob) MarkStage(stage DubStage) {
	j.Stage = stage
	j.UpdatedAt = time.Now()
}

// MarkAsCompleted marks the job as done with its published artifacts
func (j *DubJob) MarkAsCompleted(artifacts map[string]string) {
	j.Status = DubJobStatusCompleted
	j.Stage = DubStageDone
	j.Artifacts = datatypes.NewJSONType(artifacts)
	j.LastError = nil
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks the job as failed with error message
func (j *DubJob) MarkAsFailed(errMsg string) {
	j.Status = DubJobStatusFailed
	j.LastError = &errMsg
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsTimedOut marks the job as abandoned because a wait expired
func (j *DubJob) MarkAsTimedOut(errMsg string) {
	j.MarkAsFailed(errMsg)
	j.Status = DubJobStatusTimedOut
}

// TableName specifies the table name for GORM
func (DubJob) TableName() string {
	return "dub_jobs"
}
