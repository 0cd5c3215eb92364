package entities

import (
	"time"

	"github.com/google/uuid"
)

// Transcript stores the source and translated segments of a dub job
type Transcript struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DubJobID       uuid.UUID `json:"dub_job_id" gorm:"type:uuid;not null;uniqueIndex"`
	SourceLanguage string    `json:"source_language,omitempty" gorm:"type:varchar(20)"`
	TargetLanguage string    `json:"target_language" gorm:"type:varchar(20)"`
	Segments       []Segment `json:"segments" gorm:"type:jsonb;serializer:json"`
	Translated     []Segment `json:"translated" gorm:"type:jsonb;serializer:json"`
	Degraded       bool      `json:"degraded" gorm:"default:false"`
	SpeakerCount   int       `json:"speaker_count"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "dub_transcripts"
}

// NewTranscript creates a transcript record for a dub job
func NewTranscript(dubJobID uuid.UUID, source []Segment, translation Translation, sourceLanguage string) *Transcript {
	return &Transcript{
		ID:             uuid.New(),
		DubJobID:       dubJobID,
		SourceLanguage: sourceLanguage,
		TargetLanguage: translation.Language,
		Segments:       source,
		Translated:     translation.Segments,
		Degraded:       translation.Degraded,
		SpeakerCount:   len(UniqueSpeakers(source)),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}
