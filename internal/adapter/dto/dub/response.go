package dub

import "time"

// TranscriptionResponse represents transcribed segments
type TranscriptionResponse struct {
	Language string       `json:"language"`
	Segments []SegmentDTO `json:"segments"`
	Speakers []string     `json:"speakers"`
}

// TranslationResponse represents aligned translated segments
type TranslationResponse struct {
	Language string       `json:"language"`
	Segments []SegmentDTO `json:"segments"`
	Degraded bool         `json:"degraded"`
}

// PartResponse is one synthesized clip; Data is base64 in JSON
type PartResponse struct {
	Filename string  `json:"filename"`
	Data     []byte  `json:"data"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// SynthesisResponse represents synthesized clips in segment order
type SynthesisResponse struct {
	Parts []PartResponse `json:"parts"`
}

// DubResponse represents a dub job
type DubResponse struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	Stage          string            `json:"stage"`
	Progress       int               `json:"progress"`
	TargetLanguage string            `json:"target_language"`
	SourceLanguage string            `json:"source_language,omitempty"`
	SegmentCount   int               `json:"segment_count"`
	Degraded       bool              `json:"degraded"`
	Artifacts      map[string]string `json:"artifacts,omitempty"`
	LastError      *string           `json:"last_error,omitempty"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
