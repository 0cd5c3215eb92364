package dub

// SegmentDTO is one timed transcript line
type SegmentDTO struct {
	Start   float64 `json:"start" validate:"gte=0"`
	End     float64 `json:"end" validate:"gtfield=Start"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker" validate:"required"`
}

// SpeakerConfigDTO selects how a speaker is voiced. Clone samples travel
// as multipart files named sample_<speaker>.
type SpeakerConfigDTO struct {
	Strategy string `json:"strategy" validate:"required,oneof=clone preset"`
	Provider string `json:"provider" validate:"required,oneof=openai elevenlabs"`
	VoiceID  string `json:"voice_id,omitempty"`
}

// TranslateRequest represents the request to translate segments
type TranslateRequest struct {
	Target   string       `json:"target" validate:"required"`
	Segments []SegmentDTO `json:"segments" validate:"dive"`
}

// SynthesizeMeta is the JSON "meta" part of a synthesize request
type SynthesizeMeta struct {
	Segments []SegmentDTO                `json:"segments" validate:"dive"`
	Speakers map[string]SpeakerConfigDTO `json:"speakers" validate:"dive"`
}

// SubtitlesDTO toggles the embedded subtitle tracks; both default to on
type SubtitlesDTO struct {
	Original *bool `json:"original,omitempty"`
	Target   *bool `json:"target,omitempty"`
}

// CreateDubMeta is the JSON "meta" part of a dub request
type CreateDubMeta struct {
	Target         string                      `json:"target" validate:"required"`
	Speakers       map[string]SpeakerConfigDTO `json:"speakers,omitempty" validate:"dive"`
	DefaultSpeaker *SpeakerConfigDTO           `json:"default_speaker,omitempty"`
	Subtitles      *SubtitlesDTO               `json:"subtitles,omitempty"`
}

// ListDubsQuery filters the dub job listing
type ListDubsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending running completed failed timed_out"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}
