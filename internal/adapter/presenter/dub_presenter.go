package presenter

import (
	"github.com/johnquangdev/video-dubber/internal/adapter/dto/common"
	"github.com/johnquangdev/video-dubber/internal/adapter/dto/dub"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/usecase/dubbing"
)

// ToSegmentDTOs converts segments to DTOs; never returns nil
func ToSegmentDTOs(segments []entities.Segment) []dub.SegmentDTO {
	out := make([]dub.SegmentDTO, 0, len(segments))
	for _, s := range segments {
		out = append(out, dub.SegmentDTO{Start: s.Start, End: s.End, Text: s.Text, Speaker: s.Speaker})
	}
	return out
}

// FromSegmentDTOs converts DTOs to segments
func FromSegmentDTOs(dtos []dub.SegmentDTO) []entities.Segment {
	out := make([]entities.Segment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, entities.Segment{Start: d.Start, End: d.End, Text: d.Text, Speaker: d.Speaker})
	}
	return out
}

// ToSpeakerConfig converts a DTO to a speaker config for the given label
func ToSpeakerConfig(speaker string, d dub.SpeakerConfigDTO) entities.SpeakerConfig {
	return entities.SpeakerConfig{
		Speaker:  speaker,
		Strategy: entities.VoiceStrategy(d.Strategy),
		Provider: entities.VoiceProvider(d.Provider),
		VoiceID:  d.VoiceID,
	}
}

// ToTranslationResponse converts a translation to its response DTO
func ToTranslationResponse(t *entities.Translation) *dub.TranslationResponse {
	if t == nil {
		return nil
	}
	return &dub.TranslationResponse{
		Language: t.Language,
		Segments: ToSegmentDTOs(t.Segments),
		Degraded: t.Degraded,
	}
}

// ToSynthesisResponse converts synthesized parts to the response DTO
func ToSynthesisResponse(parts []entities.SynthesizedPart) *dub.SynthesisResponse {
	out := make([]dub.PartResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, dub.PartResponse{Filename: p.Filename, Data: p.Audio, Start: p.Start, Duration: p.Duration})
	}
	return &dub.SynthesisResponse{Parts: out}
}

// ToDubResponse converts a dub status to DubResponse DTO
func ToDubResponse(s *dubbing.DubStatus) *dub.DubResponse {
	if s == nil || s.Job == nil {
		return nil
	}
	j := s.Job
	return &dub.DubResponse{
		ID:             j.ID.String(),
		Status:         string(j.Status),
		Stage:          string(j.Stage),
		Progress:       s.Progress.Percent,
		TargetLanguage: j.TargetLanguage,
		SourceLanguage: j.SourceLanguage,
		SegmentCount:   j.SegmentCount,
		Degraded:       j.Degraded,
		Artifacts:      s.URLs,
		LastError:      j.LastError,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

// ToQueuedDubResponse converts a freshly accepted job
func ToQueuedDubResponse(j *entities.DubJob) *dub.DubResponse {
	return ToDubResponse(&dubbing.DubStatus{Job: j})
}

// ToDubListResponse converts listed jobs; links are only resolved by GetDub
func ToDubListResponse(jobs []entities.DubJob) *common.ListResponse {
	items := make([]*dub.DubResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, ToQueuedDubResponse(&jobs[i]))
	}
	return &common.ListResponse{Items: items, Count: len(items)}
}
