package assembly

import (
	"fmt"
	"strconv"
)

// InputKind classifies a mux input
type InputKind string

const (
	InputVideo    InputKind = "video"
	InputAudio    InputKind = "audio"
	InputSubtitle InputKind = "subtitle"
)

// Language tag written for the original-language subtitle track
const OriginalSubtitleLanguage = "xx"

// MuxInput is one "-i" clause
type MuxInput struct {
	Index int
	Path  string
	Kind  InputKind
}

// StreamMap is one "-map" clause. An empty Selector maps the whole input.
type StreamMap struct {
	Input    int
	Selector string
}

func (m StreamMap) String() string {
	if m.Selector == "" {
		return strconv.Itoa(m.Input)
	}
	return fmt.Sprintf("%d:%s", m.Input, m.Selector)
}

// SubtitleMetadata tags the n-th output subtitle stream with a language
type SubtitleMetadata struct {
	Stream   int
	Language string
}

// SubtitleTrack is an optional subtitle file to embed
type SubtitleTrack struct {
	Path     string
	Language string
}

// MuxPlan is the final container job as typed clauses
type MuxPlan struct {
	Inputs        []MuxInput
	Maps          []StreamMap
	VideoCodec    string
	AudioCodec    string
	SubtitleCodec string
	Metadata      []SubtitleMetadata
	Trailer       []string
	Output        string
}

// NewMuxPlan copies the video stream, encodes the mixed audio as AAC and
// embeds each present subtitle track as mov_text with a language tag
func NewMuxPlan(video, audio string, subtitles []SubtitleTrack, output string) *MuxPlan {
	plan := &MuxPlan{
		Inputs: []MuxInput{
			{Index: 0, Path: video, Kind: InputVideo},
			{Index: 1, Path: audio, Kind: InputAudio},
		},
		Maps: []StreamMap{
			{Input: 0, Selector: "v:0"},
			{Input: 1, Selector: "a:0"},
		},
		VideoCodec: "copy",
		AudioCodec: "aac",
		Trailer:    []string{"-shortest", "-movflags", "faststart"},
		Output:     output,
	}

	for i, sub := range subtitles {
		idx := len(plan.Inputs)
		plan.Inputs = append(plan.Inputs, MuxInput{Index: idx, Path: sub.Path, Kind: InputSubtitle})
		plan.Maps = append(plan.Maps, StreamMap{Input: idx})
		plan.Metadata = append(plan.Metadata, SubtitleMetadata{Stream: i, Language: sub.Language})
	}
	if len(subtitles) > 0 {
		plan.SubtitleCodec = "mov_text"
	}
	return plan
}

// Validate checks the clauses are consistent with each other
func (p *MuxPlan) Validate() error {
	if p.Output == "" {
		return fmt.Errorf("mux plan has no output")
	}
	if len(p.Inputs) == 0 {
		return fmt.Errorf("mux plan has no inputs")
	}

	kinds := make(map[int]InputKind, len(p.Inputs))
	for i, in := range p.Inputs {
		if in.Index != i {
			return fmt.Errorf("input %q declared at position %d with index %d", in.Path, i, in.Index)
		}
		if in.Path == "" {
			return fmt.Errorf("input %d has no path", i)
		}
		kinds[in.Index] = in.Kind
	}

	subtitleStreams := 0
	for _, m := range p.Maps {
		kind, ok := kinds[m.Input]
		if !ok {
			return fmt.Errorf("map %s references undeclared input %d", m, m.Input)
		}
		if kind == InputSubtitle {
			subtitleStreams++
		}
	}

	if subtitleStreams > 0 && p.SubtitleCodec == "" {
		return fmt.Errorf("subtitle streams mapped without a subtitle codec")
	}
	for _, md := range p.Metadata {
		if md.Stream < 0 || md.Stream >= subtitleStreams {
			return fmt.Errorf("metadata references subtitle stream %d but only %d mapped", md.Stream, subtitleStreams)
		}
		if md.Language == "" {
			return fmt.Errorf("metadata for subtitle stream %d has no language", md.Stream)
		}
	}
	return nil
}

// Args validates the plan and renders it as media engine arguments
func (p *MuxPlan) Args() ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	args := make([]string, 0, 32)
	for _, in := range p.Inputs {
		args = append(args, "-i", in.Path)
	}
	for _, m := range p.Maps {
		args = append(args, "-map", m.String())
	}
	if p.VideoCodec != "" {
		args = append(args, "-c:v", p.VideoCodec)
	}
	if p.AudioCodec != "" {
		args = append(args, "-c:a", p.AudioCodec)
	}
	if p.SubtitleCodec != "" {
		args = append(args, "-c:s", p.SubtitleCodec)
	}
	for _, md := range p.Metadata {
		args = append(args, fmt.Sprintf("-metadata:s:s:%d", md.Stream), "language="+md.Language)
	}
	args = append(args, p.Trailer...)
	return append(args, p.Output), nil
}
