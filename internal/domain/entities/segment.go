package entities

// Segment is a time-bounded piece of speech attributed to one speaker.
// Times are seconds from the start of the source media.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Translation holds translated segments aligned one-to-one with the source segments.
// Degraded is set when the translated lines could not be aligned and the
// source text was returned instead.
type Translation struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	Degraded bool      `json:"degraded"`
}

// SynthesizedPart is the audio clip produced for one segment.
// Duration is informational and is 0 when the clip could not be probed.
type SynthesizedPart struct {
	Filename string  `json:"filename"`
	Audio    []byte  `json:"-"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// UniqueSpeakers returns the speaker labels in order of first appearance
func UniqueSpeakers(segments []Segment) []string {
	seen := make(map[string]struct{}, len(segments))
	speakers := make([]string, 0)
	for _, seg := range segments {
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		speakers = append(speakers, seg.Speaker)
	}
	return speakers
}
