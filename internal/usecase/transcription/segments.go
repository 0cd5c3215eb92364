package transcription

import (
	"strings"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	pkgai "github.com/johnquangdev/video-dubber/pkg/ai"
)

// wordGroupSeconds is the span after which a word group is flushed
const wordGroupSeconds = 5.0

// fallbackSpeaker labels segments built from unattributed words
const fallbackSpeaker = "S0"

// ExtractSegments turns a completed transcript into segments.
// Utterances map one-to-one; otherwise words are grouped greedily under a
// single speaker. A transcript with neither yields an empty list.
func ExtractSegments(t pkgai.Transcript) []entities.Segment {
	if len(t.Utterances) > 0 {
		segments := make([]entities.Segment, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			label := u.Speaker
			if label == "" {
				label = "0"
			}
			segments = append(segments, entities.Segment{
				Start:   pkgai.MillisToSeconds(u.Start),
				End:     pkgai.MillisToSeconds(u.End),
				Text:    u.Text,
				Speaker: "S" + label,
			})
		}
		return segments
	}

	if len(t.Words) > 0 {
		return GroupWords(t.Words)
	}

	return []entities.Segment{}
}

// GroupWords accumulates words until the group spans more than five seconds,
// then flushes. The trailing partial group is always flushed.
func GroupWords(words []pkgai.TranscriptWord) []entities.Segment {
	segments := make([]entities.Segment, 0)

	var (
		group entities.Segment
		text  []string
	)
	flush := func() {
		group.Text = strings.Join(text, " ")
		group.Speaker = fallbackSpeaker
		segments = append(segments, group)
		text = text[:0]
	}
	for _, w := range words {
		if len(text) == 0 {
			group.Start = pkgai.MillisToSeconds(w.Start)
		}
		group.End = pkgai.MillisToSeconds(w.End)
		text = append(text, w.Text)

		if group.Duration() > wordGroupSeconds {
			flush()
		}
	}
	if len(text) > 0 {
		flush()
	}
	return segments
}
