package assembly

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// Output format of every mixed track
const (
	MixSampleRate = "44100"
	MixChannels   = "2"
)

// DuckingFilterGraph compresses the original track under the dub and mixes both
const DuckingFilterGraph = "[0:a][1:a]sidechaincompress=threshold=0.05:ratio=8:attack=5:release=250[duck];" +
	"[duck][1:a]amix=inputs=2:normalize=0[out]"

// AudioMix is one filter-graph job over a list of audio inputs
type AudioMix struct {
	Inputs      []string
	FilterGraph string
	Output      string
}

// Args renders the mix as media engine arguments
func (m *AudioMix) Args() []string {
	args := make([]string, 0, len(m.Inputs)*2+10)
	for _, in := range m.Inputs {
		args = append(args, "-i", in)
	}
	return append(args,
		"-filter_complex", m.FilterGraph,
		"-map", "[out]",
		"-ar", MixSampleRate,
		"-ac", MixChannels,
		m.Output,
	)
}

// BuildDubMix places every clip at its segment start and sums them without
// normalization. Overlapping clips are superimposed.
func BuildDubMix(parts []entities.SynthesizedPart, output string) (*AudioMix, error) {
	if len(parts) == 0 {
		return nil, apperrors.ErrEmptyMix()
	}

	inputs := make([]string, 0, len(parts))
	for _, p := range parts {
		inputs = append(inputs, p.Filename)
	}
	return &AudioMix{
		Inputs:      inputs,
		FilterGraph: DubMixFilterGraph(parts),
		Output:      output,
	}, nil
}

// DubMixFilterGraph delays input i by its start offset and mixes all inputs
func DubMixFilterGraph(parts []entities.SynthesizedPart) string {
	delays := make([]string, 0, len(parts))
	var labels strings.Builder
	for i, p := range parts {
		ms := DelayMillis(p.Start)
		delays = append(delays, fmt.Sprintf("[%d:a]adelay=%d|%d[a%d]", i, ms, ms, i))
		fmt.Fprintf(&labels, "[a%d]", i)
	}
	return fmt.Sprintf("%s;%samix=inputs=%d:normalize=0[out]", strings.Join(delays, ";"), labels.String(), len(parts))
}

// DelayMillis converts a start offset in seconds to a non-negative delay
func DelayMillis(start float64) int64 {
	ms := int64(math.Round(start * 1000))
	if ms < 0 {
		return 0
	}
	return ms
}

// BuildDuckingMix lowers the original under the dub and mixes the two
func BuildDuckingMix(original, dubbed, output string) *AudioMix {
	return &AudioMix{
		Inputs:      []string{original, dubbed},
		FilterGraph: DuckingFilterGraph,
		Output:      output,
	}
}

// ExtractAudioArgs pulls a mono track out of the source video for transcription
func ExtractAudioArgs(input, output string) []string {
	return []string{"-i", input, "-vn", "-ac", "1", "-ar", MixSampleRate, output}
}
