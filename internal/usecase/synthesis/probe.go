package synthesis

import (
	"bytes"

	"github.com/go-audio/wav"
)

// ProbeDuration returns the length of a WAV clip in seconds, or 0 when the
// bytes are not a readable WAV file
func ProbeDuration(audio []byte) float64 {
	if len(audio) == 0 {
		return 0
	}
	dec := wav.NewDecoder(bytes.NewReader(audio))
	if !dec.IsValidFile() {
		return 0
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0
	}

	bytesPerSec := int(dec.SampleRate) * int(dec.NumChans) * int(dec.BitDepth) / 8
	if bytesPerSec <= 0 {
		return 0
	}
	// streamed WAV headers may carry a placeholder data size
	size := dec.PCMSize
	if size <= 0 || size > len(audio) {
		size = len(audio)
	}
	return float64(size) / float64(bytesPerSec)
}
