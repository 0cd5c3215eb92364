// Package subtitle renders and parses SubRip (SRT) cue files.
package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

// blankLines matches a line break followed by one or more empty lines
var blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)

// Cue is one numbered SRT block
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// FormatSegments renders segments as SRT, numbering cues from 1 in slice order
func FormatSegments(segments []entities.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), CueText(seg.Text))
	}
	return b.String()
}

// CueText normalizes text for a cue body. A blank line terminates an SRT
// cue, so line-ending variants and runs of empty lines collapse to a
// single newline.
func CueText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankLines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	totalMillis := int64(math.Round(seconds * 1000))
	if totalMillis < 0 {
		totalMillis = 0
	}
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp parses HH:MM:SS,mmm (a period separator is also accepted)
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return float64(total) / 1000, nil
}

// Parse reads SRT content back into cues
func Parse(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("malformed cue %q", block)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid cue index %q", lines[0])
		}
		bounds := strings.Split(lines[1], "-->")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid cue timing %q", lines[1])
		}
		start, err := ParseTimestamp(bounds[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(bounds[1])
		if err != nil {
			return nil, err
		}
		cues = append(cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}
