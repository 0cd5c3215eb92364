package translation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
)

const (
	systemPrompt = "You are a professional dubbing translator. Keep timing consistent and keep sentences concise."
	temperature  = 0.3
)

// ChatCompleter is the chat model used for translation
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Service translates transcript segments while keeping them aligned
type Service interface {
	Translate(ctx context.Context, target string, segments []entities.Segment) (*entities.Translation, error)
}

type translationService struct {
	chat   ChatCompleter
	logger *zap.Logger
}

// NewTranslationService creates a translation service
func NewTranslationService(chat ChatCompleter, logger *zap.Logger) Service {
	return &translationService{
		chat:   chat,
		logger: logger,
	}
}

// Translate sends all segments in one request and returns exactly one
// translated segment per input segment. When the reply cannot be aligned the
// source text is kept and the translation is marked degraded.
func (s *translationService) Translate(ctx context.Context, target string, segments []entities.Segment) (*entities.Translation, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, apperrors.ErrValidation("target language is required")
	}

	if len(segments) == 0 {
		return &entities.Translation{Language: target, Segments: []entities.Segment{}}, nil
	}

	content, err := s.chat.CompleteJSON(ctx, systemPrompt, BuildPrompt(target, segments), temperature)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Translation request failed",
				zap.String("target", target),
				zap.Error(err),
			)
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.ErrUpstream("openai", err)
	}

	lines := ParseLines(content)
	translation := Align(target, segments, lines)

	if translation.Degraded && s.logger != nil {
		s.logger.Warn("⚠️ Translation line count mismatch, keeping source text",
			zap.String("target", target),
			zap.Int("segments", len(segments)),
			zap.Int("lines", len(lines)),
		)
	} else if s.logger != nil {
		s.logger.Info("✅ Segments translated",
			zap.String("target", target),
			zap.Int("segments", len(segments)),
		)
	}

	return translation, nil
}

// BuildPrompt renders every segment as "[speaker] text", one per line
func BuildPrompt(target string, segments []entities.Segment) string {
	joined := make([]string, 0, len(segments))
	for _, seg := range segments {
		joined = append(joined, fmt.Sprintf("[%s] %s", seg.Speaker, seg.Text))
	}
	return fmt.Sprintf(
		"Translate the following lines into %s. Keep meaning, tone, and brevity suitable for dubbing. "+
			"Return as JSON array of strings only, one per line, without extra commentary. Lines:\n%s",
		target, strings.Join(joined, "\n"),
	)
}

// Align pairs lines with segments by index. A count mismatch returns the
// source text for every segment with Degraded set. An empty line keeps the
// source text for that segment only.
func Align(target string, segments []entities.Segment, lines []string) *entities.Translation {
	out := &entities.Translation{
		Language: target,
		Segments: make([]entities.Segment, len(segments)),
	}
	copy(out.Segments, segments)

	if len(lines) != len(segments) {
		out.Degraded = true
		return out
	}

	for i, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out.Segments[i].Text = line
		}
	}
	return out
}
