package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/adapter/dto/dub"
	"github.com/johnquangdev/video-dubber/internal/adapter/presenter"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/usecase/dubbing"
	"github.com/johnquangdev/video-dubber/internal/usecase/synthesis"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/internal/usecase/translation"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
)

const maxSampleBytes = 20 << 20

// DubOptions tune the stage endpoints
type DubOptions struct {
	Transcription        transcription.Options
	SynthesisConcurrency int
}

// Dub exposes the pipeline stages and asynchronous dub jobs
type Dub struct {
	providers dubbing.ProviderSource
	jobs      dubbing.JobService
	opts      DubOptions
	logger    *zap.Logger
}

// NewDub creates the dub handler
func NewDub(providers dubbing.ProviderSource, jobs dubbing.JobService, opts DubOptions, logger *zap.Logger) *Dub {
	return &Dub{providers: providers, jobs: jobs, opts: opts, logger: logger}
}

func (h *Dub) providersFor(c echo.Context) dubbing.Providers {
	return h.providers.For(credentials.OverridesFromHeader(c.Request().Header))
}

// Transcribe transcribes an uploaded audio file
// @Summary      Transcribe audio
// @Description  Uploads audio to the transcription provider and returns speaker-labelled segments
// @Tags         Pipeline
// @Accept       multipart/form-data
// @Produce      json
// @Param        audio  formData  file  true  "Audio file"
// @Router       /transcribe [post]
func (h *Dub) Transcribe(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrValidation("audio file is required"))
	}
	audio, err := fh.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer audio.Close()

	provider, err := h.providersFor(c).Transcriber()
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	res, err := transcription.NewTranscriptionService(provider, h.opts.Transcription, h.logger).
		Transcribe(c.Request().Context(), audio)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &dub.TranscriptionResponse{
		Language: res.Language,
		Segments: presenter.ToSegmentDTOs(res.Segments),
		Speakers: entities.UniqueSpeakers(res.Segments),
	})
}

// Translate translates segments into the target language
// @Summary      Translate segments
// @Tags         Pipeline
// @Accept       json
// @Produce      json
// @Param        request  body  dub.TranslateRequest  true  "Target language and segments"
// @Router       /translate [post]
func (h *Dub) Translate(c echo.Context) error {
	var req dub.TranslateRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	chat, err := h.providersFor(c).Chat()
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	translated, err := translation.NewTranslationService(chat, h.logger).
		Translate(c.Request().Context(), req.Target, presenter.FromSegmentDTOs(req.Segments))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTranslationResponse(translated))
}

// Synthesize synthesizes one clip per segment
// @Summary      Synthesize segments
// @Description  "meta" carries segments and speaker configs as JSON; clone samples are sent as sample_<speaker> files
// @Tags         Pipeline
// @Accept       multipart/form-data
// @Produce      json
// @Router       /synthesize [post]
func (h *Dub) Synthesize(c echo.Context) error {
	var meta dub.SynthesizeMeta
	if err := h.bindMeta(c, &meta); err != nil {
		return HandleError(h.logger, c, err)
	}

	configs, err := h.speakerConfigs(c, meta.Speakers)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	parts, err := synthesis.NewSynthesisService(h.providersFor(c), h.opts.SynthesisConcurrency, h.logger).
		Synthesize(c.Request().Context(), presenter.FromSegmentDTOs(meta.Segments), configs)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToSynthesisResponse(parts))
}

// CreateDub queues a full dubbing run
// @Summary      Dub a video
// @Description  Accepts a video and a JSON "meta" part, returns 202 with the job id
// @Tags         Dubs
// @Accept       multipart/form-data
// @Produce      json
// @Param        video  formData  file  true  "Source video"
// @Router       /dubs [post]
func (h *Dub) CreateDub(c echo.Context) error {
	var meta dub.CreateDubMeta
	if err := h.bindMeta(c, &meta); err != nil {
		return HandleError(h.logger, c, err)
	}

	fh, err := c.FormFile("video")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrValidation("video file is required"))
	}
	video, err := fh.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer video.Close()

	speakers, err := h.speakerConfigs(c, meta.Speakers)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := dubbing.SubmitRequest{
		Video:          video,
		TargetLanguage: meta.Target,
		Speakers:       speakers,
		Subtitles:      dubbing.SubtitleOptions{Original: true, Target: true},
		Overrides:      credentials.OverridesFromHeader(c.Request().Header),
	}
	if meta.DefaultSpeaker != nil {
		def := presenter.ToSpeakerConfig("", *meta.DefaultSpeaker)
		req.DefaultSpeaker = &def
	}
	if meta.Subtitles != nil {
		if meta.Subtitles.Original != nil {
			req.Subtitles.Original = *meta.Subtitles.Original
		}
		if meta.Subtitles.Target != nil {
			req.Subtitles.Target = *meta.Subtitles.Target
		}
	}

	job, err := h.jobs.Submit(c.Request().Context(), req)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleAccepted(h.logger, c, presenter.ToQueuedDubResponse(job))
}

// GetDub returns a dub job with progress and download links
// @Summary      Get dub job
// @Tags         Dubs
// @Produce      json
// @Param        id  path  string  true  "Dub ID (UUID)"
// @Router       /dubs/{id} [get]
func (h *Dub) GetDub(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid dub id"))
	}

	status, err := h.jobs.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToDubResponse(status))
}

// ListDubs returns the newest dub jobs
// @Summary      List dub jobs
// @Tags         Dubs
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Param        limit   query  int     false  "Maximum jobs (default 100)"
// @Router       /dubs [get]
func (h *Dub) ListDubs(c echo.Context) error {
	var q dub.ListDubsQuery
	if err := c.Bind(&q); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid query"))
	}
	if err := c.Validate(&q); err != nil {
		return HandleError(h.logger, c, err)
	}

	jobs, err := h.jobs.List(c.Request().Context(), entities.DubJobStatus(q.Status), q.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToDubListResponse(jobs))
}

// bindMeta decodes and validates the JSON "meta" form field
func (h *Dub) bindMeta(c echo.Context, v interface{}) error {
	raw := c.FormValue("meta")
	if raw == "" {
		return errors.ErrValidation("meta is required")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errors.ErrInvalidPayload()
	}
	return c.Validate(v)
}

// speakerConfigs converts DTOs and attaches any sample_<speaker> uploads
func (h *Dub) speakerConfigs(c echo.Context, dtos map[string]dub.SpeakerConfigDTO) (map[string]entities.SpeakerConfig, error) {
	configs := make(map[string]entities.SpeakerConfig, len(dtos))
	for speaker, d := range dtos {
		cfg := presenter.ToSpeakerConfig(speaker, d)
		if cfg.NeedsClone() {
			fh, err := c.FormFile("sample_" + speaker)
			if err != nil && err != http.ErrMissingFile {
				return nil, errors.ErrInvalidPayload()
			}
			if fh != nil {
				sample, err := readSample(fh)
				if err != nil {
					return nil, err
				}
				cfg.Sample = sample
				cfg.SampleName = fh.Filename
			}
		}
		configs[speaker] = cfg
	}
	return configs, nil
}

func readSample(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxSampleBytes {
		return nil, errors.ErrValidation(fmt.Sprintf("voice sample %s exceeds %d bytes", fh.Filename, maxSampleBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxSampleBytes))
}
