package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/video-dubber/errors"
	"github.com/johnquangdev/video-dubber/internal/domain/entities"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/cache"
	"github.com/johnquangdev/video-dubber/internal/usecase/dubbing"
	"github.com/johnquangdev/video-dubber/internal/usecase/synthesis"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/internal/usecase/translation"
	pkgai "github.com/johnquangdev/video-dubber/pkg/ai"
	"github.com/johnquangdev/video-dubber/pkg/config"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
	pkgvalidator "github.com/johnquangdev/video-dubber/pkg/validator"
)

type stubTranscriber struct{}

func (stubTranscriber) Upload(ctx context.Context, audio io.Reader) (string, error) {
	_, err := io.ReadAll(audio)
	return "https://cdn.test/upload", err
}

func (stubTranscriber) Submit(ctx context.Context, audioURL string) (pkgai.Transcript, error) {
	return pkgai.Transcript{ID: "t-1", Status: pkgai.TranscriptStatusQueued}, nil
}

func (stubTranscriber) Get(ctx context.Context, transcriptID string) (pkgai.Transcript, error) {
	return pkgai.Transcript{
		ID:           "t-1",
		Status:       pkgai.TranscriptStatusCompleted,
		LanguageCode: "en",
		Utterances: []pkgai.TranscriptUtterance{
			{Start: 0, End: 1500, Text: "Hello there", Speaker: "A"},
			{Start: 1600, End: 3000, Text: "Hi", Speaker: "B"},
		},
	}, nil
}

type stubChat struct{ reply string }

func (s stubChat) CompleteJSON(ctx context.Context, system, user string, temperature float32) (string, error) {
	return s.reply, nil
}

type stubVoice struct{}

func (stubVoice) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	return []byte(voice + ":" + text), nil
}

type stubCloner struct{ samples map[string]string }

func (s *stubCloner) CloneVoice(ctx context.Context, name, sampleName string, sample []byte) (string, error) {
	s.samples[sampleName] = string(sample)
	return "cloned", nil
}

type stubProviders struct {
	chat      string
	cloner    *stubCloner
	overrides credentials.Overrides
	noOpenAI  bool
}

func (p *stubProviders) Transcriber() (transcription.Provider, error) {
	return stubTranscriber{}, nil
}

func (p *stubProviders) Chat() (translation.ChatCompleter, error) {
	if p.noOpenAI {
		return nil, apperrors.ErrConfiguration(credentials.OpenAIKey.String())
	}
	return stubChat{reply: p.chat}, nil
}

func (p *stubProviders) Synthesizer(entities.VoiceProvider) (synthesis.SpeechSynthesizer, error) {
	return stubVoice{}, nil
}

func (p *stubProviders) Cloner() (synthesis.VoiceCloner, error) {
	return p.cloner, nil
}

func (p *stubProviders) For(overrides credentials.Overrides) dubbing.Providers {
	p.overrides = overrides
	return p
}

type stubJobs struct {
	submitted *dubbing.SubmitRequest
	video     string
	jobs      map[uuid.UUID]*entities.DubJob
}

func (s *stubJobs) Submit(ctx context.Context, req dubbing.SubmitRequest) (*entities.DubJob, error) {
	data, err := io.ReadAll(req.Video)
	if err != nil {
		return nil, err
	}
	s.video = string(data)
	s.submitted = &req
	job := entities.NewDubJob(req.TargetLanguage)
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubJobs) Get(ctx context.Context, id uuid.UUID) (*dubbing.DubStatus, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.ErrDubNotFound(id.String())
	}
	return &dubbing.DubStatus{
		Job:      job,
		Progress: cache.Progress{Stage: string(job.Stage), Percent: 60},
		URLs:     map[string]string{"output.mp4": "https://cdn.test/output.mp4"},
	}, nil
}

func (s *stubJobs) List(ctx context.Context, status entities.DubJobStatus, limit int) ([]entities.DubJob, error) {
	var out []entities.DubJob
	for _, j := range s.jobs {
		if status == "" || j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *stubJobs) Shutdown(ctx context.Context) error { return nil }

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(providers *stubProviders, jobs *stubJobs) *echo.Echo {
	return newTestServerWithStorage(providers, jobs, nil)
}

func newTestServerWithStorage(providers *stubProviders, jobs *stubJobs, storage Pinger) *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	h := NewDub(providers, jobs, DubOptions{
		Transcription:        transcription.Options{PollInterval: time.Millisecond, PollAttempts: 3},
		SynthesisConcurrency: 2,
	}, nil)
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, h, storage).Setup(e)
	return e
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write([]byte(f.content))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func serve(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	e := newTestServer(&stubProviders{}, &stubJobs{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"environment":"test"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealth_Storage(t *testing.T) {
	e := newTestServerWithStorage(&stubProviders{}, &stubJobs{}, stubPinger{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"storage":"ok"`) {
		t.Fatalf("unexpected healthy response %d %s", rec.Code, rec.Body.String())
	}

	down := apperrors.ErrStorageFailed("ping", errors.New("connection refused"))
	e = newTestServerWithStorage(&stubProviders{}, &stubJobs{}, stubPinger{err: down})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Fatalf("unexpected degraded response %d %s", rec.Code, rec.Body.String())
	}
}

func TestTranscribe(t *testing.T) {
	e := newTestServer(&stubProviders{}, &stubJobs{})
	body, ct := multipartBody(t, nil, formFile{"audio", "input.wav", "RIFF"})
	req := httptest.NewRequest(http.MethodPost, "/v1/transcribe", body)
	req.Header.Set(echo.HeaderContentType, ct)

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Language string   `json:"language"`
		Speakers []string `json:"speakers"`
		Segments []struct {
			End     float64 `json:"end"`
			Speaker string  `json:"speaker"`
		} `json:"segments"`
	}
	json.Unmarshal(env.Data, &out)
	if out.Language != "en" || len(out.Segments) != 2 {
		t.Fatalf("unexpected transcription %+v", out)
	}
	if out.Segments[0].End != 1.5 || out.Segments[1].Speaker != "SB" {
		t.Fatalf("unexpected segments %+v", out.Segments)
	}
	if strings.Join(out.Speakers, ",") != "SA,SB" {
		t.Fatalf("unexpected speakers %v", out.Speakers)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	e := newTestServer(&stubProviders{}, &stubJobs{})
	body, ct := multipartBody(t, map[string]string{"other": "x"})
	req := httptest.NewRequest(http.MethodPost, "/v1/transcribe", body)
	req.Header.Set(echo.HeaderContentType, ct)

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusBadRequest || env.Code != int(apperrors.ErrorCode_VALIDATION) {
		t.Fatalf("expected validation error, got %d %+v", rec.Code, env)
	}
}

func TestTranslate(t *testing.T) {
	providers := &stubProviders{chat: `{"lines": ["Hola", "Adiós"]}`}
	e := newTestServer(providers, &stubJobs{})
	payload := `{"target":"es","segments":[{"start":0,"end":1,"text":"Hello","speaker":"S0"},{"start":1,"end":2,"text":"Bye","speaker":"S1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(credentials.OpenAIKey.Header(), "sk-request")

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Language string `json:"language"`
		Segments []struct {
			Text    string `json:"text"`
			Speaker string `json:"speaker"`
		} `json:"segments"`
	}
	json.Unmarshal(env.Data, &out)
	if out.Language != "es" || len(out.Segments) != 2 || out.Segments[1].Text != "Adiós" || out.Segments[1].Speaker != "S1" {
		t.Fatalf("unexpected translation %+v", out)
	}
	if providers.overrides[credentials.OpenAIKey] != "sk-request" {
		t.Fatalf("expected header override to reach providers, got %v", providers.overrides)
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		providers *stubProviders
		status    int
		code      apperrors.ErrorCode
	}{
		{
			name:      "missing target",
			payload:   `{"segments":[]}`,
			providers: &stubProviders{},
			status:    http.StatusBadRequest,
			code:      apperrors.ErrorCode_VALIDATION,
		},
		{
			name:      "end before start",
			payload:   `{"target":"es","segments":[{"start":2,"end":1,"text":"x","speaker":"S0"}]}`,
			providers: &stubProviders{},
			status:    http.StatusBadRequest,
			code:      apperrors.ErrorCode_VALIDATION,
		},
		{
			name:      "malformed json",
			payload:   `{"target":`,
			providers: &stubProviders{},
			status:    http.StatusBadRequest,
			code:      apperrors.ErrorCode_INVALID_PAYLOAD,
		},
		{
			name:      "missing key",
			payload:   `{"target":"es","segments":[]}`,
			providers: &stubProviders{noOpenAI: true},
			status:    http.StatusInternalServerError,
			code:      apperrors.ErrorCode_CONFIGURATION,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(tt.providers, &stubJobs{})
			req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(tt.payload))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			rec, env := serve(t, e, req)
			if rec.Code != tt.status || env.Code != int(tt.code) {
				t.Fatalf("expected %d/%d, got %d/%d: %s", tt.status, tt.code, rec.Code, env.Code, rec.Body.String())
			}
		})
	}
}

func TestSynthesize_CloneSampleFromForm(t *testing.T) {
	cloner := &stubCloner{samples: map[string]string{}}
	e := newTestServer(&stubProviders{cloner: cloner}, &stubJobs{})
	meta := `{"segments":[{"start":0,"end":1,"text":"hola","speaker":"S0"},{"start":1,"end":2,"text":"adiós","speaker":"S1"}],` +
		`"speakers":{"S0":{"strategy":"clone","provider":"elevenlabs"},"S1":{"strategy":"preset","provider":"openai","voice_id":"verse"}}}`
	body, ct := multipartBody(t, map[string]string{"meta": meta}, formFile{"sample_S0", "s0.wav", "SAMPLE"})
	req := httptest.NewRequest(http.MethodPost, "/v1/synthesize", body)
	req.Header.Set(echo.HeaderContentType, ct)

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cloner.samples["s0.wav"] != "SAMPLE" {
		t.Fatalf("expected sample upload, got %v", cloner.samples)
	}
	var out struct {
		Parts []struct {
			Filename string `json:"filename"`
			Data     []byte `json:"data"`
		} `json:"parts"`
	}
	json.Unmarshal(env.Data, &out)
	if len(out.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %+v", out)
	}
	if out.Parts[0].Filename != "seg_0.wav" || string(out.Parts[0].Data) != "cloned:hola" {
		t.Fatalf("unexpected first part %+v", out.Parts[0])
	}
	if string(out.Parts[1].Data) != "verse:adiós" {
		t.Fatalf("unexpected second part %q", out.Parts[1].Data)
	}
}

func TestSynthesize_InvalidStrategy(t *testing.T) {
	e := newTestServer(&stubProviders{}, &stubJobs{})
	meta := `{"segments":[],"speakers":{"S0":{"strategy":"mimic","provider":"openai"}}}`
	body, ct := multipartBody(t, map[string]string{"meta": meta})
	req := httptest.NewRequest(http.MethodPost, "/v1/synthesize", body)
	req.Header.Set(echo.HeaderContentType, ct)

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusBadRequest || env.Code != int(apperrors.ErrorCode_VALIDATION) {
		t.Fatalf("expected validation error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateDub_Accepted(t *testing.T) {
	jobs := &stubJobs{jobs: map[uuid.UUID]*entities.DubJob{}}
	e := newTestServer(&stubProviders{}, jobs)
	meta := `{"target":"es","default_speaker":{"strategy":"preset","provider":"elevenlabs"},"subtitles":{"original":false}}`
	body, ct := multipartBody(t, map[string]string{"meta": meta}, formFile{"video", "in.mp4", "MP4DATA"})
	req := httptest.NewRequest(http.MethodPost, "/v1/dubs", body)
	req.Header.Set(echo.HeaderContentType, ct)
	req.Header.Set(credentials.ElevenLabsKey.Header(), "el-key")

	rec, env := serve(t, e, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Target string `json:"target_language"`
	}
	json.Unmarshal(env.Data, &out)
	if _, err := uuid.Parse(out.ID); err != nil || out.Status != string(entities.DubJobStatusPending) || out.Target != "es" {
		t.Fatalf("unexpected queued job %+v", out)
	}

	sub := jobs.submitted
	if jobs.video != "MP4DATA" {
		t.Fatalf("video not forwarded, got %q", jobs.video)
	}
	if sub.Subtitles.Original || !sub.Subtitles.Target {
		t.Fatalf("expected original off and target on by default, got %+v", sub.Subtitles)
	}
	if sub.DefaultSpeaker == nil || sub.DefaultSpeaker.Provider != entities.VoiceProviderElevenLabs {
		t.Fatalf("unexpected default speaker %+v", sub.DefaultSpeaker)
	}
	if sub.Overrides[credentials.ElevenLabsKey] != "el-key" {
		t.Fatalf("expected override, got %v", sub.Overrides)
	}
}

func TestCreateDub_MissingVideo(t *testing.T) {
	jobs := &stubJobs{jobs: map[uuid.UUID]*entities.DubJob{}}
	e := newTestServer(&stubProviders{}, jobs)
	body, ct := multipartBody(t, map[string]string{"meta": `{"target":"es"}`})
	req := httptest.NewRequest(http.MethodPost, "/v1/dubs", body)
	req.Header.Set(echo.HeaderContentType, ct)

	rec, _ := serve(t, e, req)
	if rec.Code != http.StatusBadRequest || jobs.submitted != nil {
		t.Fatalf("expected 400 without submit, got %d", rec.Code)
	}
}

func TestGetDub(t *testing.T) {
	job := entities.NewDubJob("fr")
	job.MarkAsRunning()
	jobs := &stubJobs{jobs: map[uuid.UUID]*entities.DubJob{job.ID: job}}
	e := newTestServer(&stubProviders{}, jobs)

	rec, env := serve(t, e, httptest.NewRequest(http.MethodGet, "/v1/dubs/"+job.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ID        string            `json:"id"`
		Status    string            `json:"status"`
		Progress  int               `json:"progress"`
		Artifacts map[string]string `json:"artifacts"`
	}
	json.Unmarshal(env.Data, &out)
	if out.ID != job.ID.String() || out.Status != string(entities.DubJobStatusRunning) || out.Progress != 60 {
		t.Fatalf("unexpected dub %+v", out)
	}
	if out.Artifacts["output.mp4"] == "" {
		t.Fatalf("expected artifact links, got %v", out.Artifacts)
	}
}

func TestGetDub_Errors(t *testing.T) {
	e := newTestServer(&stubProviders{}, &stubJobs{jobs: map[uuid.UUID]*entities.DubJob{}})

	rec, env := serve(t, e, httptest.NewRequest(http.MethodGet, "/v1/dubs/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest || env.Code != int(apperrors.ErrorCode_INVALID_ARGUMENT) {
		t.Fatalf("expected invalid argument, got %d %+v", rec.Code, env)
	}

	rec, env = serve(t, e, httptest.NewRequest(http.MethodGet, "/v1/dubs/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound || env.Code != int(apperrors.ErrorCode_NOT_FOUND) {
		t.Fatalf("expected not found, got %d %+v", rec.Code, env)
	}
	if env.Details["dub_id"] == "" {
		t.Fatalf("expected dub_id detail, got %v", env.Details)
	}
}

func TestListDubs(t *testing.T) {
	running := entities.NewDubJob("fr")
	running.MarkAsRunning()
	pending := entities.NewDubJob("de")
	jobs := &stubJobs{jobs: map[uuid.UUID]*entities.DubJob{running.ID: running, pending.ID: pending}}
	e := newTestServer(&stubProviders{}, jobs)

	rec, env := serve(t, e, httptest.NewRequest(http.MethodGet, "/v1/dubs?status=running&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Count int `json:"count"`
	}
	json.Unmarshal(env.Data, &out)
	if out.Count != 1 || len(out.Items) != 1 || out.Items[0].ID != running.ID.String() {
		t.Fatalf("unexpected listing %+v", out)
	}

	rec, env = serve(t, e, httptest.NewRequest(http.MethodGet, "/v1/dubs?status=exploded", nil))
	if rec.Code != http.StatusBadRequest || env.Code != int(apperrors.ErrorCode_VALIDATION) {
		t.Fatalf("expected validation error, got %d %s", rec.Code, rec.Body.String())
	}
}
