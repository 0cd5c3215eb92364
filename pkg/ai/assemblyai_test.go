package ai

import (
	"testing"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestConvertTranscript_Utterances(t *testing.T) {
	in := aai.Transcript{
		ID:           strPtr("transcript-123"),
		Status:       aai.TranscriptStatusCompleted,
		LanguageCode: aai.TranscriptLanguageCode("en"),
		Utterances: []aai.TranscriptUtterance{
			{Start: int64Ptr(0), End: int64Ptr(1500), Speaker: strPtr("A"), Text: strPtr("Hello there")},
			{Start: int64Ptr(1600), End: int64Ptr(3200), Speaker: strPtr("B"), Text: strPtr("Hi")},
		},
	}

	out := convertTranscript(in)
	if out.ID != "transcript-123" || out.Status != TranscriptStatusCompleted {
		t.Fatalf("unexpected header %+v", out)
	}
	if out.LanguageCode != "en" {
		t.Fatalf("unexpected language %q", out.LanguageCode)
	}
	if len(out.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(out.Utterances))
	}
	if out.Utterances[1].Speaker != "B" || out.Utterances[1].Start != 1600 {
		t.Fatalf("unexpected utterance %+v", out.Utterances[1])
	}
	if out.Words != nil {
		t.Fatalf("expected no words, got %v", out.Words)
	}
}

func TestConvertTranscript_NilFields(t *testing.T) {
	in := aai.Transcript{
		Status: aai.TranscriptStatusError,
		Error:  strPtr("audio too short"),
		Words: []aai.TranscriptWord{
			{Text: strPtr("one")},
		},
	}

	out := convertTranscript(in)
	if out.ID != "" || out.Error != "audio too short" {
		t.Fatalf("unexpected transcript %+v", out)
	}
	if len(out.Words) != 1 || out.Words[0].Start != 0 || out.Words[0].Text != "one" {
		t.Fatalf("unexpected words %+v", out.Words)
	}
}

func TestMillisToSeconds(t *testing.T) {
	if got := MillisToSeconds(1500); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
}
