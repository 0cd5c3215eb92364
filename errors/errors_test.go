package errors

import (
	"net/http"
	"testing"
)

func TestErrDubNotFound(t *testing.T) {
	err := ErrDubNotFound("abc")
	if err.HTTPCode != http.StatusNotFound || err.Code != ErrorCode_NOT_FOUND {
		t.Fatalf("unexpected classification %d/%v", err.HTTPCode, err.Code)
	}
	if err.Message != "Dub job not found" || err.Details["dub_id"] != "abc" {
		t.Fatalf("unexpected error %+v", err)
	}
}
