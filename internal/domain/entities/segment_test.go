package entities

import "testing"

func TestSegment_Duration(t *testing.T) {
	seg := Segment{Start: 1.25, End: 4, Text: "hi", Speaker: "S0"}
	if got := seg.Duration(); got != 2.75 {
		t.Fatalf("expected 2.75s, got %v", got)
	}
}
