package extract

import (
	"errors"
	"testing"
)

type verdict struct {
	IsSafe bool   `json:"is_safe"`
	Reason string `json:"reason"`
}

func TestJSONFencedBlock(t *testing.T) {
	raw := "Here is my verdict:\n```json\n{\"is_safe\": true, \"reason\": \"ok\"}\n```\nThanks!"
	var v verdict
	if err := JSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsSafe || v.Reason != "ok" {
		t.Fatalf("bad decode: %+v", v)
	}
}

func TestJSONBareBraces(t *testing.T) {
	raw := `Sure! The answer is {"is_safe": false, "reason": "rule 5"} as requested.`
	var v verdict
	if err := JSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsSafe || v.Reason != "rule 5" {
		t.Fatalf("bad decode: %+v", v)
	}
}

func TestJSONGarbageFails(t *testing.T) {
	var v verdict
	err := JSON("I refuse to answer in JSON today.", &v)
	if err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestJSONPrefersFenceOverStrayBraces(t *testing.T) {
	raw := "prose { not json }\n```json\n{\"is_safe\": true}\n```"
	var v verdict
	if err := JSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsSafe {
		t.Fatal("fenced block should win")
	}
}

func TestSectionsHappyPath(t *testing.T) {
	raw := "---STEPS---\n1. Factor.\n2. Solve.\n---FINAL_ANSWER---\nx = 3\n---CONFIDENCE---\n0.9"
	bodies, err := Sections(raw, "---STEPS---", "---FINAL_ANSWER---", "---CONFIDENCE---")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bodies) != 3 {
		t.Fatalf("expected 3 bodies, got %d", len(bodies))
	}
	if bodies[1] != "x = 3" {
		t.Fatalf("final answer body = %q", bodies[1])
	}
	if bodies[2] != "0.9" {
		t.Fatalf("confidence body = %q", bodies[2])
	}
}

func TestSectionsMissingMarker(t *testing.T) {
	raw := "---STEPS---\n1. Something.\nNo final answer marker here."
	_, err := Sections(raw, "---STEPS---", "---FINAL_ANSWER---")
	if err == nil {
		t.Fatal("expected missing-marker error")
	}
	var mm *ErrMissingMarker
	if !errors.As(err, &mm) {
		t.Fatalf("expected ErrMissingMarker, got %T", err)
	}
	if mm.Marker != "---FINAL_ANSWER---" {
		t.Fatalf("wrong marker reported: %s", mm.Marker)
	}
}

func TestNumberedLines(t *testing.T) {
	lines := NumberedLines("1. First step\n\n2. Second step\n  3.  Third step ")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "First step" || lines[2] != "Third step" {
		t.Fatalf("numbering not stripped: %v", lines)
	}
}
