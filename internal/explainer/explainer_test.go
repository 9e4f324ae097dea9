package explainer

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/router"
)

func TestStructuredExplanationDecoded(t *testing.T) {
	fake := llm.NewFake().Respond("structured explanation",
		`{"concept": "Quadratic Equations", "strategy": "Factorization", "key_insight": "The discriminant is a perfect square", "learning_points": ["Check the discriminant first"], "common_mistakes": ["Sign errors in the formula"], "difficulty": "Easy"}`)
	e := New(fake)

	exp := e.Explain(context.Background(), "Solve x^2 - 5x + 6 = 0",
		[]string{"Factor", "Read roots"}, "x = 2 or x = 3", router.Algebra)

	if exp.Concept != "Quadratic Equations" || exp.Difficulty != "Easy" {
		t.Fatalf("explanation = %+v", exp)
	}
	if len(exp.LearningPoints) != 1 {
		t.Fatalf("learning points = %v", exp.LearningPoints)
	}
}

func TestUndecodableReplyFallsBack(t *testing.T) {
	fake := llm.NewFake().Respond("structured explanation",
		"Well, this is a lovely problem about circles, let me tell you all about it...")
	e := New(fake)

	exp := e.Explain(context.Background(), "Find the circle equation",
		[]string{"Done"}, "x^2+y^2=25", router.Geometry)

	if exp.Concept != string(router.Geometry) {
		t.Fatalf("fallback concept = %q", exp.Concept)
	}
	if exp.KeyInsight == "" {
		t.Fatal("raw reply must be preserved as the insight")
	}
}

func TestModelErrorFallsBack(t *testing.T) {
	e := New(llm.NewFake()) // empty script: Generate errors
	exp := e.Explain(context.Background(), "p", nil, "a", router.Other)
	if exp.Concept != string(router.Other) || exp.Difficulty != "Medium" {
		t.Fatalf("explanation = %+v", exp)
	}
}

func TestMissingFieldsDefaulted(t *testing.T) {
	fake := llm.NewFake().Respond("structured explanation",
		`{"strategy": "Substitution", "key_insight": "Symmetry", "learning_points": []}`)
	e := New(fake)

	exp := e.Explain(context.Background(), "problem", nil, "answer", router.Calculus)
	if exp.Concept != string(router.Calculus) {
		t.Fatalf("concept not defaulted: %q", exp.Concept)
	}
	if exp.Difficulty != "Medium" {
		t.Fatalf("difficulty not defaulted: %q", exp.Difficulty)
	}
}
