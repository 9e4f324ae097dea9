package verifier

import (
	"context"
	"strings"
	"testing"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/policy"
)

func TestCalculatorAnswerTrustedWithoutModel(t *testing.T) {
	fake := llm.NewFake() // must not be consulted
	v := New(fake)

	rep := v.Verify(context.Background(), "square root of 144", Input{
		Steps:       []string{"Parsed: sqrt(144)", "Evaluated: 12"},
		FinalAnswer: "12",
		Provenance:  policy.ProvenanceTool,
	}, false)

	if !rep.IsCorrect {
		t.Fatalf("report = %+v", rep)
	}
	if rep.AdjustedConfidence != 1.0 || rep.Method != "symbolic" {
		t.Fatalf("report = %+v", rep)
	}
	if len(fake.Prompts) != 0 {
		t.Fatal("sanity-passing calculator answer must not consult the model")
	}
}

func TestCalculatorBlowupEscalatesToCritique(t *testing.T) {
	fake := llm.NewFake().Respond("Verify this",
		`{"is_correct": false, "critique": "magnitude out of range", "adjusted_confidence": 0.1, "verification_method": "numerical"}`)
	v := New(fake)

	rep := v.Verify(context.Background(), "10^200", Input{
		Steps:       []string{"Evaluated"},
		FinalAnswer: "1e+200",
		Provenance:  policy.ProvenanceTool,
	}, false)

	if rep.IsCorrect {
		t.Fatal("out-of-range numeric answer must not be trusted")
	}
	if len(fake.Prompts) != 1 {
		t.Fatal("sanity failure must escalate to the critique model")
	}
}

func TestSymbolicAnswerPassesSanity(t *testing.T) {
	v := New(llm.NewFake())
	rep := v.Verify(context.Background(), "simplify sqrt(45)", Input{
		Steps:       []string{"Factored: 9*5", "Extracted: 3*sqrt(5)"},
		FinalAnswer: "3*sqrt(5)",
		Provenance:  policy.ProvenanceTool,
	}, false)
	if !rep.IsCorrect {
		t.Fatalf("symbolic answer must pass the numeric sanity check: %+v", rep)
	}
}

func TestModelAnswerGoesToCritique(t *testing.T) {
	fake := llm.NewFake().Respond("Verify this",
		`{"is_correct": true, "critique": "Correct", "adjusted_confidence": 0.85, "verification_method": "both"}`)
	v := New(fake)

	rep := v.Verify(context.Background(), "Solve x^2 - 5x + 6 = 0", Input{
		Steps:       []string{"Factor: (x-2)(x-3)=0", "Roots: x=2, x=3"},
		FinalAnswer: "x = 2 or x = 3",
	}, false)

	if !rep.IsCorrect || rep.AdjustedConfidence != 0.85 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestStrictModePrefixesAudit(t *testing.T) {
	fake := llm.NewFake().Respond("Verify this",
		`{"is_correct": false, "critique": "step 2 skips a domain check", "adjusted_confidence": 0.3, "verification_method": "symbolic"}`)
	v := New(fake)

	v.Verify(context.Background(), "Solve x/(x-1) = 2", Input{
		Steps:       []string{"Multiply both sides by x-1", "x = 2x - 2", "x = 2"},
		FinalAnswer: "x = 2",
	}, true)

	if len(fake.Prompts) != 1 || !strings.HasPrefix(fake.Prompts[0], "STRICT AUDIT MODE ENABLED") {
		t.Fatalf("strict prompt missing: %q", fake.Prompts)
	}
}

func TestStrictModeRecheckSkipsCalculatorTrust(t *testing.T) {
	fake := llm.NewFake().Respond("Verify this",
		`{"is_correct": true, "critique": "Correct", "adjusted_confidence": 0.9, "verification_method": "numerical"}`)
	v := New(fake)

	v.Verify(context.Background(), "12 * 34", Input{
		Steps:       []string{"Evaluated"},
		FinalAnswer: "408",
		Provenance:  policy.ProvenanceTool,
	}, true)

	if len(fake.Prompts) != 1 {
		t.Fatal("strict mode must re-audit even calculator answers")
	}
}

func TestUndecodableCritiqueFailsClosed(t *testing.T) {
	fake := llm.NewFake().Respond("Verify this", "Looks fine to me!")
	v := New(fake)

	rep := v.Verify(context.Background(), "Solve x = 1", Input{
		Steps:       []string{"Trivial"},
		FinalAnswer: "1",
	}, false)

	if rep.IsCorrect || rep.AdjustedConfidence != 0.0 {
		t.Fatalf("undecodable critique must fail closed: %+v", rep)
	}
	if !strings.Contains(rep.Critique, "Looks fine to me!") {
		t.Fatalf("raw reply must be preserved in the critique: %q", rep.Critique)
	}
}

func TestMissingAnswerFailsSanity(t *testing.T) {
	if sanityCheck(Input{Steps: []string{"a"}, FinalAnswer: ""}) {
		t.Fatal("empty answer must fail")
	}
	if sanityCheck(Input{Steps: nil, FinalAnswer: "5"}) {
		t.Fatal("missing steps must fail")
	}
	if !sanityCheck(Input{Steps: []string{"a"}, FinalAnswer: "5"}) {
		t.Fatal("plain answer must pass")
	}
}
