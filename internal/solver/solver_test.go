package solver

import (
	"context"
	"strings"
	"testing"

	"github.com/danielpatrickdp/mathpilot/internal/calc"
	"github.com/danielpatrickdp/mathpilot/internal/guardrail"
	"github.com/danielpatrickdp/mathpilot/internal/knowledge"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/policy"
	"github.com/danielpatrickdp/mathpilot/internal/router"
)

const safeVerdict = `{"is_safe": true, "violation_type": "", "reason": "", "recommended_action": "EXECUTE"}`

func newSolver(fake *llm.Fake, store knowledge.Store) *Solver {
	return New(fake, guardrail.New(fake), calc.New(fake), store)
}

func TestArithmeticDelegatesToCalculator(t *testing.T) {
	fake := llm.NewFake() // pattern fast path, no model calls
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "square root of 144", router.Arithmetic)
	if sol.FinalAnswer != "12" {
		t.Fatalf("answer = %q", sol.FinalAnswer)
	}
	if sol.Confidence != 1.0 {
		t.Fatalf("confidence = %g, deterministic tool must report 1.0", sol.Confidence)
	}
	if sol.Provenance != policy.ProvenanceTool {
		t.Fatalf("provenance = %q", sol.Provenance)
	}
	if len(fake.Prompts) != 0 {
		t.Fatal("pattern-matched arithmetic must not consult the model")
	}
}

func TestCalculatorFailureIsZeroConfidence(t *testing.T) {
	fake := llm.NewFake().Respond("plain expression", "ERROR_NOT_MATH")
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "what is the meaning of life", router.Arithmetic)
	if sol.Confidence != 0.0 || sol.FinalAnswer != "Error" {
		t.Fatalf("solution = %+v", sol)
	}
	if sol.Provenance != policy.ProvenanceTool {
		t.Fatal("tool provenance must be kept on failure for the release policy")
	}
	if sol.Err == "" {
		t.Fatal("error detail must be surfaced")
	}
}

func TestPlanGateExecuteHappyPath(t *testing.T) {
	fake := llm.NewFake().
		Respond("strategy plan", "**Concept:** Quadratics\n**Strategy:**\n1. Factor the quadratic\n2. Read off the roots").
		Respond("Safety Guardrail", safeVerdict).
		Respond("section delimiters", "---STEPS---\n1. Factor: (x-2)(x-3)=0\n2. Roots: x=2, x=3\n---FINAL_ANSWER---\nx = 2 or x = 3\n---CONFIDENCE---\n0.95")
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "Solve x^2 - 5x + 6 = 0", router.Algebra)
	if sol.FinalAnswer != "x = 2 or x = 3" {
		t.Fatalf("answer = %q", sol.FinalAnswer)
	}
	if sol.Confidence != 0.95 {
		t.Fatalf("confidence = %g", sol.Confidence)
	}
	if len(sol.Steps) != 2 || strings.HasPrefix(sol.Steps[0], "1.") {
		t.Fatalf("steps = %v", sol.Steps)
	}
	if sol.Provenance != "" {
		t.Fatalf("model path must not claim tool provenance: %q", sol.Provenance)
	}
}

func TestGuardrailInterceptStopsExecution(t *testing.T) {
	fake := llm.NewFake().
		Respond("strategy plan", "1. Set x = 7+y and substitute") // lexical screen trips, no gate model call
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "Solve the system x+y=7, xy=12", router.Algebra)
	if sol.FinalAnswer != "Guardrail Intercepted" {
		t.Fatalf("answer = %q", sol.FinalAnswer)
	}
	if sol.Confidence != 0.0 {
		t.Fatalf("confidence = %g", sol.Confidence)
	}
	if !strings.Contains(sol.Err, "Guardrail Violation") {
		t.Fatalf("err = %q", sol.Err)
	}
	if sol.Plan == "" {
		t.Fatal("the rejected plan must be preserved for the human")
	}
	// Planner consulted once; executor never reached.
	if len(fake.Prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(fake.Prompts))
	}
}

func TestRetrievalFeedsExecutorNotPlanner(t *testing.T) {
	store := knowledge.NewMemoryStore()
	if err := store.Add(context.Background(), []knowledge.Document{
		{ID: "d1", Text: "Topic: Quadratic Equations. Roots via the discriminant formula."},
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	fake := llm.NewFake().
		Respond("strategy plan", "**Concept:** Quadratics\n**Strategy:**\n1. Apply the standard method").
		Respond("Safety Guardrail", safeVerdict).
		Respond("section delimiters", "---STEPS---\n1. Done\n---FINAL_ANSWER---\n42\n---CONFIDENCE---\n1.0")
	s := newSolver(fake, store)

	sol := s.Solve(context.Background(), "Find the roots of the quadratic equation", router.Algebra)
	if !strings.Contains(sol.Context, "Quadratic Equations") {
		t.Fatalf("context = %q", sol.Context)
	}

	var planPrompt, execPrompt string
	for _, p := range fake.Prompts {
		if strings.Contains(p, "strategy plan") {
			planPrompt = p
		}
		if strings.Contains(p, "section delimiters") {
			execPrompt = p
		}
	}
	if strings.Contains(planPrompt, "discriminant") {
		t.Fatal("retrieval context must not reach the planner")
	}
	if !strings.Contains(execPrompt, "discriminant") {
		t.Fatal("retrieval context must reach the executor")
	}
}

func TestMissingDelimitersDegrade(t *testing.T) {
	fake := llm.NewFake().
		Respond("strategy plan", "**Concept:** Algebra\n**Strategy:**\n1. Proceed carefully").
		Respond("Safety Guardrail", safeVerdict).
		Respond("section delimiters", "The answer is clearly 42, no need for formalities.")
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "Evaluate the expression", router.Algebra)
	if sol.FinalAnswer != "Error" || sol.Confidence != 0.0 {
		t.Fatalf("solution = %+v", sol)
	}
	if sol.Err == "" {
		t.Fatal("parse failure detail must be surfaced")
	}
}

func TestMissingConfidenceSectionScoresZero(t *testing.T) {
	fake := llm.NewFake().
		Respond("strategy plan", "**Concept:** Algebra\n**Strategy:**\n1. Proceed").
		Respond("Safety Guardrail", safeVerdict).
		Respond("section delimiters", "---STEPS---\n1. Worked it out\n---FINAL_ANSWER---\n7")
	s := newSolver(fake, nil)

	sol := s.Solve(context.Background(), "Evaluate the expression", router.Algebra)
	if sol.FinalAnswer != "7" {
		t.Fatalf("answer = %q", sol.FinalAnswer)
	}
	if sol.Confidence != 0.0 {
		t.Fatalf("confidence = %g, undeclared confidence must not be trusted", sol.Confidence)
	}
}

func TestContextTruncatedToBudget(t *testing.T) {
	store := knowledge.NewMemoryStore()
	long := "Topic: Circles. " + strings.Repeat("radius center equation chord tangent ", 100)
	if err := store.Add(context.Background(), []knowledge.Document{{ID: "d1", Text: long}}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	fake := llm.NewFake().
		Respond("strategy plan", "**Concept:** Circles\n**Strategy:**\n1. Use the standard equation").
		Respond("Safety Guardrail", safeVerdict).
		Respond("section delimiters", "---STEPS---\n1. Done\n---FINAL_ANSWER---\nok\n---CONFIDENCE---\n1.0")
	s := newSolver(fake, store)

	sol := s.Solve(context.Background(), "Find the equation of the circle with given center and radius", router.Geometry)
	if len(sol.Context) > 1500 {
		t.Fatalf("context length = %d, want <= 1500", len(sol.Context))
	}
}
