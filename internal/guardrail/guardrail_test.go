package guardrail

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

const safeVerdict = `{"is_safe": true, "violation_type": null, "reason": null, "recommended_action": "EXECUTE"}`

func TestPlannerAlgebraVeto(t *testing.T) {
	// The LLM must never be consulted: the lexical screen decides.
	g := New(llm.NewFake())
	plan := "1. Rearrange the first equation so that x = 7+y\n2. Substitute."
	v := g.Check(context.Background(), "Solve the system x+y=7, x-y=1", plan, false)

	if v.IsSafe {
		t.Fatal("expected unsafe verdict")
	}
	if v.ViolationKind != ViolationPlannerAlgebra {
		t.Fatalf("violation = %s", v.ViolationKind)
	}
	if v.RecommendedAction == ActionExecute {
		t.Fatal("unsafe verdict must not recommend EXECUTE")
	}
}

func TestArithmeticMustDelegate(t *testing.T) {
	g := New(llm.NewFake())
	plan := "1. Multiply the numbers step by step.\n2. Report the product."
	v := g.Check(context.Background(), "Compute 1234 * 5678", plan, true)

	if v.IsSafe {
		t.Fatal("expected unsafe verdict")
	}
	if v.ViolationKind != ViolationArithmeticBypass {
		t.Fatalf("violation = %s", v.ViolationKind)
	}
}

func TestApproximationLanguageVeto(t *testing.T) {
	g := New(llm.NewFake())
	plan := "1. Delegate to calculator, then roughly estimate the remainder by hand."
	v := g.Check(context.Background(), "Compute sqrt(200)", plan, true)

	if v.IsSafe {
		t.Fatal("expected unsafe verdict")
	}
}

func TestManualArithmeticOnBigNumbers(t *testing.T) {
	g := New(llm.NewFake())
	plan := "1. Use the calculator tool.\n2. If unavailable, carry the 1 across columns."
	v := g.Check(context.Background(), "What is 9999 + 8888?", plan, true)

	if v.IsSafe {
		t.Fatal("expected unsafe verdict")
	}
}

func TestCleanPlanReachesEvaluator(t *testing.T) {
	fake := llm.NewFake().Queue(safeVerdict)
	g := New(fake)
	plan := "1. Identify the quadratic structure.\n2. Apply the standard formula.\n3. Check both roots."
	v := g.Check(context.Background(), "Solve t^2 - 5t + 6 = 0", plan, false)

	if !v.IsSafe {
		t.Fatalf("expected safe verdict, got %+v", v)
	}
	if v.RecommendedAction != ActionExecute {
		t.Fatalf("action = %s", v.RecommendedAction)
	}
	if len(fake.Prompts) != 1 {
		t.Fatalf("evaluator should have been consulted once, got %d", len(fake.Prompts))
	}
}

func TestSoftFailSurfacedNotBlocked(t *testing.T) {
	fake := llm.NewFake().Queue(`{"is_safe": true, "violation_type": "missed_heuristics", "reason": "integer testing ignored", "recommended_action": "SWITCH_STRATEGY"}`)
	g := New(fake)
	v := g.Check(context.Background(), "Find integer roots", "1. Expand everything.", false)

	if !v.IsSafe {
		t.Fatal("soft rule alone must not block execution")
	}
	if v.RecommendedAction != ActionSwitchStrategy {
		t.Fatalf("action = %s", v.RecommendedAction)
	}
}

func TestFailClosedOnUndecodableVerdict(t *testing.T) {
	fake := llm.NewFake().Queue("I think this plan is probably fine, go ahead!")
	g := New(fake)
	v := g.Check(context.Background(), "Solve x+1=2", "1. Isolate the unknown.", false)

	if v.IsSafe {
		t.Fatal("undecodable verdict must fail closed")
	}
	if v.RecommendedAction != ActionTriggerHITL {
		t.Fatalf("action = %s, want TRIGGER_HITL", v.RecommendedAction)
	}
	if v.ViolationKind != ViolationGateError {
		t.Fatalf("violation = %s", v.ViolationKind)
	}
}

func TestUnsafeVerdictNeverExecutes(t *testing.T) {
	// Evaluator contradicts itself; normalize must repair the invariant.
	fake := llm.NewFake().Queue(`{"is_safe": false, "violation_type": "degree_escalation", "reason": "quartic", "recommended_action": "EXECUTE"}`)
	g := New(fake)
	v := g.Check(context.Background(), "Solve a quadratic", "1. Square both sides twice.", false)

	if v.IsSafe {
		t.Fatal("expected unsafe")
	}
	if v.RecommendedAction == ActionExecute {
		t.Fatal("is_safe=false implies recommended_action != EXECUTE")
	}
}

func TestLexicalScreenIdempotent(t *testing.T) {
	plan := "1. Set y = 3x-2 and substitute."
	first := screen("Solve the system", plan, false)
	for i := 0; i < 10; i++ {
		again := screen("Solve the system", plan, false)
		if (first == nil) != (again == nil) {
			t.Fatal("screen verdict changed between runs")
		}
		if first != nil && again.ViolationKind != first.ViolationKind {
			t.Fatal("screen violation changed between runs")
		}
	}
	if first == nil {
		t.Fatal("expected the equation pattern to fire")
	}
}
