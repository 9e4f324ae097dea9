// Package guardrail screens a proposed solution plan for unsafe
// mathematical operations before it is allowed to execute. Rules apply to
// the plan's textual description, never to the problem's actual algebra.
package guardrail

// #region imports
import (
	"context"
	"fmt"
	"log"

	"github.com/danielpatrickdp/mathpilot/internal/extract"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #endregion

// #region prompt

const checkPrompt = `ROLE: You are a Mathematical Safety Guardrail.
YOU DO NOT SOLVE THE PROBLEM. YOU DO NOT SUGGEST NEW METHODS. YOU DO NOT EXPLAIN.

TASK: Inspect the proposed solution plan and decide whether it is SAFE to
execute under strict mathematical discipline.

Rule 1 (hard): Illegal division/cancellation. FAIL if the plan divides by or
cancels variable expressions without explicitly stating domain restrictions.
Rule 2 (hard): Composite variable solving. FAIL if the plan solves for xy,
x/y, x-y, etc. as primary substitution targets.
Rule 3 (hard): Degree escalation. FAIL if the original problem is degree <= 2
and the plan introduces degree >= 3 algebra.
Rule 4 (hard): Rational substitution. FAIL if the problem is polynomial and
the plan introduces rational expressions unnecessarily.
Rule 5 (hard): Planner doing algebra. FAIL if the plan itself contains
explicit equations, simplifications, or expansions. Plans describe actions,
not math.
Rule 6 (soft): Missed heuristics. FLAG (not fail) if integer testing or
obvious symmetry is ignored; set recommended_action to SWITCH_STRATEGY.
Rule 7 (hard): Arithmetic delegation. FAIL if the problem is arithmetic and
the plan does not delegate to the calculator tool, uses approximation
language, or suggests manual calculation for numbers over 100.
Rule 8 (hard): No mental arithmetic on numbers with 4+ digits.

Return STRICT JSON ONLY. No markdown, no extra text.
Schema: {"is_safe": bool, "violation_type": string|null, "reason": string|null,
"recommended_action": "EXECUTE"|"SWITCH_STRATEGY"|"TRIGGER_HITL"}

Problem: %s

Proposed Plan:
%s`

// #endregion

// #region gate

// Gate evaluates plans. Deterministic lexical screens run first; plans
// that pass are referred to the model-backed evaluation.
type Gate struct {
	llm llm.Client
}

// New creates a gate backed by the given evaluator.
func New(client llm.Client) *Gate {
	return &Gate{llm: client}
}

// Check rules on a (problem, plan) pair. A verdict that cannot be decoded
// from the evaluator fails closed: blocked, TRIGGER_HITL, never EXECUTE.
func (g *Gate) Check(ctx context.Context, problemText, plan string, isArithmetic bool) Verdict {
	if v := screen(problemText, plan, isArithmetic); v != nil {
		log.Printf("[GUARD] lexical veto: %s (%s)", v.ViolationKind, v.Reason)
		return *v
	}

	raw, err := g.llm.Generate(ctx, fmt.Sprintf(checkPrompt, problemText, plan))
	if err != nil {
		return failClosed(fmt.Sprintf("guardrail evaluator call failed: %v", err))
	}

	var v Verdict
	if err := extract.JSON(raw, &v); err != nil {
		return failClosed(fmt.Sprintf("guardrail verdict could not be decoded: %v", err))
	}
	v = normalize(v)
	log.Printf("[GUARD] verdict: safe=%v action=%s violation=%s", v.IsSafe, v.RecommendedAction, v.ViolationKind)
	return v
}

// #endregion

// #region normalize

// normalize enforces the verdict invariant on whatever the evaluator sent.
func normalize(v Verdict) Verdict {
	if !v.IsSafe && v.RecommendedAction == ActionExecute {
		v.RecommendedAction = ActionTriggerHITL
	}
	if v.RecommendedAction == "" {
		if v.IsSafe {
			v.RecommendedAction = ActionExecute
		} else {
			v.RecommendedAction = ActionTriggerHITL
		}
	}
	return v
}

func failClosed(reason string) Verdict {
	log.Printf("[GUARD] fail closed: %s", reason)
	return Verdict{
		IsSafe:            false,
		ViolationKind:     ViolationGateError,
		Reason:            reason,
		RecommendedAction: ActionTriggerHITL,
	}
}

// #endregion
