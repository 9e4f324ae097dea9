// Package solver produces a step-by-step solution. Arithmetic problems go
// to the deterministic calculator; everything else runs plan, safety gate,
// then execute, with a bounded retrieval hint fed only to the executor.
package solver

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/mathpilot/internal/calc"
	"github.com/danielpatrickdp/mathpilot/internal/extract"
	"github.com/danielpatrickdp/mathpilot/internal/guardrail"
	"github.com/danielpatrickdp/mathpilot/internal/knowledge"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/policy"
	"github.com/danielpatrickdp/mathpilot/internal/router"
)

// #endregion

// #region types

// Solution is the solver output handed to the verifier.
type Solution struct {
	Plan        string   `json:"plan"`
	Steps       []string `json:"steps"`
	FinalAnswer string   `json:"final_answer"`
	Confidence  float64  `json:"confidence"`
	Context     string   `json:"context,omitempty"`
	Provenance  string   `json:"tool_used,omitempty"`
	Err         string   `json:"error,omitempty"`
}

// #endregion

// #region prompts

const planPrompt = `You are a mathematics strategy expert.
Objective: Create a surgical, mechanical execution plan.
Rules:
1. Conciseness: The plan must be short and actionable. Do NOT explain concepts.
2. Sign Check: Be extremely careful with signs (e.g., Vieta's sum is -b/a).
3. Variables: List ALL variables with domains.
4. Recurrence: If the problem is a sequence, explicitly state the recurrence.
5. No Calculations: Describe ONLY logical actions. Do NOT include equations or algebraic expressions.
6. ABSOLUTE PROHIBITION: Do NOT do algebra in the plan.
   - Do NOT solve for composite terms like xy.
   - Do NOT divide by variable expressions in the plan.
   - Do NOT introduce rational expressions.
   - The plan must preserve polynomial structure.
   - Example: 'Rearrange first equation' is GOOD. 'x = 7+y' is BAD.
Output Format:
**Concept:** <Brief concept name>
**Strategy:**
1. <Step 1>
2. <Step 2>

Problem: %s
Create a strategy plan.`

const executePrompt = `ROLE: You are a rigorous mathematics solver.
GENERAL RULES (NON-NEGOTIABLE):
1. You must NEVER guess.
2. You must NEVER handwave or say 'use a calculator' and still give an answer.
3. If you are unsure at any point, STOP and report uncertainty.
STRATEGY RULES:
4. Preserve the mathematical structure of the problem.
5. Do NOT solve for composite expressions like xy, x-y, x/y unless explicitly required.
6. Do NOT divide or cancel expressions involving variables unless the cancellation is fully justified and domain restrictions are stated.
7. If the problem is purely arithmetic with large numbers, defer to a tool. Do NOT compute numerically if unsafe.
8. If algebraic manipulation increases the degree beyond what is expected, STOP and switch strategy. Prefer integer testing, factor inspection, symmetry, substitution of small values.
EXECUTION DISCIPLINE:
9. Show only mathematically meaningful steps.
10. Every division or cancellation must include its validity condition.
OUTPUT REQUIREMENTS:
Do NOT output JSON. Use this exact text format:
---STEPS---
1. First step here
2. Second step here
---FINAL_ANSWER---
The final result
---CONFIDENCE---
1.0

Problem: %s
Context Highlights: %s
Plan: %s
Execute this and return with the section delimiters.`

// #endregion

// #region solver

// contextBudget caps the retrieval hint fed to the executor.
const contextBudget = 1500

// Solver is the solve stage.
type Solver struct {
	llm   llm.Client
	gate  *guardrail.Gate
	calc  *calc.Calculator
	store knowledge.Store
}

// New wires the stage. store may be nil when retrieval is unavailable.
func New(client llm.Client, gate *guardrail.Gate, calculator *calc.Calculator, store knowledge.Store) *Solver {
	return &Solver{llm: client, gate: gate, calc: calculator, store: store}
}

// Solve produces a solution for the routed problem. It never returns an
// error: failures surface as zero-confidence Solutions with Err set.
func (s *Solver) Solve(ctx context.Context, problemText string, category router.Category) Solution {
	if category == router.Arithmetic {
		return s.solveWithTool(ctx, problemText)
	}

	contextStr := s.retrieve(ctx, problemText)

	// The plan is generated without retrieval context so mismatched
	// examples cannot steer the strategy.
	plan, err := s.llm.Generate(ctx, fmt.Sprintf(planPrompt, problemText))
	if err != nil {
		return Solution{
			FinalAnswer: "Error",
			Confidence:  0.0,
			Context:     contextStr,
			Err:         fmt.Sprintf("planner call failed: %v", err),
		}
	}

	verdict := s.gate.Check(ctx, problemText, plan, false)
	if !verdict.IsSafe {
		log.Printf("[SOLVE] guardrail intercepted: %s", verdict.ViolationKind)
		return Solution{
			Plan:        plan,
			FinalAnswer: "Guardrail Intercepted",
			Confidence:  0.0,
			Context:     contextStr,
			Err: fmt.Sprintf("Guardrail Violation: %s - %s. Rec: %s",
				verdict.ViolationKind, verdict.Reason, verdict.RecommendedAction),
		}
	}

	raw, err := s.llm.Generate(ctx, fmt.Sprintf(executePrompt, problemText, contextStr, plan))
	if err != nil {
		return degraded(plan, contextStr, fmt.Sprintf("executor call failed: %v", err))
	}
	return parseExecution(plan, contextStr, raw)
}

// retrieve fetches the single closest knowledge-base hit, truncated to the
// context budget. Retrieval failures are logged and ignored.
func (s *Solver) retrieve(ctx context.Context, problemText string) string {
	if s.store == nil {
		return ""
	}
	hits, err := s.store.Query(ctx, problemText, 1)
	if err != nil {
		log.Printf("[SOLVE] retrieval failed: %v", err)
		return ""
	}
	if len(hits) == 0 {
		return ""
	}
	text := hits[0].Text
	if len(text) > contextBudget {
		text = text[:contextBudget]
	}
	return text
}

// parseExecution decodes the delimited executor output. A reply missing
// the section markers degrades instead of guessing at structure.
func parseExecution(plan, contextStr, raw string) Solution {
	bodies, err := extract.Sections(raw, "---STEPS---", "---FINAL_ANSWER---")
	if err != nil {
		return degraded(plan, contextStr, fmt.Sprintf("executor output missing delimiters: %v", err))
	}
	steps := extract.NumberedLines(bodies[0])
	if len(steps) == 0 {
		return degraded(plan, contextStr, "executor output contained no steps")
	}

	// A missing confidence section is an executor contract breach and scores
	// zero; a present but malformed one is treated as full confidence.
	finalAnswer := bodies[1]
	confidence := 0.0
	if before, after, found := strings.Cut(bodies[1], "---CONFIDENCE---"); found {
		finalAnswer = strings.TrimSpace(before)
		confidence = 1.0
		if v, perr := strconv.ParseFloat(strings.TrimSpace(after), 64); perr == nil {
			confidence = v
		}
	}

	log.Printf("[SOLVE] steps=%d confidence=%.2f", len(steps), confidence)
	return Solution{
		Plan:        plan,
		Steps:       steps,
		FinalAnswer: strings.TrimSpace(finalAnswer),
		Confidence:  confidence,
		Context:     contextStr,
	}
}

// degraded is the zero-confidence fallback when execution output is unusable.
func degraded(plan, contextStr, errMsg string) Solution {
	return Solution{
		Plan:        plan,
		Steps:       []string{"Error parsing solver output"},
		FinalAnswer: "Error",
		Confidence:  0.0,
		Context:     contextStr,
		Err:         errMsg,
	}
}

// solveWithTool delegates pure arithmetic to the exact calculator.
func (s *Solver) solveWithTool(ctx context.Context, problemText string) Solution {
	result := s.calc.SolveArithmetic(ctx, problemText)
	if !result.Success {
		return Solution{
			Plan:        "Tool computation failed",
			FinalAnswer: "Error",
			Confidence:  0.0,
			Provenance:  policy.ProvenanceTool,
			Err:         fmt.Sprintf("Calculator error: %s", result.Err),
		}
	}

	symbolic := result.Symbolic
	if symbolic == "" {
		symbolic = result.Answer()
	}
	return Solution{
		Plan: "Direct computation via exact calculator",
		Steps: []string{
			"Parsed expression: " + result.ParsedExpression,
			"Computed exact value: " + symbolic,
		},
		FinalAnswer: result.Answer(),
		Confidence:  1.0,
		Context:     "Exact symbolic computation tool used",
		Provenance:  policy.ProvenanceTool,
	}
}

// #endregion
