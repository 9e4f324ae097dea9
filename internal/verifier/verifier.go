// Package verifier audits a solved problem before the release decision.
// Calculator answers get a cheap deterministic sanity check; model answers
// get an independent critique with a strict JSON verdict.
package verifier

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/danielpatrickdp/mathpilot/internal/extract"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/policy"
)

// #endregion

// #region types

// Input is the solution under audit.
type Input struct {
	Steps       []string `json:"steps"`
	FinalAnswer string   `json:"final_answer"`
	Provenance  string   `json:"tool_used,omitempty"`
}

// Report is the audit verdict.
type Report struct {
	IsCorrect          bool    `json:"is_correct"`
	Critique           string  `json:"critique"`
	AdjustedConfidence float64 `json:"adjusted_confidence"`
	Method             string  `json:"verification_method"`
}

// #endregion

// #region sanity

// sanityLimit bounds the magnitude a numeric answer may take before it is
// treated as a computation blowup rather than a real result.
const sanityLimit = 1e100

// sanityCheck flags only obvious calculator failures: a missing answer,
// a numeric blowup, or no recorded steps. Symbolic answers pass the
// numeric check by construction.
func sanityCheck(in Input) bool {
	if in.FinalAnswer == "" {
		return false
	}
	if v, err := strconv.ParseFloat(in.FinalAnswer, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= -sanityLimit || v >= sanityLimit {
			return false
		}
	}
	return len(in.Steps) > 0
}

// #endregion

// #region verifier

const critiquePrompt = `ROLE: You are a deterministic JSON validator acting as a board examiner.
You do NOT explain. You do NOT think out loud.

VERIFICATION RULES:
1. Verify numerical consistency: if a symbolic form exists, check the decimal matches. Allow small floating-point errors.
2. DO NOT flag 'clean' decimals, repeating patterns, or perfect divisions as suspicious.
3. ONLY mark incorrect for: clearly wrong algebraic manipulation, domain violation, dimensional mismatch, division by zero.
4. If ANY step is invalid, is_correct = false.
5. If division or cancellation occurs without a domain check, is_correct = false.
6. If unsure, is_correct = false.

Output RAW JSON ONLY with schema:
{"is_correct": boolean, "critique": "specific concise feedback or Correct", "adjusted_confidence": float, "verification_method": "symbolic|numerical|both"}

Problem: %s
Solution: %s
Verify this.`

const strictPreamble = `STRICT AUDIT MODE ENABLED.
1. CHECK EVERY SINGLE ALGEBRAIC STEP.
2. FAIL IF ANY DOMAIN RESTRICTION IS MISSED.
3. FAIL IF PLAN DOES NOT MATCH EXECUTION.
`

// Verifier is the audit stage.
type Verifier struct {
	llm llm.Client
}

// New wires the stage.
func New(client llm.Client) *Verifier {
	return &Verifier{llm: client}
}

// Verify audits a solution. Calculator answers that pass the sanity check
// are trusted outright; everything else, including a calculator answer
// that fails sanity, goes to the model critique. Verify never returns an
// error: an unusable critique becomes a failing Report.
func (v *Verifier) Verify(ctx context.Context, problemText string, in Input, strict bool) Report {
	if in.Provenance == policy.ProvenanceTool && !strict {
		if sanityCheck(in) {
			return Report{
				IsCorrect:          true,
				Critique:           "Correct (verified by calculator)",
				AdjustedConfidence: 1.0,
				Method:             "symbolic",
			}
		}
		log.Printf("[VERIFY] calculator sanity check failed, escalating to critique")
	}

	solJSON, err := json.Marshal(in)
	if err != nil {
		return failed(fmt.Sprintf("could not encode solution for audit: %v", err))
	}

	prompt := fmt.Sprintf(critiquePrompt, problemText, string(solJSON))
	if strict {
		prompt = strictPreamble + prompt
	}

	raw, err := v.llm.Generate(ctx, prompt)
	if err != nil {
		return failed(fmt.Sprintf("critique call failed: %v", err))
	}

	var rep Report
	if err := extract.JSON(raw, &rep); err != nil {
		return failed(fmt.Sprintf("critique could not be decoded: %v. Raw response: %s", err, extract.Snippet(raw, 200)))
	}
	log.Printf("[VERIFY] is_correct=%v confidence=%.2f method=%s", rep.IsCorrect, rep.AdjustedConfidence, rep.Method)
	return rep
}

// failed is the fail-closed verdict: incorrect, zero confidence.
func failed(critique string) Report {
	return Report{IsCorrect: false, Critique: critique, AdjustedConfidence: 0.0}
}

// #endregion
