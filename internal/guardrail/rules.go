package guardrail

// #region imports
import (
	"fmt"
	"regexp"
	"strings"
)

// #endregion

// #region lexical-tables

// The lexical screens below are exact: re-running them on the same
// (problem, plan) pair always yields the same verdict.

var approximationWords = []string{
	"approximate", "approximately", "estimate", "roughly", "about ",
}

var manualArithmeticPhrases = []string{
	"carry the", "long multiplication", "long division",
	"multiply digit by digit", "digit by digit", "by hand",
	"mental math", "mentally", "babylonian method", "iterate manually",
}

var compositeTargets = []string{
	"solve for xy", "solve for x*y", "solve for x-y", "solve for x/y",
	"solve for x+y", "isolate xy", "substitute xy",
}

var toolDelegationPhrases = []string{
	"calculator", "delegate to", "computation tool", "symbolic tool", "exact tool",
}

// An explicit equation in the plan: a lone variable bound to an expression,
// e.g. "x = 7+y". Plans must describe actions, never algebra.
var explicitEquation = regexp.MustCompile(`\b[a-z]\s*=\s*[-0-9a-z(]`)

// 4+ digit number (rule 8) and >= 100 (arithmetic rule 7).
var (
	bigNumber = regexp.MustCompile(`\d{4,}`)
	midNumber = regexp.MustCompile(`\d{3,}`)
)

// #endregion

// #region lexical-screen

// screen applies the deterministic rules and returns a verdict when one
// fires. isArithmetic marks problems routed as plain arithmetic.
func screen(problemText, plan string, isArithmetic bool) *Verdict {
	planLower := strings.ToLower(plan)
	problemLower := strings.ToLower(problemText)

	// Rule 5: planner doing algebra.
	if m := explicitEquation.FindString(planLower); m != "" {
		return &Verdict{
			IsSafe:            false,
			ViolationKind:     ViolationPlannerAlgebra,
			Reason:            fmt.Sprintf("plan contains an explicit equation (%q); plans must describe actions, not algebra", strings.TrimSpace(m)),
			RecommendedAction: ActionTriggerHITL,
		}
	}

	// Rule 2: composite variables as a primary target.
	for _, phrase := range compositeTargets {
		if strings.Contains(planLower, phrase) {
			return &Verdict{
				IsSafe:            false,
				ViolationKind:     ViolationCompositeTarget,
				Reason:            fmt.Sprintf("plan targets a composite variable (%q)", phrase),
				RecommendedAction: ActionSwitchStrategy,
			}
		}
	}

	// Rule 7: arithmetic problems must delegate to the deterministic tool.
	if isArithmetic {
		delegated := false
		for _, phrase := range toolDelegationPhrases {
			if strings.Contains(planLower, phrase) {
				delegated = true
				break
			}
		}
		if !delegated {
			return &Verdict{
				IsSafe:            false,
				ViolationKind:     ViolationArithmeticBypass,
				Reason:            "arithmetic plan does not delegate to the calculator tool",
				RecommendedAction: ActionTriggerHITL,
			}
		}
		for _, w := range approximationWords {
			if strings.Contains(planLower, w) {
				return &Verdict{
					IsSafe:            false,
					ViolationKind:     ViolationArithmeticBypass,
					Reason:            fmt.Sprintf("plan uses approximation language (%q)", strings.TrimSpace(w)),
					RecommendedAction: ActionTriggerHITL,
				}
			}
		}
		if midNumber.MatchString(problemLower) {
			for _, phrase := range manualArithmeticPhrases {
				if strings.Contains(planLower, phrase) {
					return &Verdict{
						IsSafe:            false,
						ViolationKind:     ViolationArithmeticBypass,
						Reason:            fmt.Sprintf("plan implies manual computation (%q) on numbers >= 100", phrase),
						RecommendedAction: ActionTriggerHITL,
					}
				}
			}
		}
	}

	// Rule 8: step-by-step manual arithmetic on big numbers.
	if bigNumber.MatchString(problemLower) || bigNumber.MatchString(planLower) {
		for _, phrase := range manualArithmeticPhrases {
			if strings.Contains(planLower, phrase) {
				return &Verdict{
					IsSafe:            false,
					ViolationKind:     ViolationManualArithmetic,
					Reason:            fmt.Sprintf("plan describes manual arithmetic (%q) on 4+ digit numbers", phrase),
					RecommendedAction: ActionTriggerHITL,
				}
			}
		}
	}

	return nil
}

// #endregion
