package guardrail

// #region action

// Action is the gate's recommended follow-up.
type Action string

const (
	ActionExecute        Action = "EXECUTE"
	ActionSwitchStrategy Action = "SWITCH_STRATEGY"
	ActionTriggerHITL    Action = "TRIGGER_HITL"
)

// #endregion

// #region violation

// Violation names which rule a plan broke.
type Violation string

const (
	ViolationIllegalCancellation Violation = "illegal_division_or_cancellation"
	ViolationCompositeTarget     Violation = "composite_variable_solving"
	ViolationDegreeEscalation    Violation = "polynomial_degree_escalation"
	ViolationRationalIntro       Violation = "rational_substitution"
	ViolationPlannerAlgebra      Violation = "planner_doing_algebra"
	ViolationMissedHeuristics    Violation = "missed_heuristics" // soft
	ViolationArithmeticBypass    Violation = "arithmetic_not_delegated"
	ViolationManualArithmetic    Violation = "manual_large_arithmetic"
	ViolationGateError           Violation = "guardrail_error"
)

// #endregion

// #region verdict

// Verdict is the safety ruling over a plan's textual description.
// Invariant: IsSafe == false implies RecommendedAction != EXECUTE.
type Verdict struct {
	IsSafe            bool      `json:"is_safe"`
	ViolationKind     Violation `json:"violation_type,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	RecommendedAction Action    `json:"recommended_action"`
}

// #endregion
