package pipeline

// #region imports
import (
	"fmt"

	"github.com/danielpatrickdp/mathpilot/internal/explainer"
	"github.com/danielpatrickdp/mathpilot/internal/parse"
	"github.com/danielpatrickdp/mathpilot/internal/router"
)

// #endregion

// #region steps

// Step is the pipeline position. A session halts at "parsed" or "verified"
// when a human is needed, and only reaches "complete" through the policy
// or an explicit human release.
type Step string

const (
	StepInit     Step = "init"
	StepParsed   Step = "parsed"
	StepRouted   Step = "routed"
	StepSolved   Step = "solved"
	StepVerified Step = "verified"
	StepComplete Step = "complete"
)

// transitions is the allowed-move table. "verified -> routed" is the
// corrected-text re-entry; "parsed -> complete" is a human release from
// the ambiguity halt. Everything else is the forward path.
var transitions = map[Step][]Step{
	StepInit:     {StepParsed},
	StepParsed:   {StepRouted, StepComplete},
	StepRouted:   {StepSolved},
	StepSolved:   {StepVerified},
	StepVerified: {StepComplete, StepRouted},
	StepComplete: {},
}

// #endregion

// #region state

// State is the accumulating pipeline record for one session.
type State struct {
	SessionID string `json:"session_id"`
	Step      Step   `json:"step"`

	RawInput   string `json:"raw_input,omitempty"`
	InputImage string `json:"input_image,omitempty"`
	InputAudio string `json:"input_audio,omitempty"`

	Problem  parse.Problem   `json:"parsed_data"`
	Category router.Category `json:"problem_category,omitempty"`

	Plan        string   `json:"solution_plan,omitempty"`
	Steps       []string `json:"solution_steps,omitempty"`
	FinalAnswer string   `json:"final_answer,omitempty"`
	Confidence  float64  `json:"confidence"`
	Provenance  string   `json:"tool_used,omitempty"`
	RAGContext  string   `json:"rag_context,omitempty"`

	VerificationPassed bool   `json:"verification_passed"`
	Critique           string `json:"critique,omitempty"`

	Explanation *explainer.Explanation `json:"explanation,omitempty"`

	NeedsHITL  bool   `json:"needs_hitl"`
	HITLReason string `json:"hitl_reason,omitempty"`
}

// canAdvance reports whether the move would be legal, without taking it.
func (s *State) canAdvance(to Step) bool {
	for _, allowed := range transitions[s.Step] {
		if allowed == to {
			return true
		}
	}
	return false
}

// advance moves the state machine. An illegal move is a programmer error
// between stages, not a recoverable stage failure.
func (s *State) advance(to Step) error {
	if !s.canAdvance(to) {
		return fmt.Errorf("illegal step transition %s -> %s (session %s)", s.Step, to, s.SessionID)
	}
	s.Step = to
	return nil
}

// #endregion
