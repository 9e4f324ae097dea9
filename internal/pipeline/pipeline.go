// Package pipeline sequences the stages: parse, route, solve, verify,
// decide, explain. It owns the halt/resume contract: every stage result is
// logged to durable memory before the next stage runs, every halt carries a
// human-readable reason, and resumption re-enters through the same state
// machine so the decision policy is never skipped.
package pipeline

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/mathpilot/internal/explainer"
	"github.com/danielpatrickdp/mathpilot/internal/knowledge"
	"github.com/danielpatrickdp/mathpilot/internal/memory"
	"github.com/danielpatrickdp/mathpilot/internal/parse"
	"github.com/danielpatrickdp/mathpilot/internal/policy"
	"github.com/danielpatrickdp/mathpilot/internal/router"
	"github.com/danielpatrickdp/mathpilot/internal/solver"
	"github.com/danielpatrickdp/mathpilot/internal/verifier"
)

// #endregion

// #region feedback

// Feedback is the human response to a halted session. Exactly one field
// is expected; they are checked in declaration order.
type Feedback struct {
	CorrectedText  string
	OverrideAnswer string
	Approve        bool
}

// #endregion

// #region pipeline

// Pipeline wires the stages around the shared state machine.
type Pipeline struct {
	parser    *parse.Parser
	router    *router.Router
	solver    *solver.Solver
	verifier  *verifier.Verifier
	explainer *explainer.Explainer
	memory    *memory.Store
	kb        knowledge.Store
	sessions  *Sessions
}

// New wires the orchestrator. kb may be nil when learning is disabled.
func New(parser *parse.Parser, rt *router.Router, sv *solver.Solver, vf *verifier.Verifier, ex *explainer.Explainer, mem *memory.Store, kb knowledge.Store) *Pipeline {
	return &Pipeline{
		parser:    parser,
		router:    rt,
		solver:    sv,
		verifier:  vf,
		explainer: ex,
		memory:    mem,
		kb:        kb,
		sessions:  NewSessions(),
	}
}

// Sessions exposes the live session table for callers that resume later.
func (p *Pipeline) Sessions() *Sessions {
	return p.sessions
}

// Start runs a new problem through the pipeline. An empty sessionID gets a
// fresh one. The returned state is either complete or halted with a reason.
func (p *Pipeline) Start(ctx context.Context, text, imagePath, audioPath, sessionID string) (*State, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := p.memory.CreateSession(sessionID); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	state := &State{
		SessionID:  sessionID,
		Step:       StepInit,
		RawInput:   text,
		InputImage: imagePath,
		InputAudio: audioPath,
	}
	p.sessions.Put(state)

	state.Problem = p.parser.Run(ctx, text, imagePath, audioPath)
	p.logStage(state, "parser", state.Problem)
	if err := state.advance(StepParsed); err != nil {
		return nil, err
	}

	if state.Problem.IsAmbiguous {
		state.NeedsHITL = true
		state.HITLReason = "Ambiguous Input: " + state.Problem.AmbiguityReason
		log.Printf("[PIPE] %s halted at %s: %s", sessionID, state.Step, state.HITLReason)
		return state, nil
	}

	if err := p.route(ctx, state); err != nil {
		return nil, err
	}
	return p.solvePhase(ctx, state)
}

// route classifies the problem and advances to routed.
func (p *Pipeline) route(ctx context.Context, state *State) error {
	state.Category = p.router.Route(ctx, state.Problem.ProblemText)
	p.logStage(state, "router", state.Category)
	return state.advance(StepRouted)
}

// solvePhase runs solve, verify, the release decision, and (when released)
// the explanation. Entered from Start and from corrected-text resumption.
func (p *Pipeline) solvePhase(ctx context.Context, state *State) (*State, error) {
	sol := p.solver.Solve(ctx, state.Problem.ProblemText, state.Category)
	state.Plan = sol.Plan
	state.Steps = sol.Steps
	state.FinalAnswer = sol.FinalAnswer
	state.Confidence = sol.Confidence
	state.Provenance = sol.Provenance
	state.RAGContext = sol.Context
	p.logStage(state, "solver", sol)
	if err := state.advance(StepSolved); err != nil {
		return nil, err
	}

	rep := p.verifier.Verify(ctx, state.Problem.ProblemText, verifier.Input{
		Steps:       state.Steps,
		FinalAnswer: state.FinalAnswer,
		Provenance:  state.Provenance,
	}, false)
	state.VerificationPassed = rep.IsCorrect
	state.Critique = rep.Critique
	p.logStage(state, "verifier", rep)
	if err := state.advance(StepVerified); err != nil {
		return nil, err
	}

	decision := policy.Decide(state.Confidence, rep.AdjustedConfidence, state.Provenance, rep.IsCorrect, rep.Critique)
	state.NeedsHITL = decision.NeedsHITL
	state.HITLReason = decision.Reason
	if state.NeedsHITL {
		log.Printf("[PIPE] %s halted at %s: %s", state.SessionID, state.Step, state.HITLReason)
		return state, nil
	}

	return p.explainPhase(ctx, state)
}

// explainPhase generates the explanation and completes the session.
func (p *Pipeline) explainPhase(ctx context.Context, state *State) (*State, error) {
	exp := p.explainer.Explain(ctx, state.Problem.ProblemText, state.Steps, state.FinalAnswer, state.Category)
	state.Explanation = &exp
	p.logStage(state, "explainer", exp)
	if err := state.advance(StepComplete); err != nil {
		return nil, err
	}
	log.Printf("[PIPE] %s complete", state.SessionID)
	return state, nil
}

// #endregion

// #region resumption

// Resume re-enters a halted session with human feedback.
func (p *Pipeline) Resume(ctx context.Context, state *State, fb Feedback) (*State, error) {
	switch {
	case fb.CorrectedText != "":
		state.Problem.ProblemText = fb.CorrectedText
		state.Problem.IsAmbiguous = false
		state.Problem.AmbiguityReason = ""
		state.NeedsHITL = false
		state.HITLReason = ""
		if err := p.route(ctx, state); err != nil {
			return nil, err
		}
		return p.solvePhase(ctx, state)

	case fb.OverrideAnswer != "":
		if !state.canAdvance(StepComplete) {
			return nil, fmt.Errorf("cannot release session %s from step %s", state.SessionID, state.Step)
		}
		state.FinalAnswer = fb.OverrideAnswer
		state.NeedsHITL = false
		state.HITLReason = ""
		state.VerificationPassed = true
		state.Steps = []string{"User provided solution"}
		result, err := p.explainPhase(ctx, state)
		if err != nil {
			return nil, err
		}
		p.RecordSuccess(ctx, result)
		return result, nil

	case fb.Approve:
		if !state.canAdvance(StepComplete) {
			return nil, fmt.Errorf("cannot release session %s from step %s", state.SessionID, state.Step)
		}
		state.NeedsHITL = false
		state.HITLReason = ""
		state.VerificationPassed = true
		result, err := p.explainPhase(ctx, state)
		if err != nil {
			return nil, err
		}
		p.RecordSuccess(ctx, result)
		return result, nil
	}
	return state, nil
}

// RecordSuccess saves a confirmed solution to the knowledge base and the
// learning log. Failures are logged, never fatal: learning is best-effort.
func (p *Pipeline) RecordSuccess(ctx context.Context, state *State) {
	if state.Problem.ProblemText == "" || state.FinalAnswer == "" {
		return
	}

	if p.kb != nil {
		doc := knowledge.Document{
			ID: memory.LearningExampleID(state.SessionID),
			Text: fmt.Sprintf("Problem: %s\nSolution Plan: %s\nFinal Answer: %s",
				state.Problem.ProblemText, state.Plan, state.FinalAnswer),
			Metadata: map[string]string{
				"type":     "solved_example",
				"category": string(state.Category),
				"source":   "user_feedback",
			},
		}
		if err := p.kb.Add(ctx, []knowledge.Document{doc}); err != nil {
			log.Printf("[PIPE] learning save failed: %v", err)
		} else {
			log.Printf("[PIPE] learned new pattern: %s", doc.ID)
		}
	}

	if err := p.memory.RecordLearningExample(memory.LearningExample{
		SessionID: state.SessionID,
		Problem:   state.Problem.ProblemText,
		Answer:    state.FinalAnswer,
		Outcome:   "success",
		Detail:    state.Plan,
	}); err != nil {
		log.Printf("[PIPE] learning log failed: %v", err)
	}
}

// RecordFailure handles post-completion negative feedback: log rich
// metadata, then silently re-verify in strict mode. The step does not
// change; this is a diagnostic pass, not a new attempt.
func (p *Pipeline) RecordFailure(ctx context.Context, state *State) *State {
	source := "text"
	if state.InputImage != "" {
		source = "image"
	} else if state.InputAudio != "" {
		source = "audio"
	}
	p.logStage(state, "feedback", map[string]any{
		"feedback":          "incorrect",
		"problem_type":      state.Category,
		"solver_confidence": state.Confidence,
		"source":            source,
	})

	rep := p.verifier.Verify(ctx, state.Problem.ProblemText, verifier.Input{
		Steps:       state.Steps,
		FinalAnswer: state.FinalAnswer,
		Provenance:  state.Provenance,
	}, true)
	state.Critique = "Strict Review: " + rep.Critique
	state.VerificationPassed = rep.IsCorrect
	if !state.VerificationPassed {
		state.HITLReason = "User Rejected + Strict Verify Failed"
	}
	return state
}

// #endregion

// #region logging

// logStage writes one stage result to durable memory. The pipeline keeps
// going on log failure; losing a log line must not lose the answer.
func (p *Pipeline) logStage(state *State, role string, payload any) {
	content, err := json.Marshal(payload)
	if err != nil {
		content = []byte(fmt.Sprintf("%v", payload))
	}
	if _, err := p.memory.LogInteraction(state.SessionID, role, string(content), map[string]any{
		"step": string(state.Step),
	}); err != nil {
		log.Printf("[PIPE] interaction log failed: %v", err)
	}
}

// #endregion
