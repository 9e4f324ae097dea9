// Package explainer turns a verified solution into a pedagogical summary.
// Output quality depends on the model, so an unusable reply degrades to a
// minimal explanation built from what the pipeline already knows.
package explainer

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/danielpatrickdp/mathpilot/internal/extract"
	"github.com/danielpatrickdp/mathpilot/internal/llm"
	"github.com/danielpatrickdp/mathpilot/internal/router"
)

// #endregion

// #region types

// Explanation is the structured tutoring summary.
type Explanation struct {
	Concept        string   `json:"concept"`
	Strategy       string   `json:"strategy"`
	KeyInsight     string   `json:"key_insight"`
	LearningPoints []string `json:"learning_points"`
	CommonMistakes []string `json:"common_mistakes"`
	Difficulty     string   `json:"difficulty"`
}

// #endregion

// #region explainer

const explainPrompt = `ROLE: You are a compassionate, expert mathematics tutor.
TASK: Provide a complete, pedagogical explanation of the solution.
SECTIONS:
1. CONCEPT & FORMULA: the topic and 2-3 key formulas used, max 3 lines.
2. SOLUTION STRATEGY: the approach and WHY it was chosen, 1-2 sentences.
3. KEY INSIGHT: the 'aha' moment, the pattern or trick that made it easy.
4. LEARNING POINTS: 2-3 transferable takeaways.
5. COMMON MISTAKES: typical errors on this kind of problem, if applicable.
TONE: warm, encouraging, inclusive ('we', 'let's'). Total 150-250 words.

Return as JSON with keys:
{"concept": "Topic name", "strategy": "Brief strategy", "key_insight": "The aha moment", "learning_points": ["Point 1", "Point 2"], "common_mistakes": ["Mistake 1"], "difficulty": "Easy|Medium|Hard"}

Problem: %s
Category: %s
Steps: %s
Final Answer: %s

Generate a structured explanation following the output format.`

// Explainer is the final teaching stage.
type Explainer struct {
	llm llm.Client
}

// New wires the stage.
func New(client llm.Client) *Explainer {
	return &Explainer{llm: client}
}

// Explain summarizes a finished solution. Never returns an error: model or
// decode failures fall back to a minimal explanation.
func (e *Explainer) Explain(ctx context.Context, problemText string, steps []string, finalAnswer string, category router.Category) Explanation {
	prompt := fmt.Sprintf(explainPrompt, problemText, category, strings.Join(steps, "; "), finalAnswer)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[EXPLAIN] model call failed: %v", err)
		return fallback(category, "")
	}

	var exp Explanation
	if err := extract.JSON(raw, &exp); err != nil {
		log.Printf("[EXPLAIN] undecodable reply: %v", err)
		return fallback(category, raw)
	}
	if exp.Concept == "" {
		exp.Concept = string(category)
	}
	if exp.Difficulty == "" {
		exp.Difficulty = "Medium"
	}
	return exp
}

// fallback builds a minimal explanation so the pipeline can still complete.
func fallback(category router.Category, raw string) Explanation {
	return Explanation{
		Concept:    string(category),
		Strategy:   "Standard approach",
		KeyInsight: extract.Snippet(raw, 300),
		LearningPoints: []string{
			"Review the solution steps carefully",
		},
		Difficulty: "Medium",
	}
}

// #endregion
