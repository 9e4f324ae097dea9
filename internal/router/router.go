// Package router classifies a math problem into a category that selects
// the solving path. Obvious arithmetic is detected without a model call so
// the deterministic tool path never depends on classifier variability.
package router

// #region imports
import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #endregion

// #region category

// Category is the routed problem class.
type Category string

const (
	Algebra       Category = "ALGEBRA"
	Calculus      Category = "CALCULUS"
	Geometry      Category = "GEOMETRY"
	Probability   Category = "PROBABILITY"
	LinearAlgebra Category = "LINEAR_ALGEBRA"
	Statistics    Category = "STATISTICS"
	Arithmetic    Category = "ARITHMETIC"
	Other         Category = "OTHER"
)

var known = map[Category]bool{
	Algebra: true, Calculus: true, Geometry: true, Probability: true,
	LinearAlgebra: true, Statistics: true, Arithmetic: true, Other: true,
}

// #endregion

// #region arithmetic-fast-path

var arithmeticPhrases = []string{
	"square root of", "sqrt(", "cube root of",
	"squared", "cubed", "factorial of",
	"what is", "calculate", "compute", "evaluate",
}

// variableLetters in the problem indicate symbolic work, not plain arithmetic.
var variablePattern = regexp.MustCompile(`\b[a-wyz]\b|\bx\b\s*[=^]|solve for`)

// bare numeric expression, e.g. "1234 * 5678" or "2^10"
var numericExpression = regexp.MustCompile(`\d+(?:\.\d+)?\s*[-+*/^]\s*\d+`)

// looksArithmetic is the deterministic fast path: pure number crunching
// with no variables.
func looksArithmetic(problemText string) bool {
	lower := strings.ToLower(strings.TrimSpace(problemText))
	if lower == "" || variablePattern.MatchString(lower) {
		return false
	}
	if numericExpression.MatchString(lower) {
		return true
	}
	hasDigit := strings.ContainsAny(lower, "0123456789")
	if !hasDigit {
		return false
	}
	for _, p := range arithmeticPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// #endregion

// #region router

const classifyPrompt = `Analyze the math problem below.
Output ONLY a single string token for its primary category.
Categories: ALGEBRA, CALCULUS, GEOMETRY, PROBABILITY, LINEAR_ALGEBRA, STATISTICS, ARITHMETIC, OTHER.
Do NOT output sentences.

Classify this problem: %s`

// Router assigns a Category to parsed problem text.
type Router struct {
	llm llm.Client
}

// New creates a router backed by the given classifier model.
func New(client llm.Client) *Router {
	return &Router{llm: client}
}

// Route classifies the problem. The classifier's free-text reply is
// normalized to a known token; an unusable reply degrades to OTHER
// (the general solve path still gates and verifies the result).
func (r *Router) Route(ctx context.Context, problemText string) Category {
	if looksArithmetic(problemText) {
		log.Printf("[ROUTE] fast path: ARITHMETIC")
		return Arithmetic
	}

	raw, err := r.llm.Generate(ctx, fmt.Sprintf(classifyPrompt, problemText))
	if err != nil {
		log.Printf("[ROUTE] classifier call failed, degrading to OTHER: %v", err)
		return Other
	}
	cat := normalize(raw)
	log.Printf("[ROUTE] classified: %s", cat)
	return cat
}

// normalize trims the reply down to the first recognizable token.
func normalize(raw string) Category {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(raw)))
	for _, f := range fields {
		f = strings.Trim(f, ".,:;!\"'`*")
		if known[Category(f)] {
			return Category(f)
		}
	}
	return Other
}

// #endregion
