// Package calc is the deterministic arithmetic tool. Queries are rewritten
// to a canonical expression (fixed patterns first, LLM translation as a
// fallback) and evaluated exactly; it is never itself uncertain.
package calc

// #region imports
import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/mathpilot/internal/llm"
)

// #endregion

// #region result

// Result is the outcome of one arithmetic computation.
type Result struct {
	Success          bool
	ParsedExpression string
	Symbolic         string   // exact form, empty when exactness was lost
	Numerical        *float64 // nil when numeric evaluation failed
	Err              string
}

// Answer picks the display answer: decimal when available, exact form
// otherwise (irrational closed forms are valid symbolic-only results).
func (r Result) Answer() string {
	if r.Numerical != nil {
		return strconv.FormatFloat(*r.Numerical, 'g', -1, 64)
	}
	return r.Symbolic
}

// #endregion

// #region patterns

type rewrite struct {
	re   *regexp.Regexp
	expr func(m []string) string
}

// Fixed fast-path rewrites, checked before any model call. A rewrite only
// applies when nothing mathematical remains outside the match; partial
// coverage would silently drop the rest of the expression.
var rewrites = []rewrite{
	{regexp.MustCompile(`square root of\s+(\d+(?:\.\d+)?)`), func(m []string) string {
		return fmt.Sprintf("sqrt(%s)", m[1])
	}},
	{regexp.MustCompile(`sqrt\s*\(?\s*(\d+(?:\.\d+)?)\s*\)?`), func(m []string) string {
		return fmt.Sprintf("sqrt(%s)", m[1])
	}},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s+squared`), func(m []string) string {
		return fmt.Sprintf("(%s)^2", m[1])
	}},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\^\s*(\d+)`), func(m []string) string {
		return fmt.Sprintf("(%s)^(%s)", m[1], m[2])
	}},
	// Bare infix expression embedded in prose ("what is 12 * 34?")
	{regexp.MustCompile(`(\d+(?:\.\d+)?(?:\s*[-+*/]\s*\(?\s*\d+(?:\.\d+)?\s*\)?)+)`), func(m []string) string {
		return m[1]
	}},
}

func trySimpleParse(query string) string {
	lower := strings.ToLower(strings.TrimSpace(query))
	if isCanonicalExpr(lower) {
		return lower
	}
	for _, rw := range rewrites {
		loc := rw.re.FindStringSubmatchIndex(lower)
		if loc == nil {
			continue
		}
		if residualMath(lower[:loc[0]] + lower[loc[1]:]) {
			continue
		}
		m := make([]string, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			if loc[i] < 0 {
				m = append(m, "")
			} else {
				m = append(m, lower[loc[i]:loc[i+1]])
			}
		}
		return rw.expr(m)
	}
	return ""
}

// knownIdents are the symbols the evaluator grammar accepts.
var knownIdents = map[string]bool{
	"sqrt": true, "abs": true, "rational": true, "sin": true, "cos": true,
	"tan": true, "log": true, "ln": true, "exp": true, "pi": true, "e": true,
}

// isCanonicalExpr reports whether the query already is a bare expression
// in the evaluator's grammar, usable without any rewriting.
func isCanonicalExpr(s string) bool {
	toks, err := tokenize(s)
	if err != nil {
		return false
	}
	operand := false
	for _, t := range toks {
		switch t.kind {
		case tokIdent:
			if !knownIdents[t.text] {
				return false
			}
			operand = true
		case tokNumber:
			operand = true
		}
	}
	return operand
}

// mathWords are prose operators; a leftover containing one means the
// matched rewrite did not cover the whole problem.
var mathWords = []string{"sqrt", "square", "root", "plus", "minus", "times", "divided", "power", "cubed"}

// residualMath reports whether leftover text still carries mathematical
// content that a partial rewrite would drop.
func residualMath(s string) bool {
	if strings.ContainsAny(s, "0123456789+-*/^") {
		return true
	}
	for _, w := range mathWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// #endregion

// #region calculator

// ErrNotMath is the sentinel the translator emits for non-mathematical input.
const ErrNotMath = "ERROR_NOT_MATH"

const translatePrompt = `Convert natural language math to a plain expression.
Output ONLY the expression, no explanation.
Use: sqrt(), sin(), cos(), log(), pi, Rational().
Use ^ or ** for powers.
If the input is not mathematical, output: ERROR_NOT_MATH
Convert: %s`

// Calculator turns natural-language arithmetic into exact results.
type Calculator struct {
	llm llm.Client
}

// New wires the translation fallback. llm may be nil; then only the
// fixed patterns are available.
func New(client llm.Client) *Calculator {
	return &Calculator{llm: client}
}

// #endregion

// #region parse-query

// ParseQuery recovers a canonical expression: fixed rewrites first, LLM
// translation second. Translations flagged non-mathematical are rejected.
func (c *Calculator) ParseQuery(ctx context.Context, query string) (string, error) {
	if expr := trySimpleParse(query); expr != "" {
		return expr, nil
	}
	if c.llm == nil {
		return "", fmt.Errorf("could not parse mathematical expression")
	}
	raw, err := c.llm.Generate(ctx, fmt.Sprintf(translatePrompt, query))
	if err != nil {
		return "", fmt.Errorf("expression translation: %w", err)
	}
	expr := strings.TrimSpace(raw)
	if strings.Contains(expr, ErrNotMath) {
		return "", fmt.Errorf("query is not mathematical")
	}
	expr = strings.ReplaceAll(expr, "```", "")
	expr = strings.TrimSpace(strings.ReplaceAll(expr, "python", ""))
	if expr == "" {
		return "", fmt.Errorf("could not parse mathematical expression")
	}
	return expr, nil
}

// #endregion

// #region solve

// SolveArithmetic is the tool entry point: natural language in, exact
// result out. Numeric evaluation failure is tolerated; an exact symbolic
// form alone is a success.
func (c *Calculator) SolveArithmetic(ctx context.Context, query string) Result {
	expr, err := c.ParseQuery(ctx, query)
	if err != nil {
		return Result{Success: false, Err: err.Error()}
	}

	v, err := evalExpr(expr)
	if err != nil {
		return Result{
			Success:          false,
			ParsedExpression: expr,
			Err:              fmt.Sprintf("evaluation failed: %v", err),
		}
	}

	res := Result{Success: true, ParsedExpression: expr}
	if v.Exact() {
		res.Symbolic = v.String()
	}
	if f, ok := v.Float(); ok {
		res.Numerical = &f
	}
	if res.Symbolic == "" && res.Numerical == nil {
		return Result{
			Success:          false,
			ParsedExpression: expr,
			Err:              "result is not representable",
		}
	}
	log.Printf("[CALC] %q -> %s = %s", query, expr, res.Answer())
	return res
}

// #endregion
