package calc

// #region imports
import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"unicode"
)

// #endregion

// #region tokenizer

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(expr) {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c) || c == ',':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, expr[i:j]})
			i = j
		case unicode.IsLetter(c):
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j]))) {
				j++
			}
			toks = append(toks, token{tokIdent, strings.ToLower(expr[i:j])})
			i = j
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '*':
			// ** is the power operator the translation prompt asks for
			if i+1 < len(expr) && expr[i+1] == '*' {
				toks = append(toks, token{tokOp, "^"})
				i += 2
			} else {
				toks = append(toks, token{tokOp, "*"})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '^':
			toks = append(toks, token{tokOp, string(c)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

// #endregion

// #region parser

type parser struct {
	toks []token
	pos  int
}

// evalExpr parses and exactly evaluates a canonical expression string.
func evalExpr(expr string) (value, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	if p.peek().kind != tokEOF {
		return value{}, fmt.Errorf("unexpected trailing input %q", p.peek().text)
	}
	return v, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseSum() (value, error) {
	left, err := p.parseProduct()
	if err != nil {
		return value{}, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.parseProduct()
		if err != nil {
			return value{}, err
		}
		if op == "+" {
			left = left.add(right)
		} else {
			left = left.sub(right)
		}
	}
	return left, nil
}

func (p *parser) parseProduct() (value, error) {
	left, err := p.parsePower()
	if err != nil {
		return value{}, err
	}
	for p.peek().kind == tokOp && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text
		right, err := p.parsePower()
		if err != nil {
			return value{}, err
		}
		if op == "*" {
			left = left.mul(right)
		} else {
			left, err = left.div(right)
			if err != nil {
				return value{}, err
			}
		}
	}
	return left, nil
}

func (p *parser) parsePower() (value, error) {
	base, err := p.parseUnary()
	if err != nil {
		return value{}, err
	}
	if p.peek().kind == tokOp && p.peek().text == "^" {
		p.next()
		// right-associative
		exp, err := p.parsePower()
		if err != nil {
			return value{}, err
		}
		return applyPower(base, exp)
	}
	return base, nil
}

func (p *parser) parseUnary() (value, error) {
	if p.peek().kind == tokOp && p.peek().text == "-" {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return value{}, err
		}
		return v.neg(), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return value{}, fmt.Errorf("bad number %q", t.text)
		}
		return rational(r), nil
	case tokLParen:
		v, err := p.parseSum()
		if err != nil {
			return value{}, err
		}
		if p.next().kind != tokRParen {
			return value{}, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	case tokIdent:
		return p.parseIdent(t.text)
	default:
		return value{}, fmt.Errorf("unexpected token %q", t.text)
	}
}

func (p *parser) parseIdent(name string) (value, error) {
	switch name {
	case "pi":
		return approximate(math.Pi), nil
	case "e":
		return approximate(math.E), nil
	}
	if p.next().kind != tokLParen {
		return value{}, fmt.Errorf("unknown symbol %q", name)
	}
	arg, err := p.parseSum()
	if err != nil {
		return value{}, err
	}
	// Rational(a, b) takes a second argument
	var arg2 *value
	if name == "rational" && p.peek().kind != tokRParen {
		v2, err := p.parseSum()
		if err != nil {
			return value{}, err
		}
		arg2 = &v2
	}
	if p.next().kind != tokRParen {
		return value{}, fmt.Errorf("missing closing parenthesis after %s", name)
	}
	return applyFunc(name, arg, arg2)
}

// #endregion

// #region functions

func applyFunc(name string, arg value, arg2 *value) (value, error) {
	switch name {
	case "sqrt":
		return arg.sqrt()
	case "abs":
		if f, _ := arg.Float(); f < 0 {
			return arg.neg(), nil
		}
		return arg, nil
	case "rational":
		if arg2 == nil {
			return arg, nil
		}
		return arg.div(*arg2)
	case "sin", "cos", "tan", "log", "ln", "exp":
		f, ok := arg.Float()
		if !ok {
			return value{}, fmt.Errorf("%s: non-finite argument", name)
		}
		switch name {
		case "sin":
			return approximate(math.Sin(f)), nil
		case "cos":
			return approximate(math.Cos(f)), nil
		case "tan":
			return approximate(math.Tan(f)), nil
		case "log", "ln":
			if f <= 0 {
				return value{}, fmt.Errorf("log of non-positive value")
			}
			return approximate(math.Log(f)), nil
		default:
			return approximate(math.Exp(f)), nil
		}
	}
	return value{}, fmt.Errorf("unknown function %q", name)
}

func applyPower(base, exp value) (value, error) {
	// Exact integer exponents stay exact; rational n/2 maps to sqrt.
	if !exp.approx && exp.isRational() {
		r := exp.rationalPart()
		if r.IsInt() && r.Num().IsInt64() {
			return base.powInt(r.Num().Int64())
		}
		if r.Denom().IsInt64() && r.Denom().Int64() == 2 && r.Num().IsInt64() {
			v, err := base.powInt(r.Num().Int64())
			if err != nil {
				return value{}, err
			}
			return v.sqrt()
		}
	}
	bf, _ := base.Float()
	ef, _ := exp.Float()
	out := math.Pow(bf, ef)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return value{}, fmt.Errorf("power out of numeric range")
	}
	return approximate(out), nil
}

// #endregion
