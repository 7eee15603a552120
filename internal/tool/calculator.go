package tool

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lorehub/lore/internal/domain"
)

// Calculator evaluates arithmetic expressions with a recursive-descent
// parser over the operators + - * / % ( ). No dynamic code execution: the
// input is charset-checked, tokenized, and evaluated immediately during
// the parse.
type Calculator struct{}

// NewCalculator creates the bundled calculator tool.
func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Name() string { return "calculator" }

func (c *Calculator) Description() string {
	return "Evaluates an arithmetic expression. Supports + - * / % and parentheses."
}

func (c *Calculator) Schema() Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			"expression": {Type: "string", Description: "Arithmetic expression, e.g. \"(2+3)*4\""},
		},
		Required: []string{"expression"},
	}
}

// calcParams is the validated parameter set for one evaluation.
type calcParams struct {
	Expression string
}

func parseCalcParams(input Input) (calcParams, error) {
	expr, ok := stringParam(input, "expression", "raw")
	if !ok {
		return calcParams{}, missingParam("expression")
	}
	return calcParams{Expression: expr}, nil
}

func (c *Calculator) Execute(_ context.Context, input Input) (string, error) {
	p, err := parseCalcParams(input)
	if err != nil {
		return "", err
	}

	value, err := evaluate(p.Expression)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(value, 'f', -1, 64), nil
}

const allowedChars = "0123456789.+-*/%() \t"

func evaluate(expr string) (float64, error) {
	for _, r := range expr {
		if !strings.ContainsRune(allowedChars, r) {
			return 0, fmt.Errorf("%w: illegal character %q", domain.ErrInvalidExpression, r)
		}
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty expression", domain.ErrInvalidExpression)
	}

	p := &exprParser{tokens: tokens}
	value, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("%w: unexpected token %q", domain.ErrInvalidExpression, p.tokens[p.pos])
	}
	return value, nil
}

// tokenize splits the expression into number literals and single-char
// operators. The charset is already validated, so only token shape can
// fail here.
func tokenize(expr string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			start := i
			dots := 0
			for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
				if expr[i] == '.' {
					dots++
				}
				i++
			}
			if dots > 1 {
				return nil, fmt.Errorf("%w: malformed number %q", domain.ErrInvalidExpression, expr[start:i])
			}
			tokens = append(tokens, expr[start:i])
		default:
			tokens = append(tokens, string(ch))
			i++
		}
	}
	return tokens, nil
}

// exprParser implements expression -> term -> factor with immediate
// evaluation.
type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "+":
			p.pos++
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case "-":
			p.pos++
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	left, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "*":
			p.pos++
			right, err := p.factor()
			if err != nil {
				return 0, err
			}
			left *= right
		case "/":
			p.pos++
			right, err := p.factor()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("%w: %g / 0", domain.ErrDivisionByZero, left)
			}
			left /= right
		case "%":
			p.pos++
			right, err := p.factor()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("%w: %g %% 0", domain.ErrDivisionByZero, left)
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) factor() (float64, error) {
	switch tok := p.peek(); {
	case tok == "":
		return 0, fmt.Errorf("%w: unexpected end of expression", domain.ErrInvalidExpression)
	case tok == "-":
		p.pos++
		value, err := p.factor()
		if err != nil {
			return 0, err
		}
		return -value, nil
	case tok == "(":
		p.pos++
		value, err := p.expression()
		if err != nil {
			return 0, err
		}
		if p.peek() != ")" {
			return 0, fmt.Errorf("%w: missing closing parenthesis", domain.ErrInvalidExpression)
		}
		p.pos++
		return value, nil
	default:
		value, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: expected a number, got %q", domain.ErrInvalidExpression, tok)
		}
		p.pos++
		return value, nil
	}
}
