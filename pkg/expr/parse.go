package expr

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ajitpratap0/featurepipe/pkg/errors"
)

// Parse reads an infix arithmetic expression such as "score * 2" or
// "(a - b) / `total count`". Identifiers name columns; names that are not
// plain identifiers are quoted with backticks. '*' and '/' bind tighter
// than '+' and '-', all operators are left associative, and unary minus is
// supported.
func Parse(src string) (Expr, error) {
	p := &parser{src: src}
	if err := p.next(); err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.tok.text)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for expressions
// fixed at compile time.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	src string
	off int
	tok token
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeConfig, format, args...).
		WithDetail("expr", p.src).
		WithDetail("position", p.tok.pos)
}

func (p *parser) next() error {
	for p.off < len(p.src) && unicode.IsSpace(rune(p.src[p.off])) {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return nil
	}

	c := p.src[p.off]
	switch {
	case c == '+' || c == '-' || c == '*' || c == '/':
		p.off++
		p.tok = token{kind: tokOp, text: string(c), pos: start}
	case c == '(':
		p.off++
		p.tok = token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		p.off++
		p.tok = token{kind: tokRParen, text: ")", pos: start}
	case c == '`':
		end := strings.IndexByte(p.src[start+1:], '`')
		if end < 0 {
			p.tok = token{pos: start}
			return p.errorf("unterminated quoted column name")
		}
		p.off = start + 1 + end + 1
		p.tok = token{kind: tokIdent, text: p.src[start+1 : start+1+end], pos: start}
	case c == '_' || unicode.IsLetter(rune(c)):
		for p.off < len(p.src) && isIdentByte(p.src[p.off]) {
			p.off++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.off], pos: start}
	case c == '.' || unicode.IsDigit(rune(c)):
		p.scanNumber()
		p.tok = token{kind: tokNumber, text: p.src[start:p.off], pos: start}
	default:
		p.tok = token{pos: start}
		return p.errorf("unexpected character %q", c)
	}
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (p *parser) scanNumber() {
	digits := func() {
		for p.off < len(p.src) && unicode.IsDigit(rune(p.src[p.off])) {
			p.off++
		}
	}
	digits()
	if p.off < len(p.src) && p.src[p.off] == '.' {
		p.off++
		digits()
	}
	if p.off < len(p.src) && (p.src[p.off] == 'e' || p.src[p.off] == 'E') {
		save := p.off
		p.off++
		if p.off < len(p.src) && (p.src[p.off] == '+' || p.src[p.off] == '-') {
			p.off++
		}
		if p.off < len(p.src) && unicode.IsDigit(rune(p.src[p.off])) {
			digits()
		} else {
			p.off = save
		}
	}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := Op(p.tok.text[0])
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = Arith(op, left, right)
	}
	return left, nil
}

// term := unary (('*' | '/') unary)*
func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := Op(p.tok.text[0])
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = Arith(op, left, right)
	}
	return left, nil
}

// unary := '-' unary | primary
func (p *parser) unary() (Expr, error) {
	if p.tok.kind == tokOp && p.tok.text == "-" {
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		switch v := operand.(type) {
		case intLit:
			return Int(-int64(v)), nil
		case floatLit:
			return Float(-float64(v)), nil
		default:
			return Arith(Sub, Int(0), operand), nil
		}
	}
	return p.primary()
}

// primary := number | ident | '(' expr ')'
func (p *parser) primary() (Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		if err := p.next(); err != nil {
			return nil, err
		}
		if !strings.ContainsAny(tok.text, ".eE") {
			if v, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
				return Int(v), nil
			}
		}
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrorTypeConfig, "invalid number %q", tok.text).
				WithDetail("expr", p.src)
		}
		return Float(v), nil
	case tokIdent:
		if err := p.next(); err != nil {
			return nil, err
		}
		return Col(tok.text), nil
	case tokLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')'")
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("unexpected %q", tok.text)
	}
}
