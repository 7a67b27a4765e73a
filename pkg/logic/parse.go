package logic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokInt
	tokNot
	tokAnd
	tokOr
	tokXor
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	typ tokenType
	val string
	pos int
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && unicode.IsSpace(rune(l.src[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{typ: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '!' || c == '~':
		l.pos++
		return token{tokNot, string(c), start}, nil
	case c == '&' || c == '*':
		l.pos++
		if c == '&' && l.pos < len(l.src) && l.src[l.pos] == '&' {
			l.pos++
		}
		return token{tokAnd, "&", start}, nil
	case c == '|' || c == '+':
		l.pos++
		if c == '|' && l.pos < len(l.src) && l.src[l.pos] == '|' {
			l.pos++
		}
		return token{tokOr, "|", start}, nil
	case c == '^':
		l.pos++
		return token{tokXor, "^", start}, nil
	case c == '(':
		l.pos++
		return token{tokLParen, "(", start}, nil
	case c == ')':
		l.pos++
		return token{tokRParen, ")", start}, nil
	case c == ',':
		l.pos++
		return token{tokComma, ",", start}, nil
	case c >= '0' && c <= '9':
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}
		return token{tokInt, l.src[start:l.pos], start}, nil
	case c == '_' || unicode.IsLetter(rune(c)):
		for l.pos < len(l.src) && (l.src[l.pos] == '_' || unicode.IsLetter(rune(l.src[l.pos])) || unicode.IsDigit(rune(l.src[l.pos]))) {
			l.pos++
		}
		return token{tokIdent, l.src[start:l.pos], start}, nil
	}
	return token{}, parseError(l.src, start, fmt.Sprintf("unexpected character %q", c))
}

type parser struct {
	lex    lexer
	tok    token
	inputs int
}

// Parse parses a boolean expression over inputs input pins.
//
// Inputs are named in0, in1, ... or by a single letter (a is input 0).
// Operators by increasing precedence are | (or +), ^, & (or *) and the
// prefix ! (or ~). The constants 0, 1, true and false are recognized, as are
// the calls not(x), and(...), or(...), xor(...), nand(...), nor(...) and
// xnor(...).
//
//	Parse("a & !b", 2)
//	Parse("nand(in0, in1) ^ in2", 3)
func Parse(src string, inputs int) (*Expr, error) {
	p := &parser{lex: lexer{src: src}, inputs: inputs}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.tok.typ != tokEOF {
		return nil, parseError(src, p.tok.pos, "expected operator or end of input")
	}
	if err := e.Validate(inputs); err != nil {
		return nil, err
	}
	return e, nil
}

// ParseProgram parses one expression per output, separated by semicolons or
// newlines.
func ParseProgram(src string, inputs, outputs int) (*Program, error) {
	fields := strings.FieldsFunc(src, func(r rune) bool { return r == ';' || r == '\n' })
	prog := &Program{}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		e, err := Parse(f, inputs)
		if err != nil {
			return nil, err
		}
		prog.Outputs = append(prog.Outputs, e)
	}
	if err := prog.Validate(inputs, outputs); err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) binary(op Op, typ tokenType, operand func() (*Expr, error)) (*Expr, error) {
	e, err := operand()
	if err != nil {
		return nil, err
	}
	if p.tok.typ != typ {
		return e, nil
	}
	args := []*Expr{e}
	for p.tok.typ == typ {
		if err := p.advance(); err != nil {
			return nil, err
		}
		a, err := operand()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return &Expr{Op: op, Args: args}, nil
}

func (p *parser) or() (*Expr, error)  { return p.binary(OpOr, tokOr, p.xor) }
func (p *parser) xor() (*Expr, error) { return p.binary(OpXor, tokXor, p.and) }
func (p *parser) and() (*Expr, error) { return p.binary(OpAnd, tokAnd, p.unary) }

func (p *parser) unary() (*Expr, error) {
	if p.tok.typ == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not(e), nil
	}
	return p.primary()
}

var calls = map[string]Op{
	"not": OpNot, "and": OpAnd, "or": OpOr, "xor": OpXor,
	"nand": OpNand, "nor": OpNor, "xnor": OpXnor,
}

func (p *parser) primary() (*Expr, error) {
	t := p.tok
	switch t.typ {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.tok.typ != tokRParen {
			return nil, parseError(p.lex.src, p.tok.pos, "missing closing parenthesis")
		}
		return e, p.advance()
	case tokInt:
		if t.val != "0" && t.val != "1" {
			return nil, parseError(p.lex.src, t.pos, "only 0 and 1 are valid constants")
		}
		return Const(t.val == "1"), p.advance()
	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		name := strings.ToLower(t.val)
		if op, ok := calls[name]; ok && p.tok.typ == tokLParen {
			return p.call(op)
		}
		switch name {
		case "true":
			return Const(true), nil
		case "false":
			return Const(false), nil
		}
		idx, ok := inputIndex(name)
		if !ok {
			return nil, parseError(p.lex.src, t.pos, "unknown identifier "+t.val)
		}
		if idx >= p.inputs {
			return nil, parseError(p.lex.src, t.pos, fmt.Sprintf("input %s out of range, block has %d inputs", t.val, p.inputs))
		}
		return In(idx), nil
	case tokEOF:
		return nil, parseError(p.lex.src, t.pos, "unexpected end of input")
	}
	return nil, parseError(p.lex.src, t.pos, "expected operand")
}

func (p *parser) call(op Op) (*Expr, error) {
	// current token is '('
	if err := p.advance(); err != nil {
		return nil, err
	}
	var args []*Expr
	for p.tok.typ != tokRParen {
		a, err := p.or()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.tok.typ == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok.typ != tokRParen {
			return nil, parseError(p.lex.src, p.tok.pos, "expected comma or closing parenthesis")
		}
	}
	e := &Expr{Op: op, Args: args}
	if err := e.validate(p.inputs, 0); err != nil {
		return nil, err
	}
	return e, p.advance()
}

func inputIndex(name string) (int, bool) {
	if len(name) == 1 && name[0] >= 'a' && name[0] <= 'z' {
		return int(name[0] - 'a'), true
	}
	if strings.HasPrefix(name, "in") && len(name) > 2 {
		n, err := strconv.Atoi(name[2:])
		if err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

func parseError(in string, pos int, msg string) error {
	return fmt.Errorf("%w: in %q at pos %d: %s", ErrInvalid, in, pos+1, msg)
}
