package logic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a behavior definition is structurally wrong.
var ErrInvalid = errors.New("invalid behavior")

// MaxDepth bounds the nesting of an expression tree.
const MaxDepth = 64

// Op identifies the operator of an expression node.
type Op string

const (
	OpConst Op = "const"
	OpInput Op = "input"
	OpNot   Op = "not"
	OpAnd   Op = "and"
	OpOr    Op = "or"
	OpXor   Op = "xor"
	OpNand  Op = "nand"
	OpNor   Op = "nor"
	OpXnor  Op = "xnor"
)

// Expr is a node of a boolean expression tree over the input pins of a block.
// It is plain data: it serializes to JSON and is evaluated by Eval.
type Expr struct {
	Op    Op      `json:"op" mapstructure:"op"`
	Input int     `json:"input,omitempty" mapstructure:"input"`
	Value bool    `json:"value,omitempty" mapstructure:"value"`
	Args  []*Expr `json:"args,omitempty" mapstructure:"args"`
}

// In references input pin i.
func In(i int) *Expr { return &Expr{Op: OpInput, Input: i} }

// Const is a constant level.
func Const(v bool) *Expr { return &Expr{Op: OpConst, Value: v} }

// Not negates e.
func Not(e *Expr) *Expr { return &Expr{Op: OpNot, Args: []*Expr{e}} }

// And, Or, Xor, Nand, Nor and Xnor fold their arguments.
func And(args ...*Expr) *Expr  { return &Expr{Op: OpAnd, Args: args} }
func Or(args ...*Expr) *Expr   { return &Expr{Op: OpOr, Args: args} }
func Xor(args ...*Expr) *Expr  { return &Expr{Op: OpXor, Args: args} }
func Nand(args ...*Expr) *Expr { return &Expr{Op: OpNand, Args: args} }
func Nor(args ...*Expr) *Expr  { return &Expr{Op: OpNor, Args: args} }
func Xnor(args ...*Expr) *Expr { return &Expr{Op: OpXnor, Args: args} }

// Eval evaluates the expression against the input vector. Inputs beyond the
// end of in read as false.
func (e *Expr) Eval(in []bool) bool {
	switch e.Op {
	case OpConst:
		return e.Value
	case OpInput:
		if e.Input < 0 || e.Input >= len(in) {
			return false
		}
		return in[e.Input]
	case OpNot:
		return !e.Args[0].Eval(in)
	case OpAnd, OpNand:
		v := true
		for _, a := range e.Args {
			if !a.Eval(in) {
				v = false
				break
			}
		}
		return v != (e.Op == OpNand)
	case OpOr, OpNor:
		v := false
		for _, a := range e.Args {
			if a.Eval(in) {
				v = true
				break
			}
		}
		return v != (e.Op == OpNor)
	case OpXor, OpXnor:
		// odd parity
		v := false
		for _, a := range e.Args {
			v = v != a.Eval(in)
		}
		return v != (e.Op == OpXnor)
	}
	return false
}

// Validate checks operators, argument counts and that every input reference
// is below inputs.
func (e *Expr) Validate(inputs int) error {
	return e.validate(inputs, 0)
}

func (e *Expr) validate(inputs, depth int) error {
	if e == nil {
		return fmt.Errorf("%w: nil expression", ErrInvalid)
	}
	if depth > MaxDepth {
		return fmt.Errorf("%w: expression nested deeper than %d", ErrInvalid, MaxDepth)
	}
	switch e.Op {
	case OpConst:
		if len(e.Args) != 0 {
			return fmt.Errorf("%w: constant with arguments", ErrInvalid)
		}
		return nil
	case OpInput:
		if e.Input < 0 || e.Input >= inputs {
			return fmt.Errorf("%w: input %d out of range [0, %d)", ErrInvalid, e.Input, inputs)
		}
		if len(e.Args) != 0 {
			return fmt.Errorf("%w: input reference with arguments", ErrInvalid)
		}
		return nil
	case OpNot:
		if len(e.Args) != 1 {
			return fmt.Errorf("%w: not takes exactly one argument, got %d", ErrInvalid, len(e.Args))
		}
	case OpAnd, OpOr, OpXor, OpNand, OpNor, OpXnor:
		if len(e.Args) == 0 {
			return fmt.Errorf("%w: %s without arguments", ErrInvalid, e.Op)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalid, e.Op)
	}
	for _, a := range e.Args {
		if err := a.validate(inputs, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// String returns the expression in the text form accepted by Parse.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

var infix = map[Op]string{OpAnd: " & ", OpOr: " | ", OpXor: " ^ "}

func (e *Expr) write(b *strings.Builder) {
	switch e.Op {
	case OpConst:
		if e.Value {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case OpInput:
		b.WriteString("in")
		b.WriteString(strconv.Itoa(e.Input))
	case OpNot:
		b.WriteByte('!')
		e.Args[0].writeOperand(b)
	case OpAnd, OpOr, OpXor:
		if len(e.Args) == 1 {
			e.writeCall(b)
			return
		}
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(infix[e.Op])
			}
			a.writeOperand(b)
		}
	default:
		e.writeCall(b)
	}
}

func (e *Expr) writeCall(b *strings.Builder) {
	b.WriteString(string(e.Op))
	b.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
	b.WriteByte(')')
}

// writeOperand parenthesizes infix sub-expressions so the text form never
// depends on operator precedence.
func (e *Expr) writeOperand(b *strings.Builder) {
	if _, ok := infix[e.Op]; ok && len(e.Args) > 1 {
		b.WriteByte('(')
		e.write(b)
		b.WriteByte(')')
		return
	}
	e.write(b)
}
