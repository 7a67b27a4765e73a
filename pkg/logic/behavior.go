// Package logic evaluates component behavior.
//
// Built-in kinds use Go functions (Func). User defined blocks carry a Program:
// either one expression tree per output or a truth table. Programs are plain
// data, so a circuit document never contains executable code.
package logic

import "fmt"

// Behavior maps an input vector to an output vector.
type Behavior interface {
	Eval(in []bool) []bool
}

// Func adapts a function to Behavior.
type Func func(in []bool) []bool

// Eval calls f.
func (f Func) Eval(in []bool) []bool { return f(in) }

// Program is the serializable behavior of a custom block. Exactly one of
// Outputs or Table is set.
type Program struct {
	Outputs []*Expr `json:"outputs,omitempty" mapstructure:"outputs"`
	Table   *Table  `json:"table,omitempty" mapstructure:"table"`
}

// Eval implements Behavior.
func (p *Program) Eval(in []bool) []bool {
	if p.Table != nil {
		return p.Table.Eval(in)
	}
	out := make([]bool, len(p.Outputs))
	for i, e := range p.Outputs {
		out[i] = e.Eval(in)
	}
	return out
}

// Validate checks that p is well formed for a block with the given arity.
func (p *Program) Validate(inputs, outputs int) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: missing program", ErrInvalid)
	case p.Table != nil && len(p.Outputs) > 0:
		return fmt.Errorf("%w: program has both expressions and a truth table", ErrInvalid)
	case p.Table != nil:
		if p.Table.Inputs != inputs || p.Table.Outputs != outputs {
			return fmt.Errorf("%w: truth table is %dx%d, block is %dx%d",
				ErrInvalid, p.Table.Inputs, p.Table.Outputs, inputs, outputs)
		}
		return p.Table.Validate()
	}
	if len(p.Outputs) != outputs {
		return fmt.Errorf("%w: %d output expressions for %d outputs", ErrInvalid, len(p.Outputs), outputs)
	}
	for i, e := range p.Outputs {
		if err := e.Validate(inputs); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}
