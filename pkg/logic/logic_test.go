package logic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bits(i, n int) []bool {
	in := make([]bool, n)
	for j := range in {
		in[j] = i&(1<<uint(j)) != 0
	}
	return in
}

func TestExprEval(t *testing.T) {
	td := []struct {
		name string
		expr *Expr
		want []bool // indexed by input vector, bit 0 = input 0
	}{
		{"and", And(In(0), In(1)), []bool{false, false, false, true}},
		{"or", Or(In(0), In(1)), []bool{false, true, true, true}},
		{"xor", Xor(In(0), In(1)), []bool{false, true, true, false}},
		{"nand", Nand(In(0), In(1)), []bool{true, true, true, false}},
		{"nor", Nor(In(0), In(1)), []bool{true, false, false, false}},
		{"xnor", Xnor(In(0), In(1)), []bool{true, false, false, true}},
		{"not a", Not(In(0)), []bool{true, false, true, false}},
		{"const", Const(true), []bool{true, true, true, true}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			for i, want := range d.want {
				assert.Equal(t, want, d.expr.Eval(bits(i, 2)), "input %v", bits(i, 2))
			}
		})
	}
}

func TestExprEvalMissingInputReadsLow(t *testing.T) {
	assert.False(t, In(3).Eval([]bool{true}))
}

func TestExprValidate(t *testing.T) {
	require.NoError(t, And(In(0), Not(In(1))).Validate(2))

	assert.ErrorIs(t, In(2).Validate(2), ErrInvalid)
	assert.ErrorIs(t, And().Validate(2), ErrInvalid)
	assert.ErrorIs(t, (&Expr{Op: OpNot}).Validate(1), ErrInvalid)
	assert.ErrorIs(t, (&Expr{Op: "implies", Args: []*Expr{In(0)}}).Validate(1), ErrInvalid)

	deep := In(0)
	for i := 0; i <= MaxDepth; i++ {
		deep = Not(deep)
	}
	assert.ErrorIs(t, deep.Validate(1), ErrInvalid)
}

func TestParse(t *testing.T) {
	td := []struct {
		src    string
		inputs int
		want   *Expr
	}{
		{"a & b", 2, And(In(0), In(1))},
		{"in0 | in1 | in2", 3, Or(In(0), In(1), In(2))},
		{"!a", 1, Not(In(0))},
		{"a | b & c", 3, Or(In(0), And(In(1), In(2)))},
		{"(a | b) & c", 3, And(Or(In(0), In(1)), In(2))},
		{"a ^ b", 2, Xor(In(0), In(1))},
		{"nand(a, b)", 2, Nand(In(0), In(1))},
		{"~a && b", 2, And(Not(In(0)), In(1))},
		{"a + b * c", 3, Or(In(0), And(In(1), In(2)))},
		{"true", 0, Const(true)},
		{"0", 0, Const(false)},
	}
	for _, d := range td {
		t.Run(d.src, func(t *testing.T) {
			got, err := Parse(d.src, d.inputs)
			require.NoError(t, err)
			assert.Equal(t, d.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "a &", "(a | b", "a b", "c", "2", "foo", "a $ b", "not(a, b)", "and()"} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src, 2)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestExprStringParses(t *testing.T) {
	exprs := []*Expr{
		And(In(0), Not(Or(In(1), In(2)))),
		Xnor(In(0), In(2)),
		Not(Xor(In(0), In(1))),
		Or(And(In(0), In(1)), Xor(In(1), In(2))),
		And(In(1)),
	}
	for _, e := range exprs {
		back, err := Parse(e.String(), 3)
		require.NoError(t, err, e.String())
		for i := 0; i < 8; i++ {
			assert.Equal(t, e.Eval(bits(i, 3)), back.Eval(bits(i, 3)), "%s at %v", e, bits(i, 3))
		}
	}
}

func TestParseProgram(t *testing.T) {
	p, err := ParseProgram("a ^ b; a & b", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, p.Eval([]bool{true, false}))
	assert.Equal(t, []bool{false, true}, p.Eval([]bool{true, true}))

	_, err = ParseProgram("a ^ b", 2, 2)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTable(t *testing.T) {
	halfAdder := func(in []bool) []bool { return []bool{in[0] != in[1], in[0] && in[1]} }
	tab := Tabulate(2, 2, halfAdder)
	require.NoError(t, tab.Validate())
	assert.Equal(t, []string{"00", "10", "10", "01"}, tab.Rows)
	for i := 0; i < 4; i++ {
		assert.Equal(t, halfAdder(bits(i, 2)), tab.Eval(bits(i, 2)))
	}

	assert.ErrorIs(t, (&Table{Inputs: 1, Outputs: 1, Rows: []string{"0"}}).Validate(), ErrInvalid)
	assert.ErrorIs(t, (&Table{Inputs: 1, Outputs: 1, Rows: []string{"0", "x"}}).Validate(), ErrInvalid)
	assert.ErrorIs(t, (&Table{Inputs: MaxTableInputs + 1}).Validate(), ErrInvalid)
}

func TestProgramValidate(t *testing.T) {
	assert.ErrorIs(t, (*Program)(nil).Validate(1, 1), ErrInvalid)
	assert.ErrorIs(t, (&Program{Outputs: []*Expr{In(0)}, Table: Tabulate(1, 1, func(in []bool) []bool { return in })}).Validate(1, 1), ErrInvalid)
	assert.ErrorIs(t, (&Program{Table: Tabulate(2, 1, func(in []bool) []bool { return in })}).Validate(1, 1), ErrInvalid)
	assert.NoError(t, (&Program{Outputs: []*Expr{Not(In(0))}}).Validate(1, 1))
}

func TestProgramJSON(t *testing.T) {
	p := &Program{Outputs: []*Expr{Xor(In(0), Not(In(1)))}}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outputs":[{"op":"xor","args":[{"op":"input"},{"op":"not","args":[{"op":"input","input":1}]}]}]}`, string(data))
}
