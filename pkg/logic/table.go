package logic

import (
	"fmt"
	"strings"
)

// MaxTableInputs bounds the size of a truth table (2^10 rows).
const MaxTableInputs = 10

// Table is a truth table. Row i holds the outputs for the input vector whose
// bit j is input j; character k of a row is output k ('0' or '1').
type Table struct {
	Inputs  int      `json:"inputs" mapstructure:"inputs"`
	Outputs int      `json:"outputs" mapstructure:"outputs"`
	Rows    []string `json:"rows" mapstructure:"rows"`
}

// Tabulate builds the truth table of fn.
func Tabulate(inputs, outputs int, fn func(in []bool) []bool) *Table {
	t := &Table{Inputs: inputs, Outputs: outputs, Rows: make([]string, 1<<uint(inputs))}
	in := make([]bool, inputs)
	var b strings.Builder
	for i := range t.Rows {
		for j := range in {
			in[j] = i&(1<<uint(j)) != 0
		}
		out := fn(in)
		b.Reset()
		for k := 0; k < outputs; k++ {
			if k < len(out) && out[k] {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		t.Rows[i] = b.String()
	}
	return t
}

// Eval looks up the row for in.
func (t *Table) Eval(in []bool) []bool {
	idx := 0
	for j := 0; j < t.Inputs && j < len(in); j++ {
		if in[j] {
			idx |= 1 << uint(j)
		}
	}
	out := make([]bool, t.Outputs)
	if idx >= len(t.Rows) {
		return out
	}
	row := t.Rows[idx]
	for k := range out {
		out[k] = k < len(row) && row[k] == '1'
	}
	return out
}

// Validate checks the table dimensions and row contents.
func (t *Table) Validate() error {
	if t.Inputs < 0 || t.Inputs > MaxTableInputs {
		return fmt.Errorf("%w: truth table inputs must be in [0, %d], got %d", ErrInvalid, MaxTableInputs, t.Inputs)
	}
	if t.Outputs < 0 {
		return fmt.Errorf("%w: negative truth table outputs", ErrInvalid)
	}
	if want := 1 << uint(t.Inputs); len(t.Rows) != want {
		return fmt.Errorf("%w: truth table has %d rows, want %d", ErrInvalid, len(t.Rows), want)
	}
	for i, row := range t.Rows {
		if len(row) != t.Outputs {
			return fmt.Errorf("%w: row %d has %d outputs, want %d", ErrInvalid, i, len(row), t.Outputs)
		}
		if strings.Trim(row, "01") != "" {
			return fmt.Errorf("%w: row %d contains characters other than 0 and 1", ErrInvalid, i)
		}
	}
	return nil
}
