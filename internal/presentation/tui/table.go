package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/muesli/termenv"
)

// Labels names the samples of a slot "<kind> <n>", numbering repeated kinds
// in order.
func Labels(samples []domain.Sample) []string {
	total := map[string]int{}
	for _, s := range samples {
		total[s.Kind]++
	}
	seen := map[string]int{}
	out := make([]string, len(samples))
	for i, s := range samples {
		seen[s.Kind]++
		if total[s.Kind] == 1 {
			out[i] = s.Kind
			continue
		}
		out[i] = fmt.Sprintf("%s %d", s.Kind, seen[s.Kind])
	}
	return out
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// header returns the input and output labels of a table. Unstable slots
// carry no outputs, so the first stable slot names the output columns.
func header(t *domain.TruthTable) (ins, outs []string) {
	if len(t.Slots) == 0 {
		return nil, nil
	}
	ins = Labels(t.Slots[0].Inputs)
	for _, s := range t.Slots {
		if !s.Unstable {
			outs = Labels(s.Outputs)
			break
		}
	}
	return ins, outs
}

// TableMarkdown renders a truth table as a markdown table, one row per time
// slot. Multi-input displays show their pin vector.
func TableMarkdown(t *domain.TruthTable) string {
	ins, outs := header(t)
	var b strings.Builder
	b.WriteString("## Truth table\n\n")
	if len(t.Slots) == 0 {
		b.WriteString("_empty circuit_\n")
		return b.String()
	}

	cols := append([]string{"T"}, ins...)
	cols = append(cols, outs...)
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")

	for _, s := range t.Slots {
		row := []string{fmt.Sprint(s.Time)}
		for _, in := range s.Inputs {
			row = append(row, bit(in.State))
		}
		if s.Unstable {
			for range outs {
				row = append(row, "unstable")
			}
		} else {
			for _, out := range s.Outputs {
				cell := bit(out.State)
				if len(out.Pins) > 0 {
					var pins strings.Builder
					for _, p := range out.Pins {
						pins.WriteString(bit(p))
					}
					cell = "`" + pins.String() + "`"
				}
				row = append(row, cell)
			}
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	if n := t.Unstable(); n > 0 {
		fmt.Fprintf(&b, "\n%d of %d slots did not stabilize.\n", n, len(t.Slots))
	}
	return b.String()
}

// Chronogram renders every signal as a row of levels over time: primary
// inputs first, then sinks. Unstable slots show '?'. With color, high levels
// are green and low levels dim.
func Chronogram(t *domain.TruthTable, color bool) string {
	ins, outs := header(t)
	labels := append(append([]string(nil), ins...), outs...)
	width := 0
	for _, l := range labels {
		width = max(width, len(l))
	}

	p := termenv.Ascii
	if color {
		p = termenv.ColorProfile()
	}
	level := func(b bool) string {
		if b {
			return p.String("1").Foreground(p.Color("#22c55e")).String()
		}
		return p.String("0").Foreground(p.Color("#6b7280")).String()
	}

	var b strings.Builder
	for i, l := range labels {
		fmt.Fprintf(&b, "%-*s ", width, l)
		for _, s := range t.Slots {
			switch {
			case i < len(ins):
				b.WriteString(level(s.Inputs[i].State))
			case s.Unstable || i-len(ins) >= len(s.Outputs):
				b.WriteString("?")
			default:
				b.WriteString(level(s.Outputs[i-len(ins)].State))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
