package registry

import (
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/logic"
)

// Built-in kind names.
const (
	KindAND        = "AND"
	KindOR         = "OR"
	KindNOT        = "NOT"
	KindXOR        = "XOR"
	KindNAND       = "NAND"
	KindNOR        = "NOR"
	KindXNOR       = "XNOR"
	KindTransistor = "Transistor"
	Kind74LS00     = "74LS00"
	KindButton     = "Button"
	KindKeyboard   = "Keyboard Input"
	KindSegment7   = "7 Segment Display"
	KindMatrix8x8  = "8x8 LED Matrix"
	KindLamp       = "Lamp"
)

// DefaultTriggerKey is bound to new keyboard inputs.
const DefaultTriggerKey = "A"

func gate(name string, fn func(a, b bool) bool) *domain.Kind {
	return &domain.Kind{
		Name:     name,
		Inputs:   2,
		Outputs:  1,
		Behavior: logic.Func(func(in []bool) []bool { return []bool{fn(in[0], in[1])} }),
		Builtin:  true,
	}
}

func builtins() []*domain.Kind {
	return []*domain.Kind{
		gate(KindAND, func(a, b bool) bool { return a && b }),
		gate(KindOR, func(a, b bool) bool { return a || b }),
		{
			Name: KindNOT, Inputs: 1, Outputs: 1, Builtin: true,
			Behavior: logic.Func(func(in []bool) []bool { return []bool{!in[0]} }),
		},
		gate(KindXOR, func(a, b bool) bool { return a != b }),
		gate(KindNAND, func(a, b bool) bool { return !(a && b) }),
		gate(KindNOR, func(a, b bool) bool { return !(a || b) }),
		gate(KindXNOR, func(a, b bool) bool { return a == b }),
		// passes b through while both the gate and b are high
		gate(KindTransistor, func(a, b bool) bool {
			if a && b {
				return b
			}
			return false
		}),
		{
			Name: Kind74LS00, Inputs: 4, Outputs: 2, Builtin: true,
			Behavior: logic.Func(func(in []bool) []bool {
				return []bool{in[0] && in[1], in[2] && in[3]}
			}),
		},
		{Name: KindButton, Outputs: 1, Interaction: domain.InteractionToggle, Builtin: true},
		{
			Name: KindKeyboard, Outputs: 1, Builtin: true,
			Interaction: domain.InteractionMomentary,
			DefaultKey:  DefaultTriggerKey,
		},
		{Name: KindSegment7, Inputs: 8, Display: domain.DisplaySegment7, Width: 80, Builtin: true},
		{Name: KindMatrix8x8, Inputs: 16, Display: domain.DisplayMatrix8x8, Width: 132, Builtin: true},
		{
			Name: KindLamp, Inputs: 1, Builtin: true,
			Behavior: logic.Func(func(in []bool) []bool {
				for _, v := range in {
					if v {
						return []bool{true}
					}
				}
				return []bool{false}
			}),
		},
	}
}

// legacy spellings found in saved documents
var builtinAliases = map[string]string{
	"7 Segment diplay": KindSegment7,
	"Screen7Segment":   KindSegment7,
	"Matrix8x8":        KindMatrix8x8,
	"KeyboardInput":    KindKeyboard,
	"TRANSISTOR":       KindTransistor,
}

// SegmentsLit returns which of the 7 segments (a to g) and the decimal point
// of a 7 segment display are lit for the given input vector.
func SegmentsLit(in []bool) [8]bool {
	var lit [8]bool
	copy(lit[:], in)
	return lit
}

// MatrixPixels returns the lit pixels of an 8x8 matrix. Inputs 0-7 select
// columns and inputs 8-15 select rows; a pixel is lit when both its column
// and its row are high.
func MatrixPixels(in []bool) [8][8]bool {
	var px [8][8]bool
	pin := func(i int) bool { return i < len(in) && in[i] }
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			px[row][col] = pin(col) && pin(8+row)
		}
	}
	return px
}
