package domain

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/logic"
)

// Interaction describes how a kind without a pure behavior reacts to the user.
type Interaction uint8

const (
	// InteractionNone means the kind is driven by its behavior (or is inert).
	InteractionNone Interaction = iota
	// InteractionToggle flips the latched state on each activation (buttons).
	InteractionToggle
	// InteractionMomentary holds the state high between press and release
	// (keyboard inputs).
	InteractionMomentary
)

func (i Interaction) String() string {
	switch i {
	case InteractionToggle:
		return "toggle"
	case InteractionMomentary:
		return "momentary"
	}
	return "none"
}

// Display is a render hint for kinds drawn with a custom visual. It has no
// meaning to the engine.
type Display string

const (
	DisplayNone      Display = ""
	DisplaySegment7  Display = "segment7"
	DisplayMatrix8x8 Display = "matrix8x8"
)

// Kind is a component template. Kinds are immutable once created.
type Kind struct {
	Name    string
	Inputs  int
	Outputs int

	// Behavior computes the outputs from the inputs. Nil for interactive and
	// display-only kinds.
	Behavior logic.Behavior
	// Program is the serializable form of Behavior for custom blocks.
	Program *logic.Program

	Interaction Interaction
	// DefaultKey is the trigger key assigned to new momentary components.
	DefaultKey string

	Display Display
	Width   int

	Builtin bool
}

// MaxCustomPins bounds the inputs and the outputs of a custom block.
const MaxCustomPins = 16

// NewCustomKind validates a user defined block and returns its kind.
func NewCustomKind(name string, inputs, outputs int, prog *logic.Program) (*Kind, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: block name is required", ErrValidation)
	}
	if inputs < 0 || outputs < 0 {
		return nil, fmt.Errorf("%w: block %q has a negative arity", ErrValidation, name)
	}
	if inputs > MaxCustomPins || outputs > MaxCustomPins {
		return nil, fmt.Errorf("%w: block %q exceeds %d pins per side", ErrValidation, name, MaxCustomPins)
	}
	if err := prog.Validate(inputs, outputs); err != nil {
		return nil, fmt.Errorf("%w: block %q: %w", ErrValidation, name, err)
	}
	return &Kind{
		Name:     name,
		Inputs:   inputs,
		Outputs:  outputs,
		Behavior: prog,
		Program:  prog,
	}, nil
}

// Evaluate runs the behavior and returns exactly Outputs values. Missing
// inputs read as false and kinds without a behavior produce all lows.
func (k *Kind) Evaluate(in []bool) []bool {
	out := make([]bool, k.Outputs)
	if k.Behavior == nil {
		return out
	}
	if len(in) < k.Inputs {
		padded := make([]bool, k.Inputs)
		copy(padded, in)
		in = padded
	}
	copy(out, k.Behavior.Eval(in))
	return out
}

// Latch evaluates the behavior and returns output 0, the level a component
// latches as its state. Sinks such as lamps latch a level even though they
// expose no output pin. ok is false for kinds without a behavior.
func (k *Kind) Latch(in []bool) (s Signal, ok bool) {
	if k.Behavior == nil {
		return Unset, false
	}
	if len(in) < k.Inputs {
		padded := make([]bool, k.Inputs)
		copy(padded, in)
		in = padded
	}
	out := k.Behavior.Eval(in)
	if len(out) == 0 {
		return Low, true
	}
	return Level(out[0]), true
}

// Equivalent reports whether k and o have the same arity and compute the same
// outputs for every input vector.
func (k *Kind) Equivalent(o *Kind) bool {
	if k.Inputs != o.Inputs || k.Outputs != o.Outputs {
		return false
	}
	if (k.Behavior == nil) != (o.Behavior == nil) {
		return false
	}
	if k.Inputs > MaxCustomPins {
		return false
	}
	in := make([]bool, k.Inputs)
	for row := 0; row < 1<<k.Inputs; row++ {
		for i := range in {
			in[i] = row&(1<<(k.Inputs-1-i)) != 0
		}
		a, b := k.Evaluate(in), o.Evaluate(in)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// IsPrimaryInput reports whether k has no input pins.
func (k *Kind) IsPrimaryInput() bool { return k.Inputs == 0 }

// IsSink reports whether k has no output pins.
func (k *Kind) IsSink() bool { return k.Outputs == 0 }

// Interactive reports whether k is driven by user activation.
func (k *Kind) Interactive() bool { return k.Interaction != InteractionNone }

// Custom reports whether k carries its own serializable behavior.
func (k *Kind) Custom() bool { return k.Program != nil }
