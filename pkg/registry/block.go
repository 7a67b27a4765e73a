package registry

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/logic"
	"github.com/go-playground/validator/v10"
)

// MaxBlockPins bounds the arity of custom blocks.
const MaxBlockPins = domain.MaxCustomPins

// BlockDefinition is a custom block as submitted by a user: one boolean
// expression per output, or a truth table.
type BlockDefinition struct {
	Name        string       `json:"name" yaml:"name" validate:"required,max=64"`
	Inputs      int          `json:"inputs" yaml:"inputs" validate:"gte=0,lte=16"`
	Outputs     int          `json:"outputs" yaml:"outputs" validate:"gte=0,lte=16"`
	Expressions []string     `json:"expressions,omitempty" yaml:"expressions" validate:"required_without=Table,excluded_with=Table"`
	Table       *logic.Table `json:"table,omitempty" yaml:"table"`
}

var blockValidate = validator.New()

// Program compiles the definition into its serializable behavior.
func (d *BlockDefinition) Program() (*logic.Program, error) {
	if err := blockValidate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if d.Table != nil {
		return &logic.Program{Table: d.Table}, nil
	}
	prog, err := logic.ParseProgram(strings.Join(d.Expressions, "\n"), d.Inputs, d.Outputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return prog, nil
}

// Define compiles and registers a custom block.
func (r *Registry) Define(d BlockDefinition) (*domain.Kind, error) {
	prog, err := d.Program()
	if err != nil {
		return nil, err
	}
	return r.RegisterBlock(d.Name, d.Inputs, d.Outputs, prog)
}
