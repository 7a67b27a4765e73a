package dsl

import "github.com/aretw0/breadboard/pkg/domain"

type wire struct {
	from   string
	output int
	input  int
	style  domain.RouteStyle
}

// PartBuilder provides a fluent API for configuring a part.
type PartBuilder struct {
	name  string
	kind  string
	pos   domain.Position
	key   *string
	wires []wire
}

// At sets the canvas position.
func (p *PartBuilder) At(x, y float64) *PartBuilder {
	p.pos = domain.Position{X: x, Y: y}
	return p
}

// Key sets the trigger key of a keyboard input.
func (p *PartBuilder) Key(k string) *PartBuilder {
	p.key = &k
	return p
}

// In wires output 0 of the named part to the given input pin.
func (p *PartBuilder) In(input int, from string) *PartBuilder {
	return p.InFrom(input, from, 0)
}

// InFrom wires a specific output of the named part to the given input pin.
func (p *PartBuilder) InFrom(input int, from string, output int) *PartBuilder {
	p.wires = append(p.wires, wire{from: from, output: output, input: input})
	return p
}

// Styled sets the route style of the last wire.
func (p *PartBuilder) Styled(style domain.RouteStyle) *PartBuilder {
	if n := len(p.wires); n > 0 {
		p.wires[n-1].style = style
	}
	return p
}
