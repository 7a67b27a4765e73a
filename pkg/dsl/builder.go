package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
)

// KindLookup resolves kind names. *registry.Registry satisfies it.
type KindLookup interface {
	Lookup(name string) (*domain.Kind, error)
}

// Builder manages the circuit construction.
type Builder struct {
	kinds KindLookup
	opts  []circuit.Option
	parts map[string]*PartBuilder
	order []string
}

// New creates a builder resolving kinds through kinds. The options are passed
// to the graph.
func New(kinds KindLookup, opts ...circuit.Option) *Builder {
	return &Builder{
		kinds: kinds,
		opts:  opts,
		parts: make(map[string]*PartBuilder),
	}
}

// Add declares a part. Declaring a name twice returns the existing part.
func (b *Builder) Add(name, kind string) *PartBuilder {
	if p, ok := b.parts[name]; ok {
		return p
	}
	p := &PartBuilder{name: name, kind: kind}
	b.parts[name] = p
	b.order = append(b.order, name)
	return p
}

// Circuit is a built graph with the ids of the named parts.
type Circuit struct {
	*circuit.Graph
	ids map[string]string
}

// ID returns the component id of a named part, or "" if there is none.
func (c *Circuit) ID(name string) string { return c.ids[name] }

// Component returns the live component of a named part.
func (c *Circuit) Component(name string) *domain.Component {
	comp, _ := c.Graph.Component(c.ids[name])
	return comp
}

// Build places every part in declaration order, then wires them. All
// problems are reported together.
func (b *Builder) Build() (*Circuit, error) {
	c := &Circuit{Graph: circuit.New(b.opts...), ids: make(map[string]string, len(b.order))}
	var errs []error

	for _, name := range b.order {
		p := b.parts[name]
		k, err := b.kinds.Lookup(p.kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("part %q: %w", name, err))
			continue
		}
		comp, err := c.AddComponent(k, p.pos)
		if err != nil {
			errs = append(errs, fmt.Errorf("part %q: %w", name, err))
			continue
		}
		if p.key != nil {
			if _, err := c.UpdateComponent(comp.ID, circuit.Patch{Key: p.key}); err != nil {
				errs = append(errs, fmt.Errorf("part %q: %w", name, err))
			}
		}
		c.ids[name] = comp.ID
	}

	for _, name := range b.order {
		to, ok := c.ids[name]
		if !ok {
			continue
		}
		for _, w := range b.parts[name].wires {
			from, ok := c.ids[w.from]
			if !ok {
				if _, declared := b.parts[w.from]; !declared {
					errs = append(errs, fmt.Errorf("part %q: input %d: %w: no part named %q",
						name, w.input, domain.ErrComponentNotFound, w.from))
				}
				continue
			}
			if _, err := c.AddConnection(from, w.output, to, w.input, w.style); err != nil {
				errs = append(errs, fmt.Errorf("part %q: input %d: %w", name, w.input, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}
