package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
)

// Enumerate drives every assignment of the primary inputs through full
// stabilization and records the resulting sink levels.
//
// Primary input j takes bit j of the slot index, in component order. Each
// slot starts from a fresh copy of the graph, so g itself is never modified.
// A slot that exhausts the pass budget is flagged Unstable and carries no
// outputs; enumeration continues with the next slot.
func (e *Engine) Enumerate(ctx context.Context, g *circuit.Graph) (table *domain.TruthTable, err error) {
	start := time.Now()
	inputs := len(g.PrimaryInputs())
	defer func() {
		e.fireEnumerate(ctx, inputs, table, err, time.Since(start))
	}()

	if inputs > e.maxInputs {
		return nil, fmt.Errorf("%w: %d primary inputs, at most %d allowed",
			domain.ErrTooManyInputs, inputs, e.maxInputs)
	}

	base := g.Clone()
	total := 1 << inputs
	table = &domain.TruthTable{Slots: make([]domain.Slot, 0, total)}
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot, err := e.slot(ctx, base.Clone(), i)
		if err != nil {
			return nil, err
		}
		table.Slots = append(table.Slots, slot)
	}
	if n := table.Unstable(); n > 0 {
		e.logger.Warn("truth table has unstable slots", "unstable", n, "slots", total)
	}
	return table, nil
}

func (e *Engine) slot(ctx context.Context, g *circuit.Graph, i int) (domain.Slot, error) {
	slot := domain.Slot{Time: i, Inputs: []domain.Sample{}, Outputs: []domain.Sample{}}
	for j, c := range g.PrimaryInputs() {
		c.State = domain.Level(i&(1<<j) != 0)
		slot.Inputs = append(slot.Inputs, domain.Sample{ID: c.ID, Kind: c.Kind.Name, State: c.State.Bool()})
	}

	passes, err := e.Stabilize(ctx, g)
	slot.Passes = passes
	switch {
	case errors.Is(err, domain.ErrUnstable):
		slot.Unstable = true
		return slot, nil
	case err != nil:
		return slot, err
	}

	for _, c := range g.Sinks() {
		s := domain.Sample{ID: c.ID, Kind: c.Kind.Name, State: c.State.Bool()}
		if c.Kind.Inputs > 1 {
			s.Pins = g.InputVector(c.ID)
		}
		slot.Outputs = append(slot.Outputs, s)
	}
	return slot, nil
}

func (e *Engine) fireEnumerate(ctx context.Context, inputs int, table *domain.TruthTable, err error, d time.Duration) {
	if e.hooks.OnEnumerate == nil {
		return
	}
	ev := &domain.EnumerateEvent{Inputs: inputs, Duration: d, Err: err}
	if table != nil {
		ev.Slots = len(table.Slots)
		ev.Unstable = table.Unstable()
	}
	e.hooks.OnEnumerate(ctx, ev)
}
