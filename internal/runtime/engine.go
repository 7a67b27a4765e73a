package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
)

const (
	// DefaultMaxPasses bounds full stabilization.
	DefaultMaxPasses = 256
	// DefaultMaxInputs bounds truth table enumeration to 2^16 slots.
	DefaultMaxInputs = 16
)

// Engine evaluates circuit graphs. It holds no graph state of its own and is
// safe for concurrent use on distinct graphs.
type Engine struct {
	maxPasses int
	maxInputs int
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxPasses sets the stabilization pass budget.
func WithMaxPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPasses = n
		}
	}
}

// WithMaxInputs sets the largest number of primary inputs Enumerate accepts.
func WithMaxInputs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxInputs = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine with the default budgets.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxPasses: DefaultMaxPasses,
		maxInputs: DefaultMaxInputs,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxPasses returns the stabilization budget.
func (e *Engine) MaxPasses() int { return e.maxPasses }

// MaxInputs returns the enumeration input cap.
func (e *Engine) MaxInputs() int { return e.maxInputs }

// Step runs one relaxation pass in component order, the interactive mode.
//
// Each component reads its inputs from the live states, latches output 0 of
// its behavior and immediately writes that level into the state of every
// component its outputs feed. Interactive components keep the state their
// handler set and push it the same way. Components later in the order may therefore
// observe the update within the same pass, while earlier ones only see it on
// the next Step. A chain deeper than one gate can need several Steps to
// settle; callers wanting a fixed point use Stabilize.
func (e *Engine) Step(ctx context.Context, g *circuit.Graph) (changed int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	before := g.States()
	comps := g.Components()
	for _, c := range comps {
		var next domain.Signal
		if c.Kind.Interactive() {
			next = domain.Level(c.State.Bool())
		} else {
			s, ok := c.Kind.Latch(g.InputVector(c.ID))
			if !ok {
				continue
			}
			next = s
			c.State = next
		}
		for _, conn := range g.Outgoing(c.ID) {
			if dst, found := g.Component(conn.To); found {
				dst.State = next
			}
		}
	}
	for _, c := range comps {
		if c.State != before[c.ID] {
			changed++
		}
	}
	e.firePass(ctx, domain.ModeStep, 1, g.Len(), changed)
	return changed, nil
}

// Stabilize repeats full evaluation passes until no state changes between two
// consecutive passes. Every pass reads the states left by the previous one.
// It returns the number of passes run, and ErrUnstable when the budget runs
// out first; the graph then holds the states of the last pass.
func (e *Engine) Stabilize(ctx context.Context, g *circuit.Graph) (int, error) {
	start := time.Now()
	comps := g.Components()
	conns := g.Connections()

	prev := make(map[string]domain.Signal, len(comps))
	for pass := 1; pass <= e.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return pass - 1, err
		}
		for _, c := range comps {
			prev[c.ID] = c.State
		}
		changed := 0
		for _, c := range comps {
			if c.Kind.Interactive() {
				continue
			}
			next, ok := c.Kind.Latch(gather(c, conns, prev))
			if !ok {
				continue
			}
			if next != c.State {
				changed++
				c.State = next
			}
		}
		e.firePass(ctx, domain.ModeStabilize, pass, len(comps), changed)
		if changed == 0 {
			e.fireStabilize(ctx, pass, true, time.Since(start))
			return pass, nil
		}
	}
	e.fireStabilize(ctx, e.maxPasses, false, time.Since(start))
	e.logger.Debug("stabilization budget exhausted", "passes", e.maxPasses, "components", len(comps))
	return e.maxPasses, fmt.Errorf("%w after %d passes", domain.ErrUnstable, e.maxPasses)
}

// gather builds the input vector of c from a state snapshot. The first
// connection wired to a pin feeds it; unwired pins read false.
func gather(c *domain.Component, conns []*domain.Connection, states map[string]domain.Signal) []bool {
	in := make([]bool, c.Kind.Inputs)
	fed := make([]bool, c.Kind.Inputs)
	for _, conn := range conns {
		if conn.To != c.ID || conn.ToInput < 0 || conn.ToInput >= len(in) || fed[conn.ToInput] {
			continue
		}
		fed[conn.ToInput] = true
		in[conn.ToInput] = states[conn.From].Bool()
	}
	return in
}

func (e *Engine) firePass(ctx context.Context, mode domain.PassMode, pass, comps, changed int) {
	if e.hooks.OnPass != nil {
		e.hooks.OnPass(ctx, &domain.PassEvent{Mode: mode, Pass: pass, Components: comps, Changed: changed})
	}
}

func (e *Engine) fireStabilize(ctx context.Context, passes int, stable bool, d time.Duration) {
	if e.hooks.OnStabilize != nil {
		e.hooks.OnStabilize(ctx, &domain.StabilizeEvent{Passes: passes, Stable: stable, Duration: d})
	}
}
