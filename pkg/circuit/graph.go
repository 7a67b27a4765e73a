// Package circuit implements the circuit graph store: the ordered collection
// of component instances and the wires between their pins.
//
// Every mutation validates its arguments before touching the graph, so a
// failed call leaves the graph unchanged. A Graph is not safe for concurrent
// use; the session manager serializes access to it.
package circuit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/google/uuid"
)

// PlacementOffset is multiplied by the component count to shift a component
// placed exactly on top of another one.
const PlacementOffset = 20

// Graph holds components and connections in creation order. Evaluation order
// is creation order.
type Graph struct {
	components  []*domain.Component
	connections []*domain.Connection
	newID       func() string
	revision    uint64
}

// Option configures a Graph.
type Option func(*Graph)

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		g.newID = fn
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{newID: uuid.NewString}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Revision increases on every structural change.
func (g *Graph) Revision() uint64 { return g.revision }

// Len returns the number of components.
func (g *Graph) Len() int { return len(g.components) }

// AddComponent places a new instance of k at pos. When pos is already taken
// by another component, both coordinates are shifted by PlacementOffset times
// the current component count.
func (g *Graph) AddComponent(k *domain.Kind, pos domain.Position) (*domain.Component, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: component kind is required", domain.ErrValidation)
	}
	for _, c := range g.components {
		if c.Position == pos {
			off := float64(PlacementOffset * len(g.components))
			pos.X += off
			pos.Y += off
			break
		}
	}
	c := &domain.Component{
		ID:       g.newID(),
		Kind:     k,
		Position: pos,
		Key:      k.DefaultKey,
	}
	if k.Interaction == domain.InteractionToggle {
		c.State = domain.Low
	}
	g.components = append(g.components, c)
	g.revision++
	return c, nil
}

// AddConnection wires output fromOutput of from to input toInput of to.
// Cycles, self loops and several wires into one input are all allowed. An
// unrecognized style falls back to the default.
func (g *Graph) AddConnection(from string, fromOutput int, to string, toInput int, style domain.RouteStyle) (*domain.Connection, error) {
	conn := &domain.Connection{
		From:       from,
		FromOutput: fromOutput,
		To:         to,
		ToInput:    toInput,
		Style:      style.OrDefault(),
	}
	if err := g.checkConnection(conn, g.lookup); err != nil {
		return nil, err
	}
	conn.ID = g.newID()
	g.connections = append(g.connections, conn)
	g.revision++
	return conn, nil
}

func (g *Graph) checkConnection(conn *domain.Connection, find func(string) *domain.Component) error {
	src := find(conn.From)
	if src == nil {
		return fmt.Errorf("%w: source %w: %s", domain.ErrDanglingConnection, domain.ErrComponentNotFound, conn.From)
	}
	dst := find(conn.To)
	if dst == nil {
		return fmt.Errorf("%w: destination %w: %s", domain.ErrDanglingConnection, domain.ErrComponentNotFound, conn.To)
	}
	if conn.FromOutput < 0 || conn.FromOutput >= src.Kind.Outputs {
		return fmt.Errorf("%w: output %d of %s (%s has %d outputs)",
			domain.ErrPinOutOfRange, conn.FromOutput, conn.From, src.Kind.Name, src.Kind.Outputs)
	}
	if conn.ToInput < 0 || conn.ToInput >= dst.Kind.Inputs {
		return fmt.Errorf("%w: input %d of %s (%s has %d inputs)",
			domain.ErrPinOutOfRange, conn.ToInput, conn.To, dst.Kind.Name, dst.Kind.Inputs)
	}
	return nil
}

func (g *Graph) lookup(id string) *domain.Component {
	for _, c := range g.components {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (g *Graph) indexOf(id string) int {
	for i, c := range g.components {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// RemoveComponent deletes a component and every connection that starts or
// ends at it.
func (g *Graph) RemoveComponent(id string) error {
	i := g.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrComponentNotFound, id)
	}
	g.components = append(g.components[:i], g.components[i+1:]...)
	g.connections = g.filterConnections(func(c *domain.Connection) bool {
		return c.From != id && c.To != id
	})
	g.revision++
	return nil
}

func (g *Graph) filterConnections(keep func(*domain.Connection) bool) []*domain.Connection {
	out := g.connections[:0]
	for _, c := range g.connections {
		if keep(c) {
			out = append(out, c)
		}
	}
	for i := len(out); i < len(g.connections); i++ {
		g.connections[i] = nil
	}
	return out
}

// RemoveConnection deletes a single connection.
func (g *Graph) RemoveConnection(id string) error {
	for i, c := range g.connections {
		if c.ID == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			g.revision++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrConnectionNotFound, id)
}

// SetConnectionStyle changes how a wire is drawn.
func (g *Graph) SetConnectionStyle(id string, style domain.RouteStyle) error {
	if !style.Valid() {
		return fmt.Errorf("%w: unknown connection style %q", domain.ErrValidation, style)
	}
	for _, c := range g.connections {
		if c.ID == id {
			c.Style = style
			g.revision++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrConnectionNotFound, id)
}

// Patch describes an in-place edit of a component. Nil fields are left
// untouched.
type Patch struct {
	Position *domain.Position
	Kind     *domain.Kind
	// Key sets the trigger key. An empty string clears it.
	Key *string
}

// UpdateComponent applies p to the component. Changing the kind drops the
// connections whose pin index no longer fits the new arity.
func (g *Graph) UpdateComponent(id string, p Patch) (*domain.Component, error) {
	c := g.lookup(id)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, id)
	}
	var key string
	if p.Key != nil {
		key = strings.ToUpper(strings.TrimSpace(*p.Key))
		if utf8.RuneCountInString(key) > 1 {
			return nil, fmt.Errorf("%w: trigger key must be a single character, got %q", domain.ErrValidation, *p.Key)
		}
	}

	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Key != nil {
		c.Key = key
	}
	if p.Kind != nil && p.Kind != c.Kind {
		c.Kind = p.Kind
		g.connections = g.filterConnections(func(conn *domain.Connection) bool {
			if conn.From == id && conn.FromOutput >= p.Kind.Outputs {
				return false
			}
			if conn.To == id && conn.ToInput >= p.Kind.Inputs {
				return false
			}
			return true
		})
	}
	g.revision++
	return c, nil
}

// Component returns the component with the given id.
func (g *Graph) Component(id string) (*domain.Component, bool) {
	c := g.lookup(id)
	return c, c != nil
}

// Connection returns the connection with the given id.
func (g *Graph) Connection(id string) (*domain.Connection, bool) {
	for _, c := range g.connections {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Components returns the components in evaluation order. The slice is a
// copy; the components are live.
func (g *Graph) Components() []*domain.Component {
	return append([]*domain.Component(nil), g.components...)
}

// Connections returns the connections in creation order. The slice is a
// copy; the connections are live.
func (g *Graph) Connections() []*domain.Connection {
	return append([]*domain.Connection(nil), g.connections...)
}

// Incoming returns the connections ending at id, in creation order.
func (g *Graph) Incoming(id string) []*domain.Connection {
	var out []*domain.Connection
	for _, c := range g.connections {
		if c.To == id {
			out = append(out, c)
		}
	}
	return out
}

// Outgoing returns the connections starting at id, in creation order.
func (g *Graph) Outgoing(id string) []*domain.Connection {
	var out []*domain.Connection
	for _, c := range g.connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// InputVector returns the current value of each input pin of a component.
// A pin reads the state of the source of the first connection wired to it,
// or false when nothing is wired to it.
func (g *Graph) InputVector(id string) []bool {
	c := g.lookup(id)
	if c == nil {
		return nil
	}
	in := make([]bool, c.Kind.Inputs)
	fed := make([]bool, c.Kind.Inputs)
	for _, conn := range g.connections {
		if conn.To != id || conn.ToInput < 0 || conn.ToInput >= len(in) || fed[conn.ToInput] {
			continue
		}
		fed[conn.ToInput] = true
		if src := g.lookup(conn.From); src != nil {
			in[conn.ToInput] = src.State.Bool()
		}
	}
	return in
}

// PrimaryInputs returns the components without input pins, in evaluation order.
func (g *Graph) PrimaryInputs() []*domain.Component {
	var out []*domain.Component
	for _, c := range g.components {
		if c.Kind.IsPrimaryInput() {
			out = append(out, c)
		}
	}
	return out
}

// Sinks returns the components without output pins, in evaluation order.
func (g *Graph) Sinks() []*domain.Component {
	var out []*domain.Component
	for _, c := range g.components {
		if c.Kind.IsSink() {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the graph. The copy shares kinds, which are
// immutable, and the id generator.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		components:  make([]*domain.Component, len(g.components)),
		connections: make([]*domain.Connection, len(g.connections)),
		newID:       g.newID,
		revision:    g.revision,
	}
	for i, c := range g.components {
		cp.components[i] = c.Clone()
	}
	for i, c := range g.connections {
		conn := *c
		cp.connections[i] = &conn
	}
	return cp
}

// States returns the latched state of every component keyed by id.
func (g *Graph) States() map[string]domain.Signal {
	out := make(map[string]domain.Signal, len(g.components))
	for _, c := range g.components {
		out[c.ID] = c.State
	}
	return out
}

// ResetStates clears every latched state.
func (g *Graph) ResetStates() {
	for _, c := range g.components {
		c.State = domain.Unset
	}
}

// Clear removes everything.
func (g *Graph) Clear() {
	g.components = nil
	g.connections = nil
	g.revision++
}

// Merge appends a fragment to the graph. Component ids must be new and every
// connection must reference a component of the graph or of the fragment;
// otherwise nothing is added.
func (g *Graph) Merge(components []*domain.Component, connections []*domain.Connection) error {
	added := make(map[string]*domain.Component, len(components))
	for _, c := range components {
		if c.Kind == nil {
			return fmt.Errorf("%w: component %s has no kind", domain.ErrValidation, c.ID)
		}
		if _, dup := added[c.ID]; dup || g.lookup(c.ID) != nil {
			return fmt.Errorf("%w: duplicate component id %s", domain.ErrValidation, c.ID)
		}
		added[c.ID] = c
	}
	find := func(id string) *domain.Component {
		if c, ok := added[id]; ok {
			return c
		}
		return g.lookup(id)
	}
	seen := make(map[string]bool, len(connections))
	for _, conn := range connections {
		if _, dup := g.Connection(conn.ID); dup || seen[conn.ID] {
			return fmt.Errorf("%w: duplicate connection id %s", domain.ErrValidation, conn.ID)
		}
		seen[conn.ID] = true
		if err := g.checkConnection(conn, find); err != nil {
			return err
		}
	}
	g.components = append(g.components, components...)
	for _, conn := range connections {
		conn.Style = conn.Style.OrDefault()
		g.connections = append(g.connections, conn)
	}
	g.revision++
	return nil
}
