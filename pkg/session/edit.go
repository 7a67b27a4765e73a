package session

import (
	"context"
	"fmt"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
)

// Place adds a component of the named kind at pos.
func (m *Manager) Place(ctx context.Context, id, kind string, pos domain.Position) (*ComponentView, error) {
	k, err := m.kinds.Lookup(kind)
	if err != nil {
		return nil, err
	}
	var view *ComponentView
	err = m.edit(ctx, id, func(s *live) error {
		c, err := s.graph.AddComponent(k, pos)
		if err != nil {
			return err
		}
		view = componentView(s.graph, c)
		return nil
	})
	return view, err
}

// Connect wires output fromOut of from to input toIn of to.
func (m *Manager) Connect(ctx context.Context, id, from string, fromOut int, to string, toIn int, style domain.RouteStyle) (*ConnectionView, error) {
	var view *ConnectionView
	err := m.edit(ctx, id, func(s *live) error {
		conn, err := s.graph.AddConnection(from, fromOut, to, toIn, style)
		if err != nil {
			return err
		}
		view = connectionView(conn)
		return nil
	})
	return view, err
}

// ComponentUpdate is a partial edit of a component. Nil fields are left
// untouched.
type ComponentUpdate struct {
	Position *domain.Position
	Kind     *string
	Key      *string
}

// Update applies every field of u in a single edit: either all of them take
// effect or none does.
func (m *Manager) Update(ctx context.Context, id, componentID string, u ComponentUpdate) (*ComponentView, error) {
	if u.Position == nil && u.Kind == nil && u.Key == nil {
		return nil, fmt.Errorf("%w: empty patch", domain.ErrValidation)
	}
	p := circuit.Patch{Position: u.Position, Key: u.Key}
	if u.Kind != nil {
		k, err := m.kinds.Lookup(*u.Kind)
		if err != nil {
			return nil, err
		}
		p.Kind = k
	}
	return m.patch(ctx, id, componentID, p)
}

func (m *Manager) patch(ctx context.Context, id, componentID string, p circuit.Patch) (*ComponentView, error) {
	var view *ComponentView
	err := m.edit(ctx, id, func(s *live) error {
		c, err := s.graph.UpdateComponent(componentID, p)
		if err != nil {
			return err
		}
		view = componentView(s.graph, c)
		return nil
	})
	return view, err
}

// Move sets the position of a component.
func (m *Manager) Move(ctx context.Context, id, componentID string, pos domain.Position) (*ComponentView, error) {
	return m.patch(ctx, id, componentID, circuit.Patch{Position: &pos})
}

// SetKind changes the kind of a component. Connections that no longer fit
// the new arity are dropped.
func (m *Manager) SetKind(ctx context.Context, id, componentID, kind string) (*ComponentView, error) {
	return m.Update(ctx, id, componentID, ComponentUpdate{Kind: &kind})
}

// RemoveComponent deletes a component and every connection touching it.
func (m *Manager) RemoveComponent(ctx context.Context, id, componentID string) error {
	return m.edit(ctx, id, func(s *live) error {
		return s.graph.RemoveComponent(componentID)
	})
}

// Disconnect deletes a connection.
func (m *Manager) Disconnect(ctx context.Context, id, connectionID string) error {
	return m.edit(ctx, id, func(s *live) error {
		return s.graph.RemoveConnection(connectionID)
	})
}

// SetConnectionStyle changes how a wire is drawn.
func (m *Manager) SetConnectionStyle(ctx context.Context, id, connectionID string, style domain.RouteStyle) (*ConnectionView, error) {
	var view *ConnectionView
	err := m.edit(ctx, id, func(s *live) error {
		if err := s.graph.SetConnectionStyle(connectionID, style); err != nil {
			return err
		}
		conn, _ := s.graph.Connection(connectionID)
		view = connectionView(conn)
		return nil
	})
	return view, err
}

// ImportReport summarizes a merged document.
type ImportReport struct {
	Components  int      `json:"components"`
	Connections int      `json:"connections"`
	Kinds       []string `json:"kinds,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Import merges a circuit document into the session. Imported components get
// fresh ids and are shifted by codec.ImportOffset. Custom blocks carried by
// the document are registered. Connections that cannot be restored are
// dropped and reported as warnings.
func (m *Manager) Import(ctx context.Context, id string, data []byte) (*ImportReport, error) {
	frag, err := codec.Decode(data, m.kinds, codec.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	report := &ImportReport{
		Components:  len(frag.Components),
		Connections: len(frag.Connections),
	}
	for _, w := range frag.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}
	for _, k := range frag.Kinds {
		report.Kinds = append(report.Kinds, k.Name)
	}

	err = m.edit(ctx, id, func(s *live) error {
		return s.graph.Merge(frag.Components, frag.Connections)
	})
	if err != nil {
		return nil, err
	}
	if err := m.register(frag.Kinds); err != nil {
		return nil, err
	}
	m.logger.Info("circuit imported",
		"session_id", id,
		"components", report.Components,
		"connections", report.Connections,
		"warnings", len(report.Warnings),
	)
	return report, nil
}

// Export returns the session's circuit as a document.
func (m *Manager) Export(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := m.view(ctx, id, func(s *live) error {
		var err error
		data, err = codec.Encode(s.graph)
		return err
	})
	return data, err
}

// DefineBlock registers a custom block built from expressions or a table.
func (m *Manager) DefineBlock(def registry.BlockDefinition) (*KindView, error) {
	k, err := m.kinds.Define(def)
	if err != nil {
		return nil, err
	}
	m.logger.Info("block defined", "name", k.Name, "inputs", k.Inputs, "outputs", k.Outputs)
	v := kindView(k)
	return &v, nil
}

// RemoveBlock unregisters a custom block. Components already placed keep
// their behavior.
func (m *Manager) RemoveBlock(name string) error {
	if err := m.kinds.Unregister(name); err != nil {
		return fmt.Errorf("failed to remove block: %w", err)
	}
	return nil
}

// ListKinds returns the placeable kinds.
func (m *Manager) ListKinds() []KindView {
	kinds := m.kinds.List()
	out := make([]KindView, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, kindView(k))
	}
	return out
}
