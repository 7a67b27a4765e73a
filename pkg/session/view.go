package session

import (
	"context"

	"github.com/aretw0/breadboard/internal/presentation/graph"
	"github.com/aretw0/breadboard/internal/validator"
	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/registry"
)

// ComponentView is what a renderer needs to draw a component.
type ComponentView struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	Inputs      int           `json:"inputs"`
	Outputs     int           `json:"outputs"`
	State       domain.Signal `json:"state"`
	Key         string        `json:"key,omitempty"`
	Width       int           `json:"width,omitempty"`
	Display     string        `json:"display,omitempty"`
	Interaction string        `json:"interaction"`
	// Pins is the live input vector, set for components with inputs.
	Pins     []bool      `json:"pins,omitempty"`
	Segments *[8]bool    `json:"segments,omitempty"`
	Pixels   *[8][8]bool `json:"pixels,omitempty"`
}

// ConnectionView is a wire as drawn by a renderer.
type ConnectionView struct {
	ID         string            `json:"id"`
	From       string            `json:"from"`
	FromOutput int               `json:"fromOutput"`
	To         string            `json:"to"`
	ToInput    int               `json:"toInput"`
	Style      domain.RouteStyle `json:"style"`
}

// KindView describes a placeable kind.
type KindView struct {
	Name        string `json:"name"`
	Inputs      int    `json:"inputs"`
	Outputs     int    `json:"outputs"`
	Interaction string `json:"interaction"`
	DefaultKey  string `json:"defaultKey,omitempty"`
	Display     string `json:"display,omitempty"`
	Width       int    `json:"width,omitempty"`
	Builtin     bool   `json:"builtin"`
}

// Snapshot is the full view of a session.
type Snapshot struct {
	ID          string           `json:"id"`
	Revision    uint64           `json:"revision"`
	Simulating  bool             `json:"simulating"`
	Components  []ComponentView  `json:"components"`
	Connections []ConnectionView `json:"connections"`
}

func kindView(k *domain.Kind) KindView {
	return KindView{
		Name:        k.Name,
		Inputs:      k.Inputs,
		Outputs:     k.Outputs,
		Interaction: k.Interaction.String(),
		DefaultKey:  k.DefaultKey,
		Display:     string(k.Display),
		Width:       k.Width,
		Builtin:     k.Builtin,
	}
}

func componentView(g *circuit.Graph, c *domain.Component) *ComponentView {
	v := &ComponentView{
		ID:          c.ID,
		Type:        c.Kind.Name,
		X:           c.X,
		Y:           c.Y,
		Inputs:      c.Kind.Inputs,
		Outputs:     c.Kind.Outputs,
		State:       c.State,
		Key:         c.Key,
		Width:       c.Kind.Width,
		Display:     string(c.Kind.Display),
		Interaction: c.Kind.Interaction.String(),
	}
	if c.Kind.Inputs > 0 {
		v.Pins = g.InputVector(c.ID)
	}
	switch c.Kind.Display {
	case domain.DisplaySegment7:
		lit := registry.SegmentsLit(v.Pins)
		v.Segments = &lit
	case domain.DisplayMatrix8x8:
		px := registry.MatrixPixels(v.Pins)
		v.Pixels = &px
	}
	return v
}

func connectionView(c *domain.Connection) *ConnectionView {
	return &ConnectionView{
		ID:         c.ID,
		From:       c.From,
		FromOutput: c.FromOutput,
		To:         c.To,
		ToInput:    c.ToInput,
		Style:      c.Style,
	}
}

func snapshot(s *live) *Snapshot {
	snap := &Snapshot{
		ID:          s.id,
		Revision:    s.graph.Revision(),
		Simulating:  s.simulating,
		Components:  []ComponentView{},
		Connections: []ConnectionView{},
	}
	for _, c := range s.graph.Components() {
		snap.Components = append(snap.Components, *componentView(s.graph, c))
	}
	for _, c := range s.graph.Connections() {
		snap.Connections = append(snap.Connections, *connectionView(c))
	}
	return snap
}

// Lint reports likely wiring mistakes in the session circuit.
func (m *Manager) Lint(ctx context.Context, id string) ([]validator.Issue, error) {
	var issues []validator.Issue
	err := m.view(ctx, id, func(s *live) error {
		issues = validator.Lint(s.graph)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []validator.Issue{}
	}
	return issues, nil
}

// Diagram renders the session circuit as a Mermaid flowchart colored by the
// current signal levels.
func (m *Manager) Diagram(ctx context.Context, id string) (string, error) {
	var out string
	err := m.view(ctx, id, func(s *live) error {
		out = graph.GenerateMermaid(s.graph, &graph.Overlay{States: true})
		return nil
	})
	return out, err
}
