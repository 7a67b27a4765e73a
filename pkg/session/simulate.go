package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/domain"
)

// StartSimulation turns the simulation on and propagates once.
func (m *Manager) StartSimulation(ctx context.Context, id string) (*Snapshot, error) {
	var snap *Snapshot
	err := m.edit(ctx, id, func(s *live) error {
		s.simulating = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = m.view(ctx, id, func(s *live) error {
		snap = snapshot(s)
		return nil
	})
	return snap, err
}

// StopSimulation turns the simulation off. Latched states are kept.
func (m *Manager) StopSimulation(ctx context.Context, id string) error {
	return m.view(ctx, id, func(s *live) error {
		s.simulating = false
		return nil
	})
}

// running is edit for interactive operations: they need the simulation on.
func (m *Manager) running(ctx context.Context, id string, fn func(*live) error) error {
	return m.edit(ctx, id, func(s *live) error {
		if !s.simulating {
			return domain.ErrNotSimulating
		}
		return fn(s)
	})
}

// Activate flips a toggle component such as a button.
func (m *Manager) Activate(ctx context.Context, id, componentID string) (*ComponentView, error) {
	var view *ComponentView
	err := m.running(ctx, id, func(s *live) error {
		c, ok := s.graph.Component(componentID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrComponentNotFound, componentID)
		}
		if c.Kind.Interaction != domain.InteractionToggle {
			return fmt.Errorf("%w: %s cannot be activated", domain.ErrValidation, c.Kind.Name)
		}
		c.State = domain.Level(!c.State.Bool())
		view = componentView(s.graph, c)
		return nil
	})
	return view, err
}

// KeyDown drives every momentary component bound to key high.
func (m *Manager) KeyDown(ctx context.Context, id, key string) (int, error) {
	return m.press(ctx, id, key, domain.High)
}

// KeyUp releases every momentary component bound to key.
func (m *Manager) KeyUp(ctx context.Context, id, key string) (int, error) {
	return m.press(ctx, id, key, domain.Low)
}

// press sets the level of the momentary components bound to key, compared
// case-insensitively, and returns how many matched.
func (m *Manager) press(ctx context.Context, id, key string, level domain.Signal) (int, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, fmt.Errorf("%w: key cannot be empty", domain.ErrValidation)
	}
	matched := 0
	err := m.running(ctx, id, func(s *live) error {
		for _, c := range s.graph.Components() {
			if c.Kind.Interaction == domain.InteractionMomentary && strings.EqualFold(c.Key, key) {
				c.State = level
				matched++
			}
		}
		return nil
	})
	return matched, err
}
