// Package validator reports wiring mistakes in a circuit. A circuit with
// issues still simulates; the issues only point at likely mistakes.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/circuit"
)

// Issue is a single finding about a component.
type Issue struct {
	Component string `json:"component"`
	Kind      string `json:"type"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.Component, i.Message)
}

// Lint checks for floating input pins, outputs that drive nothing and
// components no primary input can reach. Issues follow evaluation order.
func Lint(g *circuit.Graph) []Issue {
	comps := g.Components()

	// Crawl from the primary inputs along the wires.
	visited := make(map[string]bool, len(comps))
	var queue []string
	for _, c := range g.PrimaryInputs() {
		queue = append(queue, c.ID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, conn := range g.Outgoing(id) {
			if !visited[conn.To] {
				queue = append(queue, conn.To)
			}
		}
	}

	var issues []Issue
	add := func(id, kind, format string, args ...any) {
		issues = append(issues, Issue{Component: id, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}
	for _, c := range comps {
		fed := make([]bool, c.Kind.Inputs)
		for _, conn := range g.Incoming(c.ID) {
			if conn.ToInput >= 0 && conn.ToInput < len(fed) {
				fed[conn.ToInput] = true
			}
		}
		for pin, ok := range fed {
			if !ok {
				add(c.ID, c.Kind.Name, "input %d is not connected and reads low", pin)
			}
		}
		if c.Kind.Outputs > 0 && len(g.Outgoing(c.ID)) == 0 {
			add(c.ID, c.Kind.Name, "drives nothing")
		}
		if !c.Kind.IsPrimaryInput() && !visited[c.ID] {
			add(c.ID, c.Kind.Name, "is not reachable from any input")
		}
	}
	return issues
}

// ValidateGraph returns an error listing every issue Lint finds.
func ValidateGraph(g *circuit.Graph) error {
	issues := Lint(g)
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.String()
	}
	return fmt.Errorf("found %d issues:\n- %s", len(issues), strings.Join(lines, "\n- "))
}
