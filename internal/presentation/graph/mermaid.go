// Package graph renders circuits as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/domain"
)

// Overlay selects the dynamic data drawn on top of the structure.
type Overlay struct {
	// States colors each component by its latched signal.
	States bool
}

// GenerateMermaid produces a Mermaid flowchart for the circuit, left to right.
// Shapes follow the role of the kind:
//   - primary inputs: ([Stadium])
//   - sinks: ((Circle))
//   - custom blocks: [[Subroutine]]
//   - other gates: [Rectangle]
func GenerateMermaid(g *circuit.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	comps := g.Components()
	for _, c := range comps {
		opener, closer := "[", "]"
		switch {
		case c.Kind.IsPrimaryInput():
			opener, closer = "([", "])"
		case c.Kind.IsSink():
			opener, closer = "((", "))"
		case c.Kind.Custom():
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(c.ID), opener, label(c), closer)
	}

	for _, conn := range g.Connections() {
		arrow := "-->"
		if pins := pinLabel(g, conn); pins != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", pins)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(conn.From), arrow, mermaidID(conn.To))
	}

	if overlay != nil && overlay.States {
		sb.WriteString("\n    %% Signal levels\n")
		// Black text keeps the labels readable on both themes.
		sb.WriteString("    classDef high fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef low fill:#eceff1,stroke:#546e7a,color:#000;\n")
		for _, c := range comps {
			switch c.State {
			case domain.High:
				fmt.Fprintf(&sb, "    class %s high;\n", mermaidID(c.ID))
			case domain.Low:
				fmt.Fprintf(&sb, "    class %s low;\n", mermaidID(c.ID))
			}
		}
	}

	return sb.String()
}

func label(c *domain.Component) string {
	name := strings.ReplaceAll(c.Kind.Name, "\"", "'")
	if c.Key != "" {
		return fmt.Sprintf("%s %s", name, c.Key)
	}
	return name
}

// pinLabel names the pins of a wire when either end has more than one.
func pinLabel(g *circuit.Graph, conn *domain.Connection) string {
	from, ok1 := g.Component(conn.From)
	to, ok2 := g.Component(conn.To)
	if !ok1 || !ok2 || (from.Kind.Outputs <= 1 && to.Kind.Inputs <= 1) {
		return ""
	}
	return fmt.Sprintf("%d:%d", conn.FromOutput, conn.ToInput)
}

func mermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return "c_" + r.Replace(id)
}
