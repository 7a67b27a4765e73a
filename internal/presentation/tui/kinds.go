package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard/pkg/domain"
)

// KindsMarkdown lists component kinds as a markdown table.
func KindsMarkdown(kinds []*domain.Kind) string {
	var sb strings.Builder
	sb.WriteString("## Component kinds\n\n")
	sb.WriteString("| Name | Inputs | Outputs | Interaction | Display |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, k := range kinds {
		display := string(k.Display)
		if display == "" {
			display = "-"
		}
		name := k.Name
		if k.Custom() {
			name += " (custom)"
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %s | %s |\n", name, k.Inputs, k.Outputs, k.Interaction, display)
	}
	return sb.String()
}
