package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/concierge/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	// Collected marks filled fields. Values are never rendered.
	Collected map[string]string
	Cursor    string
}

// startID and doneID are the synthetic entry and exit nodes.
const (
	startID = "__start"
	doneID  = "__done"
)

// GenerateMermaid produces a Mermaid flowchart of the order in which a form
// asks for its fields. It applies semantic styling:
// - Trigger entry and document exit: ((Circle))
// - Select and boolean: {Rhombus}
// - Date: [/Parallelogram/]
// - Default: [Rectangle]
// Optional fields hang off the chain with dotted edges: they are never asked.
func GenerateMermaid(form domain.FormDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := "start"
	if len(form.Triggers) > 0 {
		entry = strings.ReplaceAll(form.Triggers[0], "\"", "'")
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", startID, entry)

	prev := startID
	for _, field := range form.Fields {
		safeID := sanitizeMermaidID(field.ID)

		opener, closer := "[", "]"
		switch field.Type {
		case domain.FieldSelect, domain.FieldBoolean:
			opener, closer = "{", "}"
		case domain.FieldDate:
			opener, closer = "[/", "/]"
		}
		label := strings.ReplaceAll(field.Label, "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, label, field.Type, closer)

		if !field.Required {
			fmt.Fprintf(&sb, "    %s -. opcional .-> %s\n", prev, safeID)
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, safeID)
		prev = safeID
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", doneID, strings.ReplaceAll(form.Name, "\"", "'"))
	fmt.Fprintf(&sb, "    %s --> %s\n", prev, doneID)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, field := range form.Fields {
			if _, ok := overlay.Collected[field.ID]; ok {
				fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(field.ID))
			}
		}

		switch overlay.Cursor {
		case "":
		case domain.CursorComplete:
			fmt.Fprintf(&sb, "    class %s current;\n", doneID)
		default:
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Cursor))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
