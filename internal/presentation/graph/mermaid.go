package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
	pgraph "github.com/aretw0/pathway/pkg/graph"
)

// GraphOverlay contains playback state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	OpenOverlay  string
}

// OverlayFromCursor builds a GraphOverlay from a learner cursor.
func OverlayFromCursor(c *domain.Cursor) *GraphOverlay {
	if c == nil {
		return nil
	}
	return &GraphOverlay{
		VisitedNodes: c.History,
		CurrentNode:  c.CurrentNodeID,
		OpenOverlay:  c.OverlayNodeID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of a module. Routing is read from node
// data, so the chart matches playback even if stored edges are stale.
// Shapes:
// - Start node: ((Circle))
// - Router: {Rhombus}, overlay router: {{Hexagon}}
// - Question nodes: [/Parallelogram/]
// - Video: [[Subroutine]]
// - Default: [Rectangle]
func GenerateMermaid(m *domain.Module, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if m == nil {
		return sb.String()
	}

	for i, node := range m.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case node.IsOverlayRouter():
			opener, closer = "{{", "}}"
		case node.IsRouter():
			opener, closer = "{", "}"
		case node.Type.Interactive():
			opener, closer = "[/", "/]"
		case node.Type == domain.NodeTypeVideo:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label(node)), closer)

		if node.IsRouter() {
			for _, c := range node.Data.Choices {
				if c.NextNodeID == "" {
					continue
				}
				text := escapeLabel(c.Text)
				arrow := fmt.Sprintf("-- \"%s\" -->", text)
				if opensOverlay(m.Nodes, c.NextNodeID) {
					arrow = fmt.Sprintf("-. \"%s\" .->", text)
				}
				fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(c.NextNodeID))
			}
			continue
		}
		if next := node.Data.NextNodeID; next != "" {
			arrow := "-->"
			if opensOverlay(m.Nodes, next) {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(next))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef open fill:#f3e5f5,stroke:#6a1b9a,stroke-width:4px,stroke-dasharray:5 5,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
		if overlay.OpenOverlay != "" {
			fmt.Fprintf(&sb, "    class %s open;\n", sanitizeMermaidID(overlay.OpenOverlay))
		}
	}

	return sb.String()
}

func label(n domain.Node) string {
	text := n.Prompt()
	if text == "" {
		return n.ID
	}
	return n.ID + ": " + text
}

// opensOverlay reports whether target is an overlay router. Arrows into overlays are
// drawn dotted since they open above the current node.
func opensOverlay(nodes []domain.Node, target string) bool {
	n := pgraph.FindNodeByID(nodes, target)
	return n != nil && n.IsOverlayRouter()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
