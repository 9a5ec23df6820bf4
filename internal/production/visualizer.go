package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/pjaxnav/internal/primitives"
)

// DefaultVisualizer renders the navigation ledger.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the ledger: one node per
// distinct URL, one edge per navigation labelled with its origin. The URL of
// the last entry is highlighted.
func (v *DefaultVisualizer) ExportDOT(entries []primitives.Entry) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Navigation {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	current := ""
	if len(entries) > 0 {
		current = entries[len(entries)-1].URL
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		label := e.URL
		if e.Namespace != "" {
			label = fmt.Sprintf(`%s\n(%s)`, e.URL, e.Namespace)
		}
		style := ""
		if e.URL == current {
			style = ` style=filled fillcolor=lightgreen`
		}
		buf.WriteString(fmt.Sprintf("  %q [label=\"%s\"%s];\n", e.URL, label, style))
	}

	for _, edge := range collectEdges(entries) {
		buf.WriteString(fmt.Sprintf("  %q -> %q [label=\"%d: %s\"];\n", edge.From, edge.To, edge.Step, edge.Label))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the ledger.
func (v *DefaultVisualizer) ExportJSON(entries []primitives.Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

// Edge is one navigation between two ledger URLs.
type Edge struct {
	From  string
	To    string
	Step  int
	Label string
}

func collectEdges(entries []primitives.Entry) []Edge {
	var edges []Edge
	for i := 1; i < len(entries); i++ {
		edges = append(edges, Edge{
			From:  entries[i-1].URL,
			To:    entries[i].URL,
			Step:  i,
			Label: entries[i].Origin.String(),
		})
	}
	return edges
}
