package validation

import (
	"fmt"

	"github.com/flowgraph/flowchart/internal/core/graph"
)

// DataValidationOptions controls optional validation checks.
type DataValidationOptions struct {
	// CheckCycles enables detection of directed cycles among forward edges.
	// Backflow edges are loops by definition and never count.
	CheckCycles bool
}

// ValidateData performs structural validation on a diagram loaded from an
// external source: unique ids, edges with existing endpoints and backflow
// references naming existing nodes.
func ValidateData(d *graph.Data, opts ...DataValidationOptions) error {
	if d == nil {
		return fmt.Errorf("data is nil")
	}
	if err := d.Validate(); err != nil {
		return err
	}

	for _, n := range d.Nodes {
		if n.Reback == nil {
			continue
		}
		if _, ok := d.Node(n.Reback.ID); !ok {
			return fmt.Errorf("node %s reback %s: %w", n.ID, n.Reback.ID, graph.ErrNodeNotFound)
		}
	}

	var cfg DataValidationOptions
	if len(opts) > 0 {
		cfg = opts[0]
	}
	if cfg.CheckCycles && hasCycle(d) {
		return ErrCyclicFlow
	}
	return nil
}

// ErrCyclicFlow is returned when forward edges form a loop.
var ErrCyclicFlow = fmt.Errorf("forward edges form a cycle")

// hasCycle detects any cycle among forward edges using DFS with coloring.
func hasCycle(d *graph.Data) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // visiting
		black = 2 // visited
	)
	color := make(map[string]int, len(d.Nodes))
	adj := make(map[string][]string, len(d.Nodes))
	for _, e := range d.Edges {
		if e.IsReback() {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	var dfs func(string) bool
	dfs = func(u string) bool {
		color[u] = gray
		for _, v := range adj[u] {
			if color[v] == gray {
				return true
			}
			if color[v] == white && dfs(v) {
				return true
			}
		}
		color[u] = black
		return false
	}
	for _, n := range d.Nodes {
		if color[n.ID] == white && dfs(n.ID) {
			return true
		}
	}
	return false
}
