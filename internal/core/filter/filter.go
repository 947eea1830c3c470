package filter

import (
	"github.com/agenthands/casegraph/internal/core/model"
)

// Result is the pruned subgraph plus counts of discarded input records.
type Result struct {
	Nodes       []model.Node
	Edges       []model.Edge
	Diagnostics model.Diagnostics
}

// Apply keeps every edge that passes cfg and every node referenced by a kept
// edge. Input order is preserved on both sides so downstream layout stays
// stable across runs. The inputs are never modified.
//
// Edges whose source or target is not in nodes are dropped and counted as
// dangling. Repeated node ids keep their first occurrence.
func Apply(nodes []model.Node, edges []model.Edge, cfg model.FilterConfig) Result {
	cfg = cfg.Normalized()

	var diag model.Diagnostics
	known := make(map[string]struct{}, len(nodes))
	unique := make([]model.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := known[n.ID]; dup {
			diag.DuplicateNodes++
			continue
		}
		known[n.ID] = struct{}{}
		unique = append(unique, n)
	}

	keptEdges := make([]model.Edge, 0)
	connected := make(map[string]struct{})
	for _, e := range edges {
		if !Keep(e, cfg) {
			continue
		}
		_, srcOK := known[e.Source]
		_, tgtOK := known[e.Target]
		if !srcOK || !tgtOK {
			diag.DanglingEdges++
			continue
		}
		e.Weight = model.Finite(e.Weight)
		keptEdges = append(keptEdges, e)
		connected[e.Source] = struct{}{}
		connected[e.Target] = struct{}{}
	}

	keptNodes := make([]model.Node, 0, len(connected))
	for _, n := range unique {
		if _, ok := connected[n.ID]; ok {
			if n.Position != nil {
				p := *n.Position
				n.Position = &p
			}
			keptNodes = append(keptNodes, n)
		}
	}

	return Result{Nodes: keptNodes, Edges: keptEdges, Diagnostics: diag}
}

// Keep reports whether a single edge passes the weight and type thresholds.
// cfg must already be normalized.
func Keep(e model.Edge, cfg model.FilterConfig) bool {
	if model.Finite(e.Weight) < cfg.MinWeight {
		return false
	}
	return cfg.EdgeType == "" || e.Type == cfg.EdgeType
}
