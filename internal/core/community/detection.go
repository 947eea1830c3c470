package community

import (
	"fmt"

	"github.com/agenthands/casegraph/internal/core/model"
)

const (
	AlgorithmLabelPropagation = "lpa"
	AlgorithmComponents       = "components"
)

// Detector assigns every node a community label. Nodes that share a label
// belong to the same community; a node alone in its community keeps its own
// id as label.
type Detector interface {
	Labels(nodes []model.Node, edges []model.Edge) map[string]string
}

// NewDetector returns the detector registered under name. An empty name
// selects label propagation.
func NewDetector(name string, maxIterations int) (Detector, error) {
	switch name {
	case "", AlgorithmLabelPropagation:
		d := NewLabelPropagationDetector()
		if maxIterations > 0 {
			d.MaxIterations = maxIterations
		}
		return d, nil
	case AlgorithmComponents:
		return NewComponentDetector(), nil
	default:
		return nil, fmt.Errorf("unknown community algorithm %q", name)
	}
}

// Group turns a label assignment into communities of two or more nodes.
// Communities are ordered by the position of their first member in nodes, and
// members keep their input order.
func Group(nodes []model.Node, labels map[string]string) [][]model.Node {
	index := make(map[string]int)
	var groups [][]model.Node
	for _, n := range nodes {
		label, ok := labels[n.ID]
		if !ok {
			continue
		}
		i, seen := index[label]
		if !seen {
			i = len(groups)
			index[label] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], n)
	}

	communities := groups[:0]
	for _, g := range groups {
		if len(g) >= 2 {
			communities = append(communities, g)
		}
	}
	return communities
}

// Count returns the number of labels shared by at least two nodes.
func Count(labels map[string]string) int {
	sizes := make(map[string]int)
	for _, label := range labels {
		sizes[label]++
	}
	count := 0
	for _, size := range sizes {
		if size >= 2 {
			count++
		}
	}
	return count
}

// ComponentDetector labels each connected component with the id of its first
// node in input order.
type ComponentDetector struct{}

func NewComponentDetector() *ComponentDetector {
	return &ComponentDetector{}
}

func (d *ComponentDetector) Labels(nodes []model.Node, edges []model.Edge) map[string]string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	adj := make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] || e.Source == e.Target {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, done := labels[n.ID]; !done {
			d.dfs(n.ID, n.ID, adj, labels)
		}
	}
	return labels
}

func (d *ComponentDetector) dfs(u, root string, adj map[string][]string, labels map[string]string) {
	labels[u] = root
	for _, v := range adj[u] {
		if _, done := labels[v]; !done {
			d.dfs(v, root, adj, labels)
		}
	}
}
