// Package stats summarises a filtered graph.
package stats

import (
	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/core/risk"
)

// Aggregate counts nodes, edges and risk tiers in a single pass over each
// slice. CommunityCount is left at zero; it is filled in by the caller that
// ran clustering.
func Aggregate(nodes []model.Node, edges []model.Edge) model.Stats {
	s := model.Stats{
		TotalNodes: len(nodes),
		TotalEdges: len(edges),
	}
	for _, n := range nodes {
		c := risk.ClassifyNode(n.Centrality)
		if c.IsHigh {
			s.HighRiskCount++
		}
		if c.IsMedium {
			s.MediumRiskCount++
		}
	}
	for _, e := range edges {
		if risk.ClassifyEdge(e.Weight).IsStrong {
			s.StrongEdgeCount++
		}
	}
	return s
}
