// Package risk maps centrality and weight scalars onto discrete tiers.
//
// Every threshold is exclusive on its lower bound: a value sitting exactly
// on a boundary falls into the lower tier.
package risk

import (
	"github.com/agenthands/casegraph/internal/core/model"
)

const (
	NodeHighThreshold   = 0.7
	NodeMediumThreshold = 0.4

	EdgeStrongThreshold = 10
	EdgeMediumThreshold = 5
)

type NodeClass struct {
	Tier     model.RiskTier
	IsHigh   bool
	IsMedium bool
}

type EdgeClass struct {
	Strength model.EdgeStrength
	IsStrong bool
	IsMedium bool
}

// ClassifyNode tiers a node by centrality. NaN and infinities count as 0.
func ClassifyNode(centrality float64) NodeClass {
	c := model.Finite(centrality)
	switch {
	case c > NodeHighThreshold:
		return NodeClass{Tier: model.RiskHigh, IsHigh: true}
	case c > NodeMediumThreshold:
		return NodeClass{Tier: model.RiskMedium, IsMedium: true}
	default:
		return NodeClass{Tier: model.RiskLow}
	}
}

// ClassifyEdge tiers an edge by weight. NaN and infinities count as 0.
func ClassifyEdge(weight float64) EdgeClass {
	w := model.Finite(weight)
	switch {
	case w > EdgeStrongThreshold:
		return EdgeClass{Strength: model.StrengthStrong, IsStrong: true}
	case w > EdgeMediumThreshold:
		return EdgeClass{Strength: model.StrengthMedium, IsMedium: true}
	default:
		return EdgeClass{Strength: model.StrengthWeak}
	}
}

// ConnectionCount counts the edges touching nodeID. A self-loop counts once.
func ConnectionCount(nodeID string, edges []model.Edge) int {
	count := 0
	for _, e := range edges {
		if e.Source == nodeID || e.Target == nodeID {
			count++
		}
	}
	return count
}

// ConnectionCounts computes ConnectionCount for every endpoint in one pass.
func ConnectionCounts(edges []model.Edge) map[string]int {
	counts := make(map[string]int)
	for _, e := range edges {
		counts[e.Source]++
		if e.Target != e.Source {
			counts[e.Target]++
		}
	}
	return counts
}
