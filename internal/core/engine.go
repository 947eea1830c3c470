package core

import (
	"errors"
	"fmt"

	"github.com/agenthands/casegraph/internal/core/community"
	"github.com/agenthands/casegraph/internal/core/filter"
	"github.com/agenthands/casegraph/internal/core/layout"
	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/core/risk"
	"github.com/agenthands/casegraph/internal/core/stats"
)

var ErrNodeNotFound = errors.New("node not found in snapshot")

// Engine runs filter, classification, layout, clustering and aggregation
// over a raw graph. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	Layout   *layout.Engine
	Detector community.Detector
}

func NewEngine(layoutEngine *layout.Engine, detector community.Detector) *Engine {
	if layoutEngine == nil {
		layoutEngine = layout.New(layout.DefaultConfig())
	}
	if detector == nil {
		detector = community.NewLabelPropagationDetector()
	}
	return &Engine{
		Layout:   layoutEngine,
		Detector: detector,
	}
}

// Compute builds a snapshot from raw. The result carries no id, case, sequence
// or timestamp; those belong to whoever installs it. Compute never fails: bad
// scalars were already coerced to zero and bad references are dropped.
func (e *Engine) Compute(raw model.RawGraph, cfg model.FilterConfig) *model.Snapshot {
	cfg = cfg.Normalized()

	res := filter.Apply(raw.Nodes, raw.Edges, cfg)
	connections := risk.ConnectionCounts(res.Edges)
	positions := e.Layout.Compute(res.Nodes)
	labels := e.Detector.Labels(res.Nodes, res.Edges)

	nodes := make([]model.SnapshotNode, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		class := risk.ClassifyNode(n.Centrality)
		label := labels[n.ID]
		if label == "" {
			label = n.ID
		}
		nodes = append(nodes, model.SnapshotNode{
			ID:          n.ID,
			Label:       n.Label,
			Type:        n.Type,
			Centrality:  model.Finite(n.Centrality),
			Tier:        class.Tier,
			IsHigh:      class.IsHigh,
			IsMedium:    class.IsMedium,
			Connections: connections[n.ID],
			Position:    positions[n.ID],
			Fixed:       n.Position != nil,
			Community:   label,
		})
	}

	edges := make([]model.SnapshotEdge, 0, len(res.Edges))
	for _, ed := range res.Edges {
		class := risk.ClassifyEdge(ed.Weight)
		edges = append(edges, model.SnapshotEdge{
			ID:       ed.ID,
			Source:   ed.Source,
			Target:   ed.Target,
			Weight:   ed.Weight,
			Type:     ed.Type,
			Strength: class.Strength,
			IsStrong: class.IsStrong,
			IsMedium: class.IsMedium,
		})
	}

	summary := stats.Aggregate(res.Nodes, res.Edges)
	summary.CommunityCount = community.Count(labels)

	return &model.Snapshot{
		Filter:      cfg,
		Nodes:       nodes,
		Edges:       edges,
		Stats:       summary,
		Diagnostics: res.Diagnostics,
	}
}

// DescribeNode answers a selection query against snap.
func DescribeNode(snap *model.Snapshot, nodeID string) (model.NodeDetail, error) {
	n, ok := snap.Node(nodeID)
	if !ok {
		return model.NodeDetail{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return model.NodeDetail{
		ID:          n.ID,
		Label:       n.Label,
		Centrality:  n.Centrality,
		Connections: n.Connections,
		Tier:        n.Tier,
		RiskPercent: n.Centrality * 100,
	}, nil
}
