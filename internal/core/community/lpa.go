package community

import (
	"sort"

	"github.com/agenthands/casegraph/internal/core/model"
)

// LabelPropagationDetector clusters nodes with weighted label propagation.
// Nodes are visited in input order and neighbours in id order, so the same
// input always yields the same labels.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

type neighbour struct {
	id       string
	affinity float64
}

func (d *LabelPropagationDetector) Labels(nodes []model.Node, edges []model.Edge) map[string]string {
	labels := make(map[string]string, len(nodes))
	if len(nodes) == 0 {
		return labels
	}

	// Parallel edges add up. Heavier edges pull harder; a zero-weight edge
	// still links its endpoints.
	weights := make(map[string]map[string]float64, len(nodes))
	for _, n := range nodes {
		weights[n.ID] = make(map[string]float64)
		labels[n.ID] = n.ID
	}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		src, ok := weights[e.Source]
		if !ok {
			continue
		}
		tgt, ok := weights[e.Target]
		if !ok {
			continue
		}
		affinity := 1 + max(model.Finite(e.Weight), 0)
		src[e.Target] += affinity
		tgt[e.Source] += affinity
	}

	adj := make(map[string][]neighbour, len(weights))
	for id, ns := range weights {
		list := make([]neighbour, 0, len(ns))
		for v, w := range ns {
			list = append(list, neighbour{id: v, affinity: w})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].id < list[j].id })
		adj[id] = list
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changeCount := 0

		for _, n := range nodes {
			u := n.ID
			neighbours := adj[u]
			if len(neighbours) == 0 {
				continue
			}

			scores := make(map[string]float64)
			best := 0.0
			for _, v := range neighbours {
				label := labels[v.id]
				scores[label] += v.affinity
				if scores[label] > best {
					best = scores[label]
				}
			}

			// Ties keep the current label when it is among the leaders,
			// otherwise the lexicographically largest wins.
			if scores[labels[u]] == best {
				continue
			}
			var candidates []string
			for label, score := range scores {
				if score == best {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			next := candidates[len(candidates)-1]

			if labels[u] != next {
				labels[u] = next
				changeCount++
			}
		}

		if changeCount == 0 {
			break
		}
	}

	return labels
}
