package model

import "encoding/json"

const (
	EdgeTypeCommunication = "communication"
	EdgeTypeTransaction   = "transaction"
)

// Edge is a relationship between two nodes of a case graph.
type Edge struct {
	ID     string
	Source string
	Target string
	Weight float64
	Type   string
}

type edgeWire struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight Number `json:"weight"`
	Type   string `json:"type,omitempty"`
	// Label carries the edge type in payloads produced by the case backend.
	Label string `json:"label,omitempty"`
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	var w edgeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	typ := w.Type
	if typ == "" {
		typ = w.Label
	}
	*e = Edge{
		ID:     w.ID,
		Source: w.Source,
		Target: w.Target,
		Weight: float64(w.Weight),
		Type:   typ,
	}
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(edgeWire{
		ID:     e.ID,
		Source: e.Source,
		Target: e.Target,
		Weight: Number(e.Weight),
		Type:   e.Type,
	})
}

// RawGraph is the unfiltered payload supplied by a graph data source.
type RawGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
