package model

import "encoding/json"

// Position is a 2-D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is an entity in a case graph. Centrality is supplied upstream and
// treated as an opaque importance score.
type Node struct {
	ID         string
	Label      string
	Type       string
	Centrality float64
	// Position is set only when the source supplied both coordinates.
	Position *Position
}

type nodeWire struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Type       string         `json:"type,omitempty"`
	Centrality Number         `json:"centrality"`
	X          OptionalNumber `json:"x"`
	Y          OptionalNumber `json:"y"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Node{
		ID:         w.ID,
		Label:      w.Label,
		Type:       w.Type,
		Centrality: float64(w.Centrality),
	}
	if w.X.Valid && w.Y.Valid {
		n.Position = &Position{X: w.X.Value, Y: w.Y.Value}
	}
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	w := nodeWire{ID: n.ID, Label: n.Label, Type: n.Type, Centrality: Number(n.Centrality)}
	if n.Position != nil {
		w.X = OptionalNumber{Value: n.Position.X, Valid: true}
		w.Y = OptionalNumber{Value: n.Position.Y, Valid: true}
	}
	return json.Marshal(w)
}
