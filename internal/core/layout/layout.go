// Package layout places graph nodes on a radial canvas.
package layout

import (
	"math"

	"github.com/agenthands/casegraph/internal/core/model"
)

// Config describes the canvas the layout targets.
type Config struct {
	CenterX float64 `toml:"center_x" validate:"gte=0"`
	CenterY float64 `toml:"center_y" validate:"gte=0"`
	Radius  float64 `toml:"radius" validate:"gt=0"`
}

// DefaultConfig matches an 800x600 canvas.
func DefaultConfig() Config {
	return Config{CenterX: 400, CenterY: 300, Radius: 250}
}

// Engine computes positions. The zero value is not usable; use New.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Radius <= 0 || math.IsNaN(cfg.Radius) || math.IsInf(cfg.Radius, 0) {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Compute returns a position for every node.
//
// A node that already carries a position keeps it and does not occupy a slot.
// The remaining nodes are spaced evenly around the circle in input order, and
// pulled toward the center in proportion to their centrality: a node with
// centrality 1 sits at half the radius, a node with centrality 0 on the rim.
func (e *Engine) Compute(nodes []model.Node) map[string]model.Position {
	positions := make(map[string]model.Position, len(nodes))

	free := 0
	for _, n := range nodes {
		if n.Position == nil {
			free++
		}
	}

	angleStep := 0.0
	if free > 0 {
		angleStep = 2 * math.Pi / float64(free)
	}

	slot := 0
	for _, n := range nodes {
		if n.Position != nil {
			positions[n.ID] = *n.Position
			continue
		}
		angle := float64(slot) * angleStep
		r := e.cfg.Radius * (1 - model.Finite(n.Centrality)*0.5)
		positions[n.ID] = model.Position{
			X: e.cfg.CenterX + r*math.Cos(angle),
			Y: e.cfg.CenterY + r*math.Sin(angle),
		}
		slot++
	}

	return positions
}
