package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/agenthands/casegraph/internal/core/model"
)

// MemorySource holds case graphs in process. It ignores the filter hint.
type MemorySource struct {
	mu     sync.RWMutex
	graphs map[string]model.RawGraph
}

func NewMemorySource() *MemorySource {
	return &MemorySource{graphs: make(map[string]model.RawGraph)}
}

// LoadMemorySource reads a JSON object mapping case ids to raw graphs.
func LoadMemorySource(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var graphs map[string]model.RawGraph
	if err := json.Unmarshal(data, &graphs); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	s := NewMemorySource()
	for id, g := range graphs {
		s.graphs[id] = g
	}
	return s, nil
}

func (s *MemorySource) Name() string { return "memory" }

func (s *MemorySource) FetchGraph(ctx context.Context, caseID string, _ model.FilterConfig) (model.RawGraph, error) {
	if err := ctx.Err(); err != nil {
		return model.RawGraph{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.graphs[caseID]
	out := model.RawGraph{
		Nodes: append([]model.Node{}, g.Nodes...),
		Edges: append([]model.Edge{}, g.Edges...),
	}
	return out, nil
}

func (s *MemorySource) SaveGraph(ctx context.Context, caseID string, graph model.RawGraph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[caseID] = model.RawGraph{
		Nodes: append([]model.Node{}, graph.Nodes...),
		Edges: append([]model.Edge{}, graph.Edges...),
	}
	return nil
}
