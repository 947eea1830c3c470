package driver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/casegraph/internal/core/model"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	logger *log.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger *log.Logger) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("memgraph unreachable at %s: %w", uri, err)
	}

	logger.Info("connected to memgraph", "uri", uri)
	return &MemgraphDriver{Driver: driver, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) ExecuteWrite(ctx context.Context, statements []Statement) error {
	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range statements {
			res, err := tx.Run(ctx, st.Query, st.Params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to execute write transaction: %w", err)
	}
	return nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Entity(case_id);",
		"CREATE INDEX ON :Entity(id);",
	}

	for _, q := range queries {
		_, err := d.ExecuteQuery(ctx, q, nil)
		if err != nil {
			// Memgraph rejects duplicate index creation; treat it as a warning.
			d.logger.Warn("failed to create index", "query", q, "err", err)
		}
	}

	return nil
}

// MemgraphSource reads case graphs stored as :Entity nodes joined by
// :RELATES_TO relationships.
type MemgraphSource struct {
	Driver GraphDriver
}

func NewMemgraphSource(driver GraphDriver) *MemgraphSource {
	return &MemgraphSource{Driver: driver}
}

func (s *MemgraphSource) Name() string { return "memgraph" }

func (s *MemgraphSource) FetchGraph(ctx context.Context, caseID string, hint model.FilterConfig) (model.RawGraph, error) {
	hint = hint.Normalized()

	nodeRes, err := s.Driver.ExecuteQuery(ctx, FetchCaseNodesQuery, map[string]interface{}{
		"case_id": caseID,
	})
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("fetch nodes for case %s: %w", caseID, err)
	}

	edgeRes, err := s.Driver.ExecuteQuery(ctx, FetchCaseEdgesQuery, map[string]interface{}{
		"case_id":    caseID,
		"min_weight": hint.MinWeight,
		"edge_type":  hint.EdgeType,
	})
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("fetch edges for case %s: %w", caseID, err)
	}

	graph := model.RawGraph{
		Nodes: make([]model.Node, 0, len(nodeRes.Records)),
		Edges: make([]model.Edge, 0, len(edgeRes.Records)),
	}
	for _, rec := range nodeRes.Records {
		graph.Nodes = append(graph.Nodes, nodeFromRecord(rec))
	}
	for _, rec := range edgeRes.Records {
		graph.Edges = append(graph.Edges, edgeFromRecord(rec))
	}
	return graph, nil
}

func (s *MemgraphSource) SaveGraph(ctx context.Context, caseID string, graph model.RawGraph) error {
	nodes := make([]map[string]interface{}, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		var x, y interface{}
		if n.Position != nil {
			x, y = n.Position.X, n.Position.Y
		}
		nodes = append(nodes, map[string]interface{}{
			"id":         n.ID,
			"label":      n.Label,
			"type":       n.Type,
			"centrality": model.Finite(n.Centrality),
			"x":          x,
			"y":          y,
		})
	}
	edges := make([]map[string]interface{}, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		edges = append(edges, map[string]interface{}{
			"id":     e.ID,
			"source": e.Source,
			"target": e.Target,
			"weight": model.Finite(e.Weight),
			"type":   e.Type,
		})
	}

	err := s.Driver.ExecuteWrite(ctx, []Statement{
		{Query: DeleteCaseGraphQuery, Params: map[string]interface{}{"case_id": caseID}},
		{Query: SaveCaseNodesQuery, Params: map[string]interface{}{"case_id": caseID, "nodes": nodes}},
		{Query: SaveCaseEdgesQuery, Params: map[string]interface{}{"case_id": caseID, "edges": edges}},
	})
	if err != nil {
		return fmt.Errorf("save graph for case %s: %w", caseID, err)
	}
	return nil
}

func nodeFromRecord(rec *neo4j.Record) model.Node {
	id, _ := rec.Get("id")
	label, _ := rec.Get("label")
	typ, _ := rec.Get("type")
	centrality, _ := rec.Get("centrality")
	x, _ := rec.Get("x")
	y, _ := rec.Get("y")

	c, _ := model.ToFloat(centrality)
	return model.Node{
		ID:         stringOf(id),
		Label:      stringOf(label),
		Type:       stringOf(typ),
		Centrality: c,
		Position:   positionOf(x, y),
	}
}

func edgeFromRecord(rec *neo4j.Record) model.Edge {
	id, _ := rec.Get("id")
	source, _ := rec.Get("source")
	target, _ := rec.Get("target")
	weight, _ := rec.Get("weight")
	typ, _ := rec.Get("type")

	w, _ := model.ToFloat(weight)
	return model.Edge{
		ID:     stringOf(id),
		Source: stringOf(source),
		Target: stringOf(target),
		Weight: w,
		Type:   stringOf(typ),
	}
}
