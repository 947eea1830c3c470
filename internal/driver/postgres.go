package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agenthands/casegraph/internal/core/model"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS graph_nodes (
		id         TEXT PRIMARY KEY,
		case_id    TEXT NOT NULL,
		ord        INTEGER NOT NULL,
		node_id    TEXT NOT NULL,
		label      TEXT,
		node_type  TEXT,
		centrality DOUBLE PRECISION DEFAULT 0,
		x          DOUBLE PRECISION,
		y          DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS graph_edges (
		id        TEXT PRIMARY KEY,
		case_id   TEXT NOT NULL,
		ord       INTEGER NOT NULL,
		edge_id   TEXT NOT NULL,
		source    TEXT NOT NULL,
		target    TEXT NOT NULL,
		edge_type TEXT,
		weight    DOUBLE PRECISION DEFAULT 1
	);

	ALTER TABLE graph_nodes ADD COLUMN IF NOT EXISTS node_type TEXT;

	CREATE INDEX IF NOT EXISTS idx_graph_nodes_case ON graph_nodes(case_id, ord);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_case ON graph_edges(case_id, ord);
`

// PGStore keeps case graphs in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, databaseURL string, maxConns int32) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) Name() string { return "postgres" }

func (s *PGStore) FetchGraph(ctx context.Context, caseID string, hint model.FilterConfig) (model.RawGraph, error) {
	hint = hint.Normalized()
	graph := model.RawGraph{Nodes: []model.Node{}, Edges: []model.Edge{}}

	rows, err := s.pool.Query(ctx, `
		SELECT node_id, label, node_type, centrality, x, y
		FROM graph_nodes
		WHERE case_id = $1
		ORDER BY ord
	`, caseID)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("failed to query nodes for case %s: %w", caseID, err)
	}
	for rows.Next() {
		var (
			id         string
			label      *string
			nodeType   *string
			centrality *float64
			x, y       *float64
		)
		if err := rows.Scan(&id, &label, &nodeType, &centrality, &x, &y); err != nil {
			rows.Close()
			return model.RawGraph{}, fmt.Errorf("failed to scan node: %w", err)
		}
		n := model.Node{ID: id}
		if label != nil {
			n.Label = *label
		}
		if nodeType != nil {
			n.Type = *nodeType
		}
		if centrality != nil {
			n.Centrality = model.Finite(*centrality)
		}
		if x != nil && y != nil {
			n.Position = &model.Position{X: *x, Y: *y}
		}
		graph.Nodes = append(graph.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.RawGraph{}, fmt.Errorf("failed to read nodes: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT edge_id, source, target, COALESCE(weight, 0), COALESCE(edge_type, '')
		FROM graph_edges
		WHERE case_id = $1
			AND COALESCE(weight, 0) >= $2
			AND ($3 = '' OR edge_type = $3)
		ORDER BY ord
	`, caseID, hint.MinWeight, hint.EdgeType)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("failed to query edges for case %s: %w", caseID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Weight, &e.Type); err != nil {
			return model.RawGraph{}, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Weight = model.Finite(e.Weight)
		graph.Edges = append(graph.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return model.RawGraph{}, fmt.Errorf("failed to read edges: %w", err)
	}
	return graph, nil
}

func (s *PGStore) SaveGraph(ctx context.Context, caseID string, graph model.RawGraph) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM graph_edges WHERE case_id = $1", caseID)
	batch.Queue("DELETE FROM graph_nodes WHERE case_id = $1", caseID)
	for i, n := range graph.Nodes {
		var x, y *float64
		if n.Position != nil {
			px, py := n.Position.X, n.Position.Y
			x, y = &px, &py
		}
		batch.Queue(`
			INSERT INTO graph_nodes (id, case_id, ord, node_id, label, node_type, centrality, x, y)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.New().String(), caseID, i, n.ID, n.Label, n.Type, model.Finite(n.Centrality), x, y)
	}
	for i, e := range graph.Edges {
		batch.Queue(`
			INSERT INTO graph_edges (id, case_id, ord, edge_id, source, target, edge_type, weight)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), caseID, i, e.ID, e.Source, e.Target, e.Type, model.Finite(e.Weight))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save graph for case %s: %w", caseID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit graph for case %s: %w", caseID, err)
	}
	return nil
}
