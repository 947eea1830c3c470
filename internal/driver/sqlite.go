package driver

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agenthands/casegraph/internal/core/model"
)

type migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "case graph tables",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS graph_nodes (
				id         TEXT PRIMARY KEY,
				case_id    TEXT NOT NULL,
				node_id    TEXT NOT NULL,
				node_type  TEXT,
				label      TEXT,
				centrality REAL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS graph_edges (
				id        TEXT PRIMARY KEY,
				case_id   TEXT NOT NULL,
				edge_id   TEXT NOT NULL,
				source    TEXT NOT NULL,
				target    TEXT NOT NULL,
				edge_type TEXT,
				weight    REAL DEFAULT 1
			)`,
			`CREATE INDEX IF NOT EXISTS idx_graph_nodes_case ON graph_nodes(case_id)`,
			`CREATE INDEX IF NOT EXISTS idx_graph_edges_case ON graph_edges(case_id)`,
		},
	},
	{
		Version:     2,
		Description: "fixed node coordinates",
		Statements: []string{
			`ALTER TABLE graph_nodes ADD COLUMN x REAL`,
			`ALTER TABLE graph_nodes ADD COLUMN y REAL`,
		},
	},
}

// SQLiteStore keeps case graphs in the graph_nodes/graph_edges tables.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at path and applies pending
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db %q: %w", path, err)
	}

	// Only one writer at a time for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: set pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) migrate() error {
	return applyMigrations(context.Background(), s.db, migrations)
}

// applyMigrations runs every migration not yet recorded in schema_migrations.
// A migration's statements and its version row commit together.
func applyMigrations(ctx context.Context, db *sql.DB, list []migration) error {
	const createMigTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := db.ExecContext(ctx, createMigTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range list {
		var exists int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration v%d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration v%d: %w", m.Version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Description, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
		m.Version, m.Description,
	); err != nil {
		return fmt.Errorf("record migration v%d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// FetchGraph returns the case graph in insertion order. The hint is applied to
// the edge query; nodes are always returned in full.
func (s *SQLiteStore) FetchGraph(ctx context.Context, caseID string, hint model.FilterConfig) (model.RawGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hint = hint.Normalized()
	graph := model.RawGraph{Nodes: []model.Node{}, Edges: []model.Edge{}}

	const nodesQ = `SELECT node_id, label, node_type, centrality, x, y
		FROM graph_nodes WHERE case_id = ? ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, nodesQ, caseID)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("sqlite: query nodes for case %s: %w", caseID, err)
	}
	for rows.Next() {
		var (
			id         string
			label      sql.NullString
			nodeType   sql.NullString
			centrality sql.NullFloat64
			x, y       sql.NullFloat64
		)
		if err := rows.Scan(&id, &label, &nodeType, &centrality, &x, &y); err != nil {
			rows.Close()
			return model.RawGraph{}, fmt.Errorf("sqlite: scan node: %w", err)
		}
		n := model.Node{ID: id, Label: label.String, Type: nodeType.String, Centrality: model.Finite(centrality.Float64)}
		if x.Valid && y.Valid {
			n.Position = &model.Position{X: x.Float64, Y: y.Float64}
		}
		graph.Nodes = append(graph.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return model.RawGraph{}, fmt.Errorf("sqlite: iterate nodes: %w", err)
	}
	rows.Close()

	const edgesQ = `SELECT edge_id, source, target, weight, edge_type
		FROM graph_edges
		WHERE case_id = ?
			AND COALESCE(weight, 0) >= ?
			AND (? = '' OR edge_type = ?)
		ORDER BY rowid`
	rows, err = s.db.QueryContext(ctx, edgesQ, caseID, hint.MinWeight, hint.EdgeType, hint.EdgeType)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("sqlite: query edges for case %s: %w", caseID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e      model.Edge
			weight sql.NullFloat64
			typ    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &weight, &typ); err != nil {
			return model.RawGraph{}, fmt.Errorf("sqlite: scan edge: %w", err)
		}
		e.Weight = model.Finite(weight.Float64)
		e.Type = typ.String
		graph.Edges = append(graph.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return model.RawGraph{}, fmt.Errorf("sqlite: iterate edges: %w", err)
	}
	return graph, nil
}

// SaveGraph replaces the stored graph of caseID inside one transaction.
func (s *SQLiteStore) SaveGraph(ctx context.Context, caseID string, graph model.RawGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx (save graph): %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		"DELETE FROM graph_edges WHERE case_id = ?",
		"DELETE FROM graph_nodes WHERE case_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, caseID); err != nil {
			return fmt.Errorf("sqlite: clear case %s: %w", caseID, err)
		}
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_nodes
		(id, case_id, node_id, label, node_type, centrality, x, y) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range graph.Nodes {
		var x, y sql.NullFloat64
		if n.Position != nil {
			x = sql.NullFloat64{Float64: n.Position.X, Valid: true}
			y = sql.NullFloat64{Float64: n.Position.Y, Valid: true}
		}
		if _, err := nodeStmt.ExecContext(ctx,
			uuid.New().String(), caseID, n.ID, n.Label, n.Type, model.Finite(n.Centrality), x, y,
		); err != nil {
			return fmt.Errorf("sqlite: insert node %q: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_edges
		(id, case_id, edge_id, source, target, edge_type, weight) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range graph.Edges {
		if _, err := edgeStmt.ExecContext(ctx,
			uuid.New().String(), caseID, e.ID, e.Source, e.Target, e.Type, model.Finite(e.Weight),
		); err != nil {
			return fmt.Errorf("sqlite: insert edge %q: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit graph for case %s: %w", caseID, err)
	}
	return nil
}
