package driver

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/casegraph/internal/core/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleGraph() model.RawGraph {
	return model.RawGraph{
		Nodes: []model.Node{
			{ID: "n2", Label: "Second", Type: "user", Centrality: 0.5},
			{ID: "n1", Label: "First", Type: "account", Centrality: 0.9, Position: &model.Position{X: 3, Y: 4}},
			{ID: "n3", Label: "Third", Centrality: 0.1},
		},
		Edges: []model.Edge{
			{ID: "e2", Source: "n2", Target: "n1", Weight: 12, Type: model.EdgeTypeTransaction},
			{ID: "e1", Source: "n1", Target: "n3", Weight: 2, Type: model.EdgeTypeCommunication},
		},
	}
}

func TestSQLiteStore_RoundTripKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGraph(ctx, "case-1", sampleGraph()))

	got, err := store.FetchGraph(ctx, "case-1", model.FilterConfig{})
	require.NoError(t, err)

	assert.Equal(t, sampleGraph(), got)
}

func TestSQLiteStore_AppliesHint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGraph(ctx, "case-1", sampleGraph()))

	got, err := store.FetchGraph(ctx, "case-1", model.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "e2", got.Edges[0].ID)
	assert.Len(t, got.Nodes, 3, "nodes are never trimmed by the hint")

	got, err = store.FetchGraph(ctx, "case-1", model.FilterConfig{EdgeType: model.EdgeTypeCommunication})
	require.NoError(t, err)
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "e1", got.Edges[0].ID)
}

func TestSQLiteStore_SaveReplacesCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGraph(ctx, "case-1", sampleGraph()))
	require.NoError(t, store.SaveGraph(ctx, "case-2", sampleGraph()))

	replacement := model.RawGraph{Nodes: []model.Node{{ID: "solo"}}}
	require.NoError(t, store.SaveGraph(ctx, "case-1", replacement))

	got, err := store.FetchGraph(ctx, "case-1", model.FilterConfig{})
	require.NoError(t, err)
	assert.Equal(t, []model.Node{{ID: "solo"}}, got.Nodes)
	assert.Empty(t, got.Edges)

	other, err := store.FetchGraph(ctx, "case-2", model.FilterConfig{})
	require.NoError(t, err)
	assert.Len(t, other.Nodes, 3)
}

func TestSQLiteStore_UnknownCaseIsEmpty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.FetchGraph(context.Background(), "nope", model.DefaultFilter())
	require.NoError(t, err)
	assert.NotNil(t, got.Nodes)
	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)
}

func TestSQLiteStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveGraph(context.Background(), "c", sampleGraph()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.FetchGraph(context.Background(), "c", model.FilterConfig{})
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 3)
}

func TestApplyMigrations_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "mig.db"))
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	broken := []migration{{
		Version:     1,
		Description: "half applied",
		Statements: []string{
			`CREATE TABLE widgets (id TEXT PRIMARY KEY)`,
			`ALTER TABLE widgets ADD COLUMN`,
		},
	}}
	require.Error(t, applyMigrations(ctx, db, broken))

	var tables, versions int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'widgets'`).Scan(&tables))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Zero(t, tables)
	assert.Zero(t, versions)

	fixed := []migration{{
		Version:     1,
		Description: "half applied",
		Statements: []string{
			`CREATE TABLE widgets (id TEXT PRIMARY KEY)`,
			`ALTER TABLE widgets ADD COLUMN size INTEGER`,
		},
	}}
	require.NoError(t, applyMigrations(ctx, db, fixed))
	require.NoError(t, applyMigrations(ctx, db, fixed))

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 1, versions)
}
