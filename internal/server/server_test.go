package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/core/view"
	"github.com/agenthands/casegraph/internal/driver"
	"github.com/agenthands/casegraph/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const caseGraphJSON = `{
	"nodes": [
		{"id": "n1", "label": "Shell Co", "centrality": 0.1},
		{"id": "n2", "label": "Broker", "centrality": 0.5},
		{"id": "n3", "label": "Kingpin", "centrality": 0.9}
	],
	"edges": [
		{"id": "e1", "source": "n1", "target": "n2", "weight": 2, "type": "Communication"},
		{"id": "e2", "source": "n2", "target": "n3", "weight": 12, "type": "Transaction"},
		{"id": "e3", "source": "n3", "target": "ghost", "weight": 20, "type": "Transaction"}
	]
}`

type readOnlySource struct{ err error }

func (s readOnlySource) Name() string { return "readonly" }
func (s readOnlySource) FetchGraph(context.Context, string, model.FilterConfig) (model.RawGraph, error) {
	return model.RawGraph{}, s.err
}

type panickingSource struct{ readOnlySource }

func (panickingSource) Name() string { panic("source unavailable") }

func newTestServer(t *testing.T, src driver.Source, rps float64) (*gin.Engine, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	srv := NewServer(Options{
		Views:             view.NewManager(src, nil, reg, nil),
		Metrics:           reg,
		RequestsPerSecond: rps,
		Burst:             1,
	})
	return srv.SetupRouter(), reg
}

func seededRouter(t *testing.T) *gin.Engine {
	t.Helper()
	src := driver.NewMemorySource()
	var graph model.RawGraph
	require.NoError(t, json.Unmarshal([]byte(caseGraphJSON), &graph))
	require.NoError(t, src.SaveGraph(context.Background(), "case-1", graph))
	r, _ := newTestServer(t, src, 0)
	return r
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestApplyFilter_DefaultThreshold(t *testing.T) {
	r := seededRouter(t)

	w := do(r, http.MethodGet, "/api/cases/case-1/graph", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	snap := decode[model.Snapshot](t, w)
	assert.Equal(t, "case-1", snap.CaseID)
	assert.Equal(t, 3.0, snap.Filter.MinWeight)
	assert.Equal(t, 2, snap.Stats.TotalNodes)
	assert.Equal(t, 1, snap.Stats.TotalEdges)
	assert.Equal(t, 1, snap.Stats.HighRiskCount)
	assert.Equal(t, 1, snap.Diagnostics.DanglingEdges)
}

func TestApplyFilter_QueryParameters(t *testing.T) {
	r := seededRouter(t)

	w := do(r, http.MethodGet, "/api/cases/case-1/graph?minWeight=0&edgeType=Communication", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[model.Snapshot](t, w)
	require.Len(t, snap.Edges, 1)
	assert.Equal(t, "e1", snap.Edges[0].ID)

	w = do(r, http.MethodGet, "/api/cases/case-1/graph?minWeight=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[model.Snapshot](t, w)
	assert.Equal(t, 0.0, snap.Filter.MinWeight)
	assert.Len(t, snap.Edges, 2)
}

func TestApplyFilter_EmptyResultIsOK(t *testing.T) {
	r := seededRouter(t)

	w := do(r, http.MethodGet, "/api/cases/case-1/graph?minWeight=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nodes":[]`)
	assert.Contains(t, w.Body.String(), `"edges":[]`)
}

func TestApplyFilter_FetchFailure(t *testing.T) {
	r, _ := newTestServer(t, readOnlySource{err: errors.New("db down")}, 0)

	w := do(r, http.MethodGet, "/api/cases/x/graph", nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "FETCH_FAILED", body["code"])
}

func TestApplyFilter_FailedFirstLoadKeepsNoView(t *testing.T) {
	r, _ := newTestServer(t, readOnlySource{err: errors.New("upstream down")}, 0)

	w := do(r, http.MethodGet, "/api/cases/nope/graph", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	health := decode[map[string]any](t, do(r, http.MethodGet, "/health", nil))
	assert.Equal(t, 0.0, health["cases"])
}

func TestApplyFilter_RateLimited(t *testing.T) {
	src := driver.NewMemorySource()
	r, _ := newTestServer(t, src, 0.001)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/cases/c/graph", nil).Code)
	w := do(r, http.MethodGet, "/api/cases/c/graph", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestSnapshot(t *testing.T) {
	r := seededRouter(t)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/cases/case-1/graph/snapshot", nil).Code)

	do(r, http.MethodGet, "/api/cases/case-1/graph", nil)
	w := do(r, http.MethodGet, "/api/cases/case-1/graph/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decode[model.Snapshot](t, w).Sequence)
}

func TestSelectNode(t *testing.T) {
	r := seededRouter(t)
	do(r, http.MethodGet, "/api/cases/case-1/graph", nil)

	w := do(r, http.MethodGet, "/api/cases/case-1/graph/nodes/n3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[model.NodeDetail](t, w)
	assert.Equal(t, model.RiskHigh, detail.Tier)
	assert.Equal(t, "Kingpin", detail.Label)

	w = do(r, http.MethodGet, "/api/cases/case-1/graph/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "n3", decode[model.NodeDetail](t, w).ID)

	// n1 was filtered out, so selecting it clears the selection.
	w = do(r, http.MethodGet, "/api/cases/case-1/graph/nodes/n1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NODE_NOT_FOUND", decode[map[string]string](t, w)["code"])

	w = do(r, http.MethodGet, "/api/cases/case-1/graph/selection", nil)
	assert.Equal(t, "NO_SELECTION", decode[map[string]string](t, w)["code"])
}

func TestSelectNode_NoSnapshot(t *testing.T) {
	r := seededRouter(t)

	w := do(r, http.MethodGet, "/api/cases/case-1/graph/nodes/n3", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_SNAPSHOT", decode[map[string]string](t, w)["code"])
}

func TestClearSelectionAndDiscard(t *testing.T) {
	r := seededRouter(t)
	do(r, http.MethodGet, "/api/cases/case-1/graph", nil)
	do(r, http.MethodGet, "/api/cases/case-1/graph/nodes/n2", nil)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/cases/case-1/graph/selection", nil).Code)
	w := do(r, http.MethodGet, "/api/cases/case-1/graph/selection", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/cases/case-1/graph", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/cases/case-1/graph/snapshot", nil).Code)
}

func TestImportGraph(t *testing.T) {
	r, _ := newTestServer(t, driver.NewMemorySource(), 0)

	w := do(r, http.MethodPut, "/api/cases/new-case/graph/raw", []byte(caseGraphJSON))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"caseId":"new-case","nodes":3,"edges":3}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/cases/new-case/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[model.Snapshot](t, w).Stats.TotalNodes)
}

func TestImportGraph_BadBody(t *testing.T) {
	r, _ := newTestServer(t, driver.NewMemorySource(), 0)

	w := do(r, http.MethodPut, "/api/cases/c/graph/raw", []byte(`{"nodes": 7}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportGraph_ReadOnlySource(t *testing.T) {
	r, _ := newTestServer(t, readOnlySource{}, 0)

	w := do(r, http.MethodPut, "/api/cases/c/graph/raw", []byte(caseGraphJSON))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "READ_ONLY_SOURCE", decode[map[string]string](t, w)["code"])
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t, driver.NewMemorySource(), 0)

	w := do(r, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["source"])
}

func TestPanicRecovered_InFlightGaugeReturnsToZero(t *testing.T) {
	r, reg := newTestServer(t, panickingSource{}, 0)

	w := do(r, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL", decode[map[string]any](t, w)["code"])
	assert.Zero(t, testutil.ToFloat64(reg.HTTPRequestsInFlight))
}

func TestMetricsEndpoint(t *testing.T) {
	r := seededRouter(t)
	do(r, http.MethodGet, "/api/cases/case-1/graph", nil)

	w := do(r, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "casegraph_dangling_edges_dropped_total 1"), body)
	assert.Contains(t, body, `casegraph_http_requests_total{method="GET",path="/api/cases/:id/graph",status="200"} 1`)
	assert.Contains(t, body, `casegraph_pipeline_runs_total{outcome="installed",source="memory"} 1`)
}
