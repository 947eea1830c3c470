package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/casegraph/internal/core/model"
)

// maxRemoteBody bounds the graph payload read from a remote API.
const maxRemoteBody = 32 << 20

// RemoteSource fetches case graphs from an HTTP API serving
// GET {base}/cases/{id}/graph.
type RemoteSource struct {
	BaseURL string
	Client  *http.Client
	Token   string
}

func NewRemoteSource(baseURL string, timeout time.Duration, token string) *RemoteSource {
	return &RemoteSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Token:   token,
	}
}

func (s *RemoteSource) Name() string { return "remote" }

func (s *RemoteSource) FetchGraph(ctx context.Context, caseID string, hint model.FilterConfig) (model.RawGraph, error) {
	hint = hint.Normalized()

	q := url.Values{}
	q.Set("minWeight", strconv.FormatFloat(hint.MinWeight, 'f', -1, 64))
	if hint.EdgeType != "" {
		q.Set("edgeType", hint.EdgeType)
	}
	endpoint := fmt.Sprintf("%s/cases/%s/graph?%s", s.BaseURL, url.PathEscape(caseID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("fetch case %s: %w", caseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.RawGraph{}, fmt.Errorf("fetch case %s: unexpected status %d: %s",
			caseID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var graph model.RawGraph
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteBody)).Decode(&graph); err != nil {
		return model.RawGraph{}, fmt.Errorf("decode graph for case %s: %w", caseID, err)
	}
	if graph.Nodes == nil {
		graph.Nodes = []model.Node{}
	}
	if graph.Edges == nil {
		graph.Edges = []model.Edge{}
	}
	return graph, nil
}
