package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/casegraph/internal/core"
	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/core/view"
	"github.com/agenthands/casegraph/internal/driver"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "casegraph",
		"source":  s.views.Source().Name(),
		"cases":   s.views.Len(),
	})
}

// ApplyFilter runs a filter-apply cycle for the case and returns the new
// snapshot.
func (s *Server) ApplyFilter(c *gin.Context) {
	caseID := c.Param("id")
	minWeight, hasMinWeight := c.GetQuery("minWeight")
	cfg := model.ParseFilter(minWeight, hasMinWeight, c.Query("edgeType"))

	snap, err := s.views.Apply(c.Request.Context(), caseID, cfg)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, snap)
	case errors.Is(err, view.ErrSuperseded):
		writeError(c, http.StatusConflict, "SUPERSEDED", "a newer filter request for this case is in progress")
	case errors.Is(err, view.ErrFetch):
		s.logger.Error("filter apply failed", "case", caseID, "err", err)
		writeError(c, http.StatusBadGateway, "FETCH_FAILED", "failed to fetch case graph")
	default:
		s.logger.Error("filter apply failed", "case", caseID, "err", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL", "failed to build case graph")
	}
}

func (s *Server) GetSnapshot(c *gin.Context) {
	v, ok := s.views.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
		return
	}
	snap, err := v.Snapshot()
	if err != nil {
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SelectNode answers a node-selection query. An unknown node clears the
// selection and returns 404.
func (s *Server) SelectNode(c *gin.Context) {
	v, ok := s.views.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
		return
	}
	detail, err := v.Select(c.Param("nodeId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, detail)
	case errors.Is(err, core.ErrNodeNotFound):
		writeError(c, http.StatusNotFound, "NODE_NOT_FOUND", "node is not part of the current graph")
	case errors.Is(err, view.ErrNoSnapshot):
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func (s *Server) GetSelection(c *gin.Context) {
	v, ok := s.views.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
		return
	}
	detail, err := v.Selection()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, detail)
	case errors.Is(err, view.ErrNoSnapshot):
		writeError(c, http.StatusNotFound, "NO_SNAPSHOT", "case graph has not been loaded")
	default:
		writeError(c, http.StatusNotFound, "NO_SELECTION", "no node selected")
	}
}

func (s *Server) ClearSelection(c *gin.Context) {
	if v, ok := s.views.Get(c.Param("id")); ok {
		v.ClearSelection()
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DiscardCase(c *gin.Context) {
	s.views.Discard(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// ImportGraph stores a raw graph for the case when the source is writable.
func (s *Server) ImportGraph(c *gin.Context) {
	writer, ok := s.views.Source().(driver.Writer)
	if !ok {
		writeError(c, http.StatusNotImplemented, "READ_ONLY_SOURCE", "the configured graph source does not accept imports")
		return
	}

	var graph model.RawGraph
	if err := c.ShouldBindJSON(&graph); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_GRAPH", "Invalid request")
		return
	}

	caseID := c.Param("id")
	if err := writer.SaveGraph(c.Request.Context(), caseID, graph); err != nil {
		s.logger.Error("graph import failed", "case", caseID, "err", err)
		writeError(c, http.StatusInternalServerError, "IMPORT_FAILED", "failed to store case graph")
		return
	}

	s.logger.Info("graph imported", "case", caseID, "nodes", len(graph.Nodes), "edges", len(graph.Edges))
	c.JSON(http.StatusOK, gin.H{
		"caseId": caseID,
		"nodes":  len(graph.Nodes),
		"edges":  len(graph.Edges),
	})
}
