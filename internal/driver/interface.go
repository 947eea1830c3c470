package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/casegraph/internal/core/model"
)

type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	// ExecuteWrite runs every statement in one write transaction. Either all
	// of them commit or none do.
	ExecuteWrite(ctx context.Context, statements []Statement) error
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

type Statement struct {
	Query  string
	Params map[string]interface{}
}

// Source supplies the raw graph of a case. The hint may be used to trim the
// result server-side but callers always filter again, so a Source is free to
// ignore it.
type Source interface {
	FetchGraph(ctx context.Context, caseID string, hint model.FilterConfig) (model.RawGraph, error)
	Name() string
}

// Writer is implemented by sources that can store a case graph. SaveGraph
// replaces whatever was stored for the case.
type Writer interface {
	SaveGraph(ctx context.Context, caseID string, graph model.RawGraph) error
}

func positionOf(x, y any) *model.Position {
	px, okX := model.ToFloat(x)
	py, okY := model.ToFloat(y)
	if !okX || !okY {
		return nil
	}
	return &model.Position{X: px, Y: py}
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
