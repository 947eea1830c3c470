// Package view owns the current snapshot and selection of each open case.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/agenthands/casegraph/internal/core"
	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/driver"
)

var (
	ErrSuperseded  = errors.New("request superseded by a newer filter")
	ErrFetch       = errors.New("graph fetch failed")
	ErrNoSnapshot  = errors.New("no snapshot loaded")
	ErrNoSelection = errors.New("no node selected")
)

// Recorder receives pipeline outcomes. *metrics.Registry implements it.
type Recorder interface {
	SnapshotInstalled(source string, duration time.Duration, snap *model.Snapshot)
	SnapshotDiscarded(source string)
	FetchFailed(source string)
}

type nopRecorder struct{}

func (nopRecorder) SnapshotInstalled(string, time.Duration, *model.Snapshot) {}
func (nopRecorder) SnapshotDiscarded(string) {}
func (nopRecorder) FetchFailed(string) {}

// CaseView holds the state of one case: the latest issued request number,
// the installed snapshot and the selected node. Only the response to the
// latest issued request may replace the snapshot.
type CaseView struct {
	caseID   string
	source   driver.Source
	engine   *core.Engine
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time

	seq atomic.Uint64

	mu       sync.RWMutex
	current  *model.Snapshot
	selected string
}

func newCaseView(caseID string, source driver.Source, engine *core.Engine, recorder Recorder, logger *log.Logger) *CaseView {
	return &CaseView{
		caseID:   caseID,
		source:   source,
		engine:   engine,
		recorder: recorder,
		logger:   logger.With("case", caseID),
		now:      time.Now,
	}
}

func (v *CaseView) CaseID() string { return v.caseID }

// Apply runs one filter-apply cycle: fetch, compute, install.
//
// If another Apply was issued while this one was in flight, the computed
// snapshot is discarded and ErrSuperseded returned. A failed fetch leaves the
// installed snapshot untouched and returns an error wrapping ErrFetch.
func (v *CaseView) Apply(ctx context.Context, cfg model.FilterConfig) (*model.Snapshot, error) {
	cfg = cfg.Normalized()
	seq := v.seq.Add(1)
	start := v.now()
	source := v.source.Name()

	raw, err := v.source.FetchGraph(ctx, v.caseID, cfg)
	if err != nil {
		v.recorder.FetchFailed(source)
		v.logger.Warn("graph fetch failed", "seq", seq, "source", source, "err", err)
		return nil, fmt.Errorf("%w: case %s: %w", ErrFetch, v.caseID, err)
	}

	snap := v.engine.Compute(raw, cfg)
	snap.ID = uuid.New().String()
	snap.CaseID = v.caseID
	snap.Sequence = seq
	snap.CreatedAt = v.now().UTC()

	v.mu.Lock()
	if seq != v.seq.Load() {
		v.mu.Unlock()
		v.recorder.SnapshotDiscarded(source)
		v.logger.Debug("discarding stale snapshot", "seq", seq, "latest", v.seq.Load())
		return nil, ErrSuperseded
	}
	v.current = snap
	if v.selected != "" {
		if _, ok := snap.Node(v.selected); !ok {
			v.selected = ""
		}
	}
	v.mu.Unlock()

	v.recorder.SnapshotInstalled(source, v.now().Sub(start), snap)
	v.logger.Debug("snapshot installed",
		"seq", seq,
		"nodes", snap.Stats.TotalNodes,
		"edges", snap.Stats.TotalEdges,
		"dangling", snap.Diagnostics.DanglingEdges,
	)
	return snap, nil
}

// Snapshot returns the installed snapshot.
func (v *CaseView) Snapshot() (*model.Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.current == nil {
		return nil, ErrNoSnapshot
	}
	return v.current, nil
}

// Select describes nodeID and makes it the selection. When the node is not in
// the installed snapshot the selection is cleared and the error wraps
// core.ErrNodeNotFound.
func (v *CaseView) Select(nodeID string) (model.NodeDetail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return model.NodeDetail{}, ErrNoSnapshot
	}
	detail, err := core.DescribeNode(v.current, nodeID)
	if err != nil {
		v.selected = ""
		return model.NodeDetail{}, err
	}
	v.selected = nodeID
	return detail, nil
}

// Selection describes the selected node against the installed snapshot.
func (v *CaseView) Selection() (model.NodeDetail, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.current == nil {
		return model.NodeDetail{}, ErrNoSnapshot
	}
	if v.selected == "" {
		return model.NodeDetail{}, ErrNoSelection
	}
	return core.DescribeNode(v.current, v.selected)
}

func (v *CaseView) ClearSelection() {
	v.mu.Lock()
	v.selected = ""
	v.mu.Unlock()
}

// invalidate makes every in-flight Apply stale.
func (v *CaseView) invalidate() {
	v.seq.Add(1)
}
