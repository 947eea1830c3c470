package view

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/agenthands/casegraph/internal/core"
	"github.com/agenthands/casegraph/internal/core/model"
	"github.com/agenthands/casegraph/internal/driver"
)

type entry struct {
	view     *CaseView
	pending  int
	lastUsed uint64
}

// Manager maps case ids to their views. Views are created on first use and
// live until Discard, until their first load fails, or until they are
// evicted to stay under the limit.
type Manager struct {
	source   driver.Source
	engine   *core.Engine
	recorder Recorder
	logger   *log.Logger
	onChange func(active int)
	limit    int

	mu    sync.Mutex
	tick  uint64
	views map[string]*entry
}

// NewManager builds a manager. recorder and logger may be nil.
func NewManager(source driver.Source, engine *core.Engine, recorder Recorder, logger *log.Logger) *Manager {
	if engine == nil {
		engine = core.NewEngine(nil, nil)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		source:   source,
		engine:   engine,
		recorder: recorder,
		logger:   logger,
		views:    make(map[string]*entry),
	}
}

// OnChange registers a callback invoked with the number of live views after
// every create or removal.
func (m *Manager) OnChange(fn func(active int)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// SetLimit caps the number of live views. Creating a view past the cap
// evicts the least recently used view with no request in flight. Zero means
// no cap.
func (m *Manager) SetLimit(n int) {
	m.mu.Lock()
	m.limit = n
	m.mu.Unlock()
}

// View returns the view for caseID, creating it if needed.
func (m *Manager) View(caseID string) *CaseView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(caseID).view
}

// Apply runs a filter-apply cycle on the view of caseID. A view created for
// this request whose fetch fails is removed again, so unknown or unreachable
// cases do not accumulate.
func (m *Manager) Apply(ctx context.Context, caseID string, cfg model.FilterConfig) (*model.Snapshot, error) {
	m.mu.Lock()
	e := m.lookup(caseID)
	e.pending++
	m.mu.Unlock()

	snap, err := e.view.Apply(ctx, cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	e.pending--
	if errors.Is(err, ErrFetch) && e.pending == 0 && m.views[caseID] == e {
		if _, snapErr := e.view.Snapshot(); snapErr != nil {
			delete(m.views, caseID)
			m.notify()
		}
	}
	return snap, err
}

// Get returns the view for caseID without creating one.
func (m *Manager) Get(caseID string) (*CaseView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.views[caseID]
	if !ok {
		return nil, false
	}
	m.touch(e)
	return e.view, true
}

// Discard drops the view of caseID. Requests still in flight for it finish
// as superseded.
func (m *Manager) Discard(caseID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.views[caseID]
	if !ok {
		return false
	}
	e.view.invalidate()
	delete(m.views, caseID)
	m.notify()
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

func (m *Manager) Source() driver.Source { return m.source }

// lookup must be called with m.mu held.
func (m *Manager) lookup(caseID string) *entry {
	if e, ok := m.views[caseID]; ok {
		m.touch(e)
		return e
	}
	if m.limit > 0 && len(m.views) >= m.limit {
		m.evictOne()
	}
	e := &entry{view: newCaseView(caseID, m.source, m.engine, m.recorder, m.logger)}
	m.touch(e)
	m.views[caseID] = e
	m.notify()
	return e
}

func (m *Manager) touch(e *entry) {
	m.tick++
	e.lastUsed = m.tick
}

func (m *Manager) evictOne() {
	var (
		victim string
		oldest *entry
	)
	for id, e := range m.views {
		if e.pending > 0 {
			continue
		}
		if oldest == nil || e.lastUsed < oldest.lastUsed {
			victim, oldest = id, e
		}
	}
	if oldest == nil {
		return
	}
	oldest.view.invalidate()
	delete(m.views, victim)
	m.logger.Debug("evicted case view", "case", victim)
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(len(m.views))
	}
}
