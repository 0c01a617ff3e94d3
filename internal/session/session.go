// Package session keeps the per-visitor view state that the page's
// intersection reports feed into.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/section"
)

var ErrUnknownSection = errors.New("session: unknown section")

// View is one open page. Reports for a view are serialized, matching the
// single event loop of the browser tab behind it.
type View struct {
	ID string

	mu        sync.Mutex
	catalog   *section.Catalog
	coord     *section.Coordinator
	observers map[section.ID]*section.Observer
	// seqs is the newest accepted report sequence per section.
	seqs     map[section.ID]uint64
	lastSeen time.Time
	closed    bool
}

func newView(id string, c *section.Catalog, now time.Time) *View {
	return &View{
		ID:        id,
		catalog:   c,
		coord:     section.NewCoordinator(c),
		observers: make(map[section.ID]*section.Observer),
		seqs:      make(map[section.ID]uint64),
		lastSeen:  now,
	}
}

// Report feeds an intersection ratio for one section, attaching its
// observer on first use. seq is the page's report counter: requests can
// overtake each other on the way in, so a report not newer than the last
// one accepted for the same section is dropped. A zero seq is never dropped.
func (v *View) Report(id section.ID, ratio float64, seq uint64) (section.State, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return v.coord.State(), false, nil
	}

	obs, ok := v.observers[id]
	if !ok {
		s, found := v.catalog.Lookup(id)
		if !found {
			return v.coord.State(), false, ErrUnknownSection
		}
		var err error
		obs, err = section.Attach(s, v.coord.Enter, v.coord.Exit)
		if err != nil {
			return v.coord.State(), false, err
		}
		v.observers[id] = obs
	}

	if seq > 0 {
		if seq <= v.seqs[id] {
			return v.coord.State(), false, nil
		}
		v.seqs[id] = seq
	}

	before := v.coord.State()
	obs.Report(ratio)
	after := v.coord.State()
	return after, after != before, nil
}

// Release detaches a section's observer, as when it leaves the page.
func (v *View) Release(id section.ID) section.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if obs, ok := v.observers[id]; ok {
		obs.Detach()
		delete(v.observers, id)
	}
	delete(v.seqs, id)
	st, _ := v.coord.Release(id)
	return st
}

func (v *View) State() section.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.coord.State()
}

func (v *View) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for id, obs := range v.observers {
		obs.Detach()
		delete(v.observers, id)
	}
}

// Manager owns the views of every visitor.
type Manager struct {
	mu      sync.Mutex
	catalog *section.Catalog
	views   map[string]*View
	now     func() time.Time
}

func NewManager(c *section.Catalog) *Manager {
	if c == nil {
		c = section.DefaultCatalog()
	}
	return &Manager{catalog: c, views: make(map[string]*View), now: time.Now}
}

func (m *Manager) Catalog() *section.Catalog { return m.catalog }

// NewID mints a view id.
func NewID() string { return uuid.NewString() }

// Get returns the view for id, creating it when it does not exist or id is
// not a valid view id.
func (m *Manager) Get(id string) *View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		id = NewID()
	}
	v, ok := m.views[id]
	if !ok {
		v = newView(id, m.catalog, m.now())
		m.views[id] = v
	}
	v.lastSeen = m.now()
	return v
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Sweep closes views idle for longer than maxIdle and returns how many
// were dropped. Reports still in flight against a dropped view hit
// detached observers and are ignored.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	now := m.now()
	var stale []*View
	for id, v := range m.views {
		if now.Sub(v.lastSeen) > maxIdle {
			stale = append(stale, v)
			delete(m.views, id)
		}
	}
	m.mu.Unlock()

	for _, v := range stale {
		v.close()
	}
	return len(stale)
}
