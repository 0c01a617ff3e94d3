package section

// Event is one section reporting that it became active or inactive.
type Event struct {
	ID     ID
	Active bool
}

// State is what the view renders from.
type State struct {
	Suppressed bool `json:"suppressed"`
	NavVisible bool `json:"nav_visible"`
	Current    ID   `json:"current"`
}

// Coordinator reduces section events into navigation state. Every derived
// value is recomputed from the full id -> active mapping, so the order in
// which observers fire within a frame does not matter.
type Coordinator struct {
	catalog *Catalog
	active  map[ID]bool
	entered map[ID]uint64
	tick    uint64
}

func NewCoordinator(c *Catalog) *Coordinator {
	return &Coordinator{
		catalog: c,
		active:  make(map[ID]bool),
		entered: make(map[ID]uint64),
	}
}

// Apply records ev and returns the new state and whether the rendered
// state changed. Events for ids outside the catalog are ignored.
func (c *Coordinator) Apply(ev Event) (State, bool) {
	before := c.State()
	if _, ok := c.catalog.Lookup(ev.ID); !ok {
		return before, false
	}
	if ev.Active {
		c.tick++
		c.active[ev.ID] = true
		c.entered[ev.ID] = c.tick
	} else {
		delete(c.active, ev.ID)
		delete(c.entered, ev.ID)
	}
	after := c.State()
	return after, after != before
}

// Enter and Exit are shaped to be passed straight to Attach.
func (c *Coordinator) Enter(id ID) { c.Apply(Event{ID: id, Active: true}) }
func (c *Coordinator) Exit(id ID)  { c.Apply(Event{ID: id, Active: false}) }

// Release forgets a section whose observer has been detached.
func (c *Coordinator) Release(id ID) (State, bool) {
	return c.Apply(Event{ID: id, Active: false})
}

// Suppressed is true while any chrome-suppressing section is active.
func (c *Coordinator) Suppressed() bool {
	for id := range c.active {
		if s, ok := c.catalog.Lookup(id); ok && s.Suppresses {
			return true
		}
	}
	return false
}

func (c *Coordinator) NavVisible() bool { return !c.Suppressed() }

// Current is the most recently entered navigable section that is still
// active, or Home when none is.
func (c *Coordinator) Current() ID {
	var (
		best ID = Home
		at   uint64
	)
	for id, t := range c.entered {
		s, ok := c.catalog.Lookup(id)
		if !ok || s.Suppresses {
			continue
		}
		if t > at {
			best, at = id, t
		}
	}
	return best
}

func (c *Coordinator) Active(id ID) bool { return c.active[id] }

func (c *Coordinator) State() State {
	sup := c.Suppressed()
	return State{Suppressed: sup, NavVisible: !sup, Current: c.Current()}
}
