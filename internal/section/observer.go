package section

import "sync"

// Observer turns a stream of intersection ratios for one section into
// enter/exit transitions.
type Observer struct {
	mu       sync.Mutex
	section  Section
	onEnter  func(ID)
	onExit   func(ID)
	visible  bool
	attached bool
}

// Attach starts observing section. The callbacks run synchronously from
// Report and may be nil.
func Attach(s Section, onEnter, onExit func(ID)) (*Observer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Observer{section: s, onEnter: onEnter, onExit: onExit, attached: true}, nil
}

// Report feeds the latest intersection ratio. Only crossings of the
// threshold fire a callback, and nothing fires once the observer is
// detached. It reports whether a callback fired.
func (o *Observer) Report(ratio float64) bool {
	o.mu.Lock()
	if !o.attached {
		o.mu.Unlock()
		return false
	}
	now := o.crossed(ratio)
	if now == o.visible {
		o.mu.Unlock()
		return false
	}
	o.visible = now
	cb := o.onExit
	if now {
		cb = o.onEnter
	}
	id := o.section.ID
	o.mu.Unlock()

	if cb != nil {
		cb(id)
	}
	return true
}

func (o *Observer) crossed(ratio float64) bool {
	// a zero threshold means "any pixel in view"
	if o.section.Threshold == 0 {
		return ratio > 0
	}
	return ratio >= o.section.Threshold
}

// Visible reports the last known state.
func (o *Observer) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Detach releases the observer. Reports that race the release are dropped.
func (o *Observer) Detach() {
	o.mu.Lock()
	o.attached = false
	o.mu.Unlock()
}

func (o *Observer) Attached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attached
}

func (o *Observer) Section() Section { return o.section }
