package section

// Layout answers where a section currently sits. It is consulted at
// navigation time and never cached since images and resizes move things.
type Layout interface {
	// Offset is the element's top relative to the document.
	Offset(id ID) (float64, bool)
	// ScrollTop is the scroll container's current position.
	ScrollTop() float64
}

// Scroll is the instruction sent back to the browser.
type Scroll struct {
	Target   ID      `json:"target"`
	Top      float64 `json:"top"`
	Behavior string  `json:"behavior"`
	// Container is the element id to scroll, empty for the window.
	Container string `json:"container,omitempty"`
	Found     bool   `json:"found"`
}

// Scroller converts a document offset into a scroll instruction.
type Scroller interface {
	ScrollTo(id ID, docTop float64, found bool) Scroll
}

// WindowScroller scrolls the whole document.
type WindowScroller struct{}

func (WindowScroller) ScrollTo(id ID, top float64, found bool) Scroll {
	return Scroll{Target: id, Top: top, Behavior: "smooth", Found: found}
}

// ContainerScroller scrolls a nested element. Offsets are made relative to
// the container's own top.
type ContainerScroller struct {
	ElementID string
	// Top is the container's document offset.
	Top float64
}

func (c ContainerScroller) ScrollTo(id ID, top float64, found bool) Scroll {
	if found {
		top -= c.Top
	}
	if top < 0 {
		top = 0
	}
	return Scroll{Target: id, Top: top, Behavior: "smooth", Container: c.ElementID, Found: found}
}

// Navigator resolves a navigation request into a smooth scroll.
type Navigator struct {
	Scroller Scroller
}

func NewNavigator(s Scroller) *Navigator {
	if s == nil {
		s = WindowScroller{}
	}
	return &Navigator{Scroller: s}
}

// Navigate scrolls to id. An id with no element scrolls to where the page
// already is.
func (n *Navigator) Navigate(l Layout, id ID) Scroll {
	if l == nil {
		l = StaticLayout{}
	}
	top, ok := l.Offset(id)
	if !ok {
		return Scroll{
			Target:    id,
			Top:       l.ScrollTop(),
			Behavior:  "smooth",
			Container: containerID(n.Scroller),
		}
	}
	return n.Scroller.ScrollTo(id, top, true)
}

func containerID(s Scroller) string {
	if c, ok := s.(ContainerScroller); ok {
		return c.ElementID
	}
	return ""
}

// StaticLayout is a Layout built from offsets the browser measured.
type StaticLayout struct {
	Offsets map[ID]float64
	Scroll  float64
}

func (l StaticLayout) Offset(id ID) (float64, bool) {
	v, ok := l.Offsets[id]
	return v, ok
}

func (l StaticLayout) ScrollTop() float64 { return l.Scroll }
