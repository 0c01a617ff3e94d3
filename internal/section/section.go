// Package section tracks which parts of the page are in view and derives
// the floating navigation's visibility from them.
package section

import "fmt"

// ID is the stable anchor id of a page section.
type ID string

const (
	Home        ID = "home"
	ThemeToggle ID = "theme-toggle"
	WhoAmI      ID = "who-am-i"
	WhatCanIDo  ID = "what-can-i-do"
	Built       ID = "what-i-have-built"
	Contact     ID = "contact-me"
	Footer      ID = "footer"
)

// Section is a statically declared block of the page.
type Section struct {
	ID    ID
	Title string
	// Threshold is the fraction of the section that must intersect the
	// viewport for it to count as active.
	Threshold float64
	// Suppresses hides the floating navigation while the section is active.
	Suppresses bool
	// Nav marks sections reachable from the navigation bar.
	Nav bool
}

// Validate checks the threshold is a fraction.
func (s Section) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("section without id")
	}
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("section %s: threshold %v outside [0,1]", s.ID, s.Threshold)
	}
	return nil
}

// Catalog is the ordered set of sections on the page.
type Catalog struct {
	order []ID
	byID  map[ID]Section
}

// NewCatalog builds a catalog, rejecting duplicate ids and bad thresholds.
func NewCatalog(sections ...Section) (*Catalog, error) {
	c := &Catalog{byID: make(map[ID]Section, len(sections))}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate section %s", s.ID)
		}
		c.order = append(c.order, s.ID)
		c.byID[s.ID] = s
	}
	return c, nil
}

// DefaultCatalog is the portfolio page. Sections next to the hero activate
// late, the tall content sections activate early.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Section{ID: Home, Title: "Home", Threshold: 0.5, Nav: true},
		Section{ID: ThemeToggle, Title: "Theme", Threshold: 0.8, Suppresses: true},
		Section{ID: WhoAmI, Title: "Who am I", Threshold: 0.7, Nav: true},
		Section{ID: WhatCanIDo, Title: "What can i do", Threshold: 0.2, Nav: true},
		Section{ID: Built, Title: "Projects", Threshold: 0.2, Nav: true},
		Section{ID: Contact, Title: "Contact", Threshold: 0.2, Nav: true},
		Section{ID: Footer, Title: "Footer", Threshold: 0.7, Suppresses: true},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id ID) (Section, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// All returns the sections in page order.
func (c *Catalog) All() []Section {
	out := make([]Section, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// NavTargets returns the sections shown in the navigation bar, in page order.
func (c *Catalog) NavTargets() []Section {
	var out []Section
	for _, s := range c.All() {
		if s.Nav {
			out = append(out, s)
		}
	}
	return out
}
