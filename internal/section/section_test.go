package section

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	theme, ok := c.Lookup(ThemeToggle)
	require.True(t, ok)
	assert.Equal(t, 0.8, theme.Threshold)
	assert.True(t, theme.Suppresses)

	var ids []ID
	for _, s := range c.NavTargets() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []ID{Home, WhoAmI, WhatCanIDo, Built, Contact}, ids)
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	_, err := NewCatalog(Section{ID: "a", Threshold: 1.5})
	assert.Error(t, err)

	_, err = NewCatalog(Section{ID: "a", Threshold: 0.1}, Section{ID: "a", Threshold: 0.2})
	assert.Error(t, err)
}

func TestObserverCrossings(t *testing.T) {
	var enters, exits int
	o, err := Attach(Section{ID: WhoAmI, Threshold: 0.7},
		func(ID) { enters++ },
		func(ID) { exits++ })
	require.NoError(t, err)

	assert.False(t, o.Report(0.1))
	assert.False(t, o.Report(0.69))
	assert.True(t, o.Report(0.7))
	assert.False(t, o.Report(0.95))
	assert.True(t, o.Report(0.3))
	assert.False(t, o.Report(0))

	assert.Equal(t, 1, enters)
	assert.Equal(t, 1, exits)
	assert.False(t, o.Visible())
}

func TestObserverZeroThreshold(t *testing.T) {
	o, err := Attach(Section{ID: "x", Threshold: 0}, nil, nil)
	require.NoError(t, err)
	assert.False(t, o.Report(0))
	assert.True(t, o.Report(0.01))
}

func TestObserverDetachedDropsReports(t *testing.T) {
	fired := false
	o, err := Attach(Section{ID: Contact, Threshold: 0.2}, func(ID) { fired = true }, nil)
	require.NoError(t, err)

	o.Detach()
	assert.False(t, o.Report(1))
	assert.False(t, fired)
	assert.False(t, o.Attached())
}

func TestAttachRejectsBadThreshold(t *testing.T) {
	_, err := Attach(Section{ID: "x", Threshold: -0.1}, nil, nil)
	assert.Error(t, err)
}

func TestCoordinatorSuppression(t *testing.T) {
	c := NewCoordinator(DefaultCatalog())
	assert.True(t, c.NavVisible())

	st, changed := c.Apply(Event{ID: ThemeToggle, Active: true})
	assert.True(t, changed)
	assert.True(t, st.Suppressed)
	assert.False(t, st.NavVisible)

	// entering a plain section does not override an active suppressor
	st, _ = c.Apply(Event{ID: WhoAmI, Active: true})
	assert.True(t, st.Suppressed)

	st, _ = c.Apply(Event{ID: ThemeToggle, Active: false})
	assert.False(t, st.Suppressed)
	assert.Equal(t, WhoAmI, st.Current)
}

func TestCoordinatorFooterAndThemeOverlap(t *testing.T) {
	c := NewCoordinator(DefaultCatalog())
	c.Enter(ThemeToggle)
	c.Enter(Footer)
	c.Exit(ThemeToggle)
	assert.True(t, c.Suppressed(), "footer still in view")
	c.Exit(Footer)
	assert.False(t, c.Suppressed())
}

func TestCoordinatorIgnoresUnknown(t *testing.T) {
	c := NewCoordinator(DefaultCatalog())
	_, changed := c.Apply(Event{ID: "nope", Active: true})
	assert.False(t, changed)
	assert.False(t, c.Active("nope"))
}

func TestCoordinatorOrderIndependent(t *testing.T) {
	events := []Event{
		{ID: ThemeToggle, Active: true},
		{ID: WhoAmI, Active: true},
		{ID: Footer, Active: false},
		{ID: Contact, Active: true},
		{ID: Home, Active: false},
	}
	want := NewCoordinator(DefaultCatalog())
	for _, ev := range events {
		want.Apply(ev)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]Event(nil), events...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		c := NewCoordinator(DefaultCatalog())
		for _, ev := range shuffled {
			st := c.State()
			// nav visibility is always the negation of suppression
			assert.Equal(t, !st.Suppressed, st.NavVisible)
			c.Apply(ev)
		}
		assert.Equal(t, want.Suppressed(), c.Suppressed())
		assert.Equal(t, want.NavVisible(), c.NavVisible())
	}
}

func TestCoordinatorCurrent(t *testing.T) {
	c := NewCoordinator(DefaultCatalog())
	assert.Equal(t, Home, c.Current())

	c.Enter(WhatCanIDo)
	c.Enter(Built)
	assert.Equal(t, Built, c.Current())

	c.Exit(Built)
	assert.Equal(t, WhatCanIDo, c.Current())

	c.Release(WhatCanIDo)
	assert.Equal(t, Home, c.Current())
}

func TestObserverDrivesCoordinator(t *testing.T) {
	cat := DefaultCatalog()
	c := NewCoordinator(cat)
	s, _ := cat.Lookup(Footer)
	o, err := Attach(s, c.Enter, c.Exit)
	require.NoError(t, err)

	o.Report(0.8)
	assert.False(t, c.NavVisible())
	o.Report(0.1)
	assert.True(t, c.NavVisible())
}

func TestNavigateWindow(t *testing.T) {
	n := NewNavigator(nil)
	l := StaticLayout{Offsets: map[ID]float64{WhoAmI: 1800}, Scroll: 250}

	sc := n.Navigate(l, WhoAmI)
	assert.True(t, sc.Found)
	assert.Equal(t, 1800.0, sc.Top)
	assert.Equal(t, "smooth", sc.Behavior)
	assert.Empty(t, sc.Container)
}

func TestNavigateContainer(t *testing.T) {
	n := NewNavigator(ContainerScroller{ElementID: "scroll-root", Top: 64})
	l := StaticLayout{Offsets: map[ID]float64{Contact: 4064}}

	sc := n.Navigate(l, Contact)
	assert.Equal(t, 4000.0, sc.Top)
	assert.Equal(t, "scroll-root", sc.Container)
}

func TestNavigateMissingTargetStaysPut(t *testing.T) {
	n := NewNavigator(ContainerScroller{ElementID: "scroll-root", Top: 64})
	l := StaticLayout{Offsets: map[ID]float64{}, Scroll: 321}

	var sc Scroll
	assert.NotPanics(t, func() { sc = n.Navigate(l, "missing") })
	assert.False(t, sc.Found)
	assert.Equal(t, 321.0, sc.Top)

	assert.NotPanics(t, func() { sc = n.Navigate(nil, Home) })
	assert.False(t, sc.Found)
}
