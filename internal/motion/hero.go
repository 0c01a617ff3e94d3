package motion

// Hero element names, matching the data-motion attributes in the page.
const (
	Greeting     = "greeting"
	Name         = "name"
	Tagline      = "tagline"
	ThemeSection = "theme-section"
)

// HeroTimeline is the pinned intro: the greeting slides off, the name
// settles and then zooms through the screen, and the theme section rises
// in while the zoom is still running.
func HeroTimeline() *Timeline {
	tl := NewTimeline().
		Set(Tagline, Transform{Opacity: 0, Scale: 1}).
		Set(ThemeSection, Transform{Opacity: 0, Y: 100, Scale: 0.8})

	tl.To(Tween{Target: Greeting, To: Props{X: 2200, Y: 0, Opacity: 1}, Duration: 2, Ease: Power1InOut}).
		To(Tween{Target: Greeting, To: Props{X: 5500, Y: 0, Opacity: 0}, Duration: 2, Ease: Power1In}).
		To(Tween{Target: Name, To: Props{X: 0, Opacity: 1}, Duration: 2, Ease: Power1InOut}).
		To(Tween{Target: Name, To: Props{X: -80, Opacity: 1}, Duration: 1.5, Ease: Power1In}).
		To(Tween{Target: Tagline, To: Props{Opacity: 1}, Duration: 1, Ease: Power1InOut}).
		To(Tween{Target: Tagline, To: Props{X: 100, Opacity: 0}, Duration: 1, Ease: Power1In}).
		To(Tween{Target: Name, To: Props{Scale: 50, Y: 0, Opacity: 1}, Duration: 1.5, Ease: Power1InOut}).
		To(Tween{Target: Name, To: Props{Scale: 1000, Y: 0, Opacity: 0}, Hide: true, Duration: 1, Ease: Power1In})

	// the theme section starts 70% of the timeline-so-far before its end
	tl.Overlap(Tween{
		Target:   ThemeSection,
		From:     Props{Opacity: 0, Y: 100, Scale: 0.8},
		To:       Props{Opacity: 1, Y: 0, Scale: 1},
		Duration: 1.5,
		Ease:     Power2Out,
	}, tl.Duration()*0.7)

	return tl
}

// HeroComplete reports whether the intro has finished, at which point the
// theme section owns the screen.
func HeroComplete(progress float64) bool {
	return clamp(progress) >= 1
}
