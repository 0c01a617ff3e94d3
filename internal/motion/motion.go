// Package motion maps scroll progress to element transforms. The mapping is
// a pure function so the page animation can be checked without a browser.
package motion

import (
	"fmt"
	"math"
	"sort"
)

// Prop is an animatable property.
type Prop string

const (
	X       Prop = "x"
	Y       Prop = "y"
	Opacity Prop = "opacity"
	Scale   Prop = "scale"
)

// Transform is the sampled state of one element.
type Transform struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale"`
	Hidden  bool    `json:"hidden,omitempty"`
}

// Identity is an untouched element.
func Identity() Transform { return Transform{Opacity: 1, Scale: 1} }

func (t Transform) get(p Prop) float64 {
	switch p {
	case X:
		return t.X
	case Y:
		return t.Y
	case Opacity:
		return t.Opacity
	case Scale:
		return t.Scale
	}
	return 0
}

func (t *Transform) set(p Prop, v float64) {
	switch p {
	case X:
		t.X = v
	case Y:
		t.Y = v
	case Opacity:
		t.Opacity = v
	case Scale:
		t.Scale = v
	}
}

// Props is a partial set of property values.
type Props map[Prop]float64

// Ease shapes linear progress in [0,1].
type Ease func(float64) float64

var (
	Linear      Ease = func(t float64) float64 { return t }
	Power1In    Ease = func(t float64) float64 { return t * t }
	Power1Out   Ease = func(t float64) float64 { return 1 - (1-t)*(1-t) }
	Power2Out   Ease = func(t float64) float64 { return 1 - math.Pow(1-t, 3) }
	Power1InOut Ease = func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - math.Pow(-2*t+2, 2)/2
	}
)

// Tween animates one target from its current (or an explicit) state to To.
type Tween struct {
	Target   string
	From     Props
	To       Props
	Hide     bool
	Duration float64
	Ease     Ease

	start float64
}

// Timeline is a sequence of tweens laid end to end.
type Timeline struct {
	tweens  []Tween
	initial map[string]Transform
	end     float64
}

func NewTimeline() *Timeline {
	return &Timeline{initial: make(map[string]Transform)}
}

// Set fixes a target's state before the timeline starts. Targets without
// one start at Identity.
func (tl *Timeline) Set(target string, t Transform) *Timeline {
	tl.initial[target] = t
	return tl
}

// To appends tw after everything added so far.
func (tl *Timeline) To(tw Tween) *Timeline {
	return tl.At(tw, tl.end)
}

// Overlap appends tw starting by seconds before the current end.
func (tl *Timeline) Overlap(tw Tween, by float64) *Timeline {
	at := tl.end - by
	if at < 0 {
		at = 0
	}
	return tl.At(tw, at)
}

// At places tw at an absolute position.
func (tl *Timeline) At(tw Tween, at float64) *Timeline {
	if tw.Ease == nil {
		tw.Ease = Linear
	}
	if tw.Duration < 0 {
		tw.Duration = 0
	}
	tw.start = at
	tl.tweens = append(tl.tweens, tw)
	if e := at + tw.Duration; e > tl.end {
		tl.end = e
	}
	return tl
}

// Duration is the timeline length in timeline seconds.
func (tl *Timeline) Duration() float64 { return tl.end }

// Targets returns the animated element names, sorted.
func (tl *Timeline) Targets() []string {
	seen := make(map[string]bool)
	for k := range tl.initial {
		seen[k] = true
	}
	for _, tw := range tl.tweens {
		seen[tw.Target] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Sample returns every target's transform at progress, clamped to [0,1].
func (tl *Timeline) Sample(progress float64) map[string]Transform {
	progress = clamp(progress)
	now := progress * tl.end

	out := make(map[string]Transform)
	for _, target := range tl.Targets() {
		cur, ok := tl.initial[target]
		if !ok {
			cur = Identity()
		}
		for _, tw := range tl.tweens {
			if tw.Target != target || now < tw.start {
				continue
			}
			cur = tw.apply(cur, now)
		}
		out[target] = cur
	}
	return out
}

func (tw Tween) apply(cur Transform, now float64) Transform {
	from := cur
	for p, v := range tw.From {
		from.set(p, v)
	}
	k := 1.0
	if tw.Duration > 0 {
		k = clamp((now - tw.start) / tw.Duration)
	}
	e := tw.Ease(k)
	next := from
	for p, v := range tw.To {
		a := from.get(p)
		next.set(p, a+(v-a)*e)
	}
	if tw.Hide && k >= 1 {
		next.Hidden = true
	}
	return next
}

// Frames samples the timeline n+1 times evenly across [0,1].
func (tl *Timeline) Frames(n int) ([]map[string]Transform, error) {
	if n < 1 {
		return nil, fmt.Errorf("frames: need at least 1 step, got %d", n)
	}
	out := make([]map[string]Transform, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, tl.Sample(float64(i)/float64(n)))
	}
	return out, nil
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
