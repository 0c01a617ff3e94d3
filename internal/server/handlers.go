package server

import (
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/motion"
	"github.com/Zachkp/folio/internal/section"
	"github.com/Zachkp/folio/internal/session"
	"github.com/Zachkp/folio/internal/theme"
)

const (
	viewCookie = "folio_view"
	yearSecs   = 365 * 24 * 3600
)

var hero = motion.HeroTimeline()

var templateFuncs = template.FuncMap{
	"isDark": func(t theme.Theme) bool { return t == theme.Dark },
}

// cookieKV persists the theme in a browser cookie, the server side of the
// browser's own storage.
type cookieKV struct{ c *gin.Context }

func (k cookieKV) Get(key string) (string, error) { return k.c.Cookie(key) }

func (k cookieKV) Set(key, value string) error {
	k.c.SetSameSite(http.SameSiteLaxMode)
	k.c.SetCookie(key, value, yearSecs, "/", "", false, false)
	return nil
}

func (s *Server) view(c *gin.Context) *session.View {
	id, _ := c.Cookie(viewCookie)
	v := s.Sessions.Get(id)
	if v.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(viewCookie, v.ID, 0, "/", "", false, true)
	}
	return v
}

func wantsFragment(c *gin.Context) bool { return c.GetHeader("HX-Request") == "true" }

type navItem struct {
	ID     section.ID
	Title  string
	Active bool
}

func (s *Server) navData(t theme.Theme, st section.State) gin.H {
	var items []navItem
	for _, sec := range s.Sessions.Catalog().NavTargets() {
		items = append(items, navItem{ID: sec.ID, Title: sec.Title, Active: sec.ID == st.Current})
	}
	return gin.H{"theme": t, "state": st, "items": items}
}

// Home page
func (s *Server) handleIndex(c *gin.Context) {
	t := theme.NewStore(cookieKV{c}).Get()
	st := s.view(c).State()

	c.HTML(http.StatusOK, "index.html", gin.H{
		"theme":    t,
		"nav":      s.navData(t, st),
		"projects": s.projectCards(),
		"skills":   s.skillsSnapshot(),
		"contact":  mail.Result{},
	})
}

func (s *Server) handlePrivacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"theme": theme.NewStore(cookieKV{c}).Get(),
	})
}

func (s *Server) handleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": theme.NewStore(cookieKV{c}).Get()})
}

// Flip the theme; the page plays a click when it sees the sound header.
func (s *Server) handleThemeToggle(c *gin.Context) {
	store := theme.NewStore(cookieKV{c})
	store.Feedback = func() error {
		c.Header("X-Folio-Sound", "click")
		return nil
	}
	next := store.Toggle()
	s.Metrics.ThemeToggles.WithLabelValues(next.String()).Inc()

	if wantsFragment(c) {
		c.HTML(http.StatusOK, "nav.html", s.navData(next, s.view(c).State()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": next})
}

func (s *Server) handleSectionState(c *gin.Context) {
	c.JSON(http.StatusOK, s.view(c).State())
}

// Intersection report from the page's observer shim
func (s *Server) handleIntersect(c *gin.Context) {
	id := section.ID(c.Param("id"))
	ratio, err := strconv.ParseFloat(c.PostForm("ratio"), 64)
	if err != nil || !(ratio >= 0 && ratio <= 1) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ratio must be a number in [0,1]"})
		return
	}

	var seq uint64
	if raw := c.PostForm("seq"); raw != "" {
		if seq, err = strconv.ParseUint(raw, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seq must be a positive integer"})
			return
		}
	}

	st, changed, err := s.view(c).Report(id, ratio, seq)
	if errors.Is(err, session.ErrUnknownSection) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown section"})
		return
	}
	if err != nil {
		s.Logger.Error("section report failed", "section", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	if changed {
		s.Metrics.SectionEvents.WithLabelValues(string(id)).Inc()
	}
	s.respondState(c, st)
}

func (s *Server) handleRelease(c *gin.Context) {
	st := s.view(c).Release(section.ID(c.Param("id")))
	s.respondState(c, st)
}

func (s *Server) respondState(c *gin.Context, st section.State) {
	if wantsFragment(c) {
		c.HTML(http.StatusOK, "nav.html", s.navData(theme.NewStore(cookieKV{c}).Get(), st))
		return
	}
	c.JSON(http.StatusOK, st)
}

type navigateRequest struct {
	Offsets      map[section.ID]float64 `json:"offsets"`
	ScrollTop    float64                `json:"scroll_top"`
	ContainerTop *float64               `json:"container_top"`
}

// Resolve a nav click into a scroll instruction from offsets the page
// measured just now.
func (s *Server) handleNavigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid layout"})
		return
	}

	nav := s.Navigator
	if cs, ok := nav.Scroller.(section.ContainerScroller); ok && req.ContainerTop != nil {
		cs.Top = *req.ContainerTop
		nav = section.NewNavigator(cs)
	}
	layout := section.StaticLayout{Offsets: req.Offsets, Scroll: req.ScrollTop}
	c.JSON(http.StatusOK, nav.Navigate(layout, section.ID(c.Param("id"))))
}

type projectCard struct {
	content.Project
	DescriptionHTML template.HTML
}

func (s *Server) projectCards() content.Snapshot[projectCard] {
	if s.Projects == nil {
		return content.Snapshot[projectCard]{Items: []projectCard{}}
	}
	snap := s.Projects.Snapshot()
	out := content.Snapshot[projectCard]{Loading: snap.Loading, Items: make([]projectCard, 0, len(snap.Items))}
	for _, p := range snap.Items {
		html, err := content.RenderMarkdown(p.Description)
		if err != nil {
			html = template.HTML(template.HTMLEscapeString(p.Description))
		}
		out.Items = append(out.Items, projectCard{Project: p, DescriptionHTML: html})
	}
	return out
}

func (s *Server) skillsSnapshot() content.Snapshot[content.SkillGroup] {
	if s.Skills == nil {
		return content.Snapshot[content.SkillGroup]{Items: []content.SkillGroup{}}
	}
	return s.Skills.Snapshot()
}

func (s *Server) handleProjectsJSON(c *gin.Context) {
	if s.Projects == nil {
		c.JSON(http.StatusOK, content.Snapshot[content.Project]{Items: []content.Project{}})
		return
	}
	c.JSON(http.StatusOK, s.Projects.Snapshot())
}

func (s *Server) handleSkillsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, s.skillsSnapshot())
}

func (s *Server) handleProjectsFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "projects.html", s.projectCards())
}

func (s *Server) handleSkillsFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "skills.html", s.skillsSnapshot())
}

// Hero animation state, either one sample or evenly spaced frames.
func (s *Server) handleHeroMotion(c *gin.Context) {
	if raw := c.Query("frames"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frames must be an integer up to 1000"})
			return
		}
		frames, err := hero.Frames(n)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"duration": hero.Duration(), "frames": frames})
		return
	}

	progress, err := strconv.ParseFloat(c.DefaultQuery("progress", "0"), 64)
	if err != nil || math.IsNaN(progress) || math.IsInf(progress, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress must be a number"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress":   progress,
		"complete":   motion.HeroComplete(progress),
		"transforms": hero.Sample(progress),
	})
}

// Contact form submission via HTMX; always answers 200 so the result
// fragment is swapped in.
func (s *Server) handleContact(c *gin.Context) {
	var form mail.Form
	if err := c.ShouldBind(&form); err != nil {
		form = mail.Form{}
	}

	key := c.ClientIP()
	if s.Recorder != nil {
		key = s.Recorder.HashIP(key)
	}

	var res mail.Result
	if s.Dispatcher == nil {
		res = mail.Result{
			Notice: mail.Notice{Kind: "error", Title: "Error!", Text: mail.MsgNotConfigured},
			Form:   form,
			Err:    mail.ErrNotConfigured,
		}
	} else {
		res = s.Dispatcher.Submit(c.Request.Context(), key, form)
	}
	s.Metrics.ContactResults.WithLabelValues(outcome(res.Err)).Inc()

	if wantsFragment(c) || c.GetHeader("Accept") != "application/json" {
		c.HTML(http.StatusOK, "contact.html", res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, mail.ErrMissingFields):
		return "invalid"
	case errors.Is(err, mail.ErrNotConfigured):
		return "unconfigured"
	case errors.Is(err, mail.ErrThrottled):
		return "throttled"
	}
	return "failed"
}
