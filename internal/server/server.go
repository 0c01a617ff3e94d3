// Package server is the HTTP face of the portfolio: the page itself, the
// fragments it loads, and the endpoints its scroll and click handlers call.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/logging"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/metrics"
	"github.com/Zachkp/folio/internal/section"
	"github.com/Zachkp/folio/internal/session"
	"github.com/Zachkp/folio/internal/visits"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Config is the part of the site configuration the server reads directly.
type Config struct {
	Addr          string
	Mode          string
	AdminUsername string
	AdminPassword string
	SessionIdle   time.Duration
	// VisitRetention is how long visits are kept before the privacy sweep.
	VisitRetention time.Duration
}

// Deps are the collaborators the server is wired to. Recorder and Metrics
// may be nil.
type Deps struct {
	Sessions   *session.Manager
	Navigator  *section.Navigator
	Projects   *content.Loader[content.Project]
	Skills     *content.Loader[content.SkillGroup]
	Dispatcher *mail.Dispatcher
	Recorder   *visits.Recorder
	Metrics    *metrics.Metrics
	Logger     *log.Logger
}

type Server struct {
	cfg Config
	Deps

	router     *gin.Engine
	adminToken string
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewManager(nil)
	}
	if deps.Navigator == nil {
		deps.Navigator = section.NewNavigator(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = 30 * time.Minute
	}
	if cfg.VisitRetention <= 0 {
		cfg.VisitRetention = 365 * 24 * time.Hour
	}

	s := &Server{cfg: cfg, Deps: deps, adminToken: visits.RandomToken()}
	s.router = s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	if s.cfg.Mode != "" {
		gin.SetMode(s.cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.Logger), s.countRequests())
	if s.Recorder != nil {
		r.Use(s.Recorder.Middleware())
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/", s.handleIndex)
	r.GET("/privacy", s.handlePrivacy)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// theme and section state
	r.GET("/theme", s.handleTheme)
	r.POST("/theme/toggle", s.handleThemeToggle)
	r.GET("/sections/state", s.handleSectionState)
	r.POST("/sections/:id/intersect", s.handleIntersect)
	r.POST("/sections/:id/release", s.handleRelease)
	r.POST("/navigate/:id", s.handleNavigate)

	// content
	r.GET("/api/projects", s.handleProjectsJSON)
	r.GET("/api/skills", s.handleSkillsJSON)
	r.GET("/fragments/projects", s.handleProjectsFragment)
	r.GET("/fragments/skills", s.handleSkillsFragment)
	r.GET("/api/motion/hero", s.handleHeroMotion)

	r.POST("/contact", s.handleContact)

	s.adminRoutes(r)
	return r
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// LoadContent fetches projects and skills in the background. Each list
// stays in its loading state until its own fetch settles.
func (s *Server) LoadContent(ctx context.Context) {
	if s.Projects != nil {
		go func() {
			s.Projects.Load(ctx)
			s.Metrics.ContentLoads.WithLabelValues("projects").Inc()
		}()
	}
	if s.Skills != nil {
		go func() {
			s.Skills.Load(ctx)
			s.Metrics.ContentLoads.WithLabelValues("skills").Inc()
		}()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.LoadContent(ctx)
	go s.maintain(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// maintain drops idle views and, once a day, old visits.
func (s *Server) maintain(ctx context.Context) {
	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()
	daily := time.NewTicker(24 * time.Hour)
	defer daily.Stop()

	s.cleanupVisits(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			if n := s.Sessions.Sweep(s.cfg.SessionIdle); n > 0 {
				s.Logger.Debug("dropped idle views", "count", n)
			}
			s.Metrics.ActiveViews.Set(float64(s.Sessions.Len()))
		case <-daily.C:
			s.cleanupVisits(ctx)
		}
	}
}

func (s *Server) cleanupVisits(ctx context.Context) {
	if s.Recorder == nil {
		return
	}
	if _, err := s.Recorder.Cleanup(ctx, s.cfg.VisitRetention); err != nil {
		s.Logger.Error("visit cleanup failed", "err", err)
	}
}
