package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const adminCookie = "admin_token"

// adminCredentials falls back to development defaults only in debug mode.
// In any other mode an unset username or password disables login.
func (s *Server) adminCredentials() (string, string, bool) {
	user, pass := s.cfg.AdminUsername, s.cfg.AdminPassword
	if gin.Mode() == gin.DebugMode {
		if user == "" {
			user = "admin"
			s.Logger.Warn("using default admin username, set ADMIN_USERNAME")
		}
		if pass == "" {
			pass = "admin123"
			s.Logger.Warn("using default admin password, set ADMIN_PASSWORD")
		}
	}
	return user, pass, user != "" && pass != ""
}

func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) clientHash(c *gin.Context) string {
	if s.Recorder == nil {
		return "-"
	}
	return s.Recorder.HashIP(c.ClientIP())
}

func (s *Server) adminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		user, pass, ok := s.adminCredentials()
		gotUser := c.PostForm("username")
		gotPass := c.PostForm("password")

		if ok &&
			subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) == 1 &&
			subtle.ConstantTimeCompare([]byte(gotPass), []byte(pass)) == 1 {
			c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", false, true)
			s.Logger.Info("admin login", "client", s.clientHash(c))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		s.Logger.Warn("failed admin login", "client", s.clientHash(c))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{"error": "Invalid credentials"})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuth())

	admin.GET("/dashboard", func(c *gin.Context) {
		if s.Recorder == nil {
			c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"views": s.Sessions.Len()})
			return
		}
		stats, err := s.Recorder.Stats(c.Request.Context())
		if err != nil {
			s.Logger.Error("loading admin stats", "err", err)
			c.HTML(http.StatusInternalServerError, "admin-dashboard.html", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats, "views": s.Sessions.Len()})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		if s.Recorder == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "visit tracking disabled"})
			return
		}
		stats, err := s.Recorder.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		if s.Recorder == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "visit tracking disabled"})
			return
		}
		stats, err := s.Recorder.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		s.cleanupVisits(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup done"})
	})

	// Re-run both content queries, e.g. after publishing in the CMS.
	admin.POST("/content/refresh", func(c *gin.Context) {
		s.LoadContent(context.WithoutCancel(c.Request.Context()))
		c.JSON(http.StatusAccepted, gin.H{"message": "Content refresh started"})
	})
}
