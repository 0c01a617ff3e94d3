package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/db"
	"github.com/Zachkp/folio/internal/logging"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/metrics"
	"github.com/Zachkp/folio/internal/section"
	"github.com/Zachkp/folio/internal/server"
	"github.com/Zachkp/folio/internal/session"
	"github.com/Zachkp/folio/internal/visits"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		out, closer := logging.Output(cfg.LogFile)
		if closer != nil {
			defer closer.Close()
		}
		logger := logging.New(out, cfg.LogLevel, cfg.Mode)
		if cfg.DefaultAdminLogin() {
			logger.Warn("debug mode without ADMIN_USERNAME/ADMIN_PASSWORD, admin login accepts the development defaults")
		}

		store, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		fetcher, err := contentFetcher(cfg.Content, store, logger)
		if err != nil {
			return err
		}
		sender, err := mailSender(cfg.Mail)
		if err != nil {
			return err
		}

		m := metrics.New()
		projects := content.NewLoader[content.Project](fetcher, content.ProjectsQuery, logger)
		skills := content.NewLoader[content.SkillGroup](fetcher, content.SkillsQuery, logger)

		var throttle *mail.Throttle
		if cfg.Mail.Throttle > 0 {
			throttle = mail.NewThrottle(cfg.Mail.Throttle)
		}
		dispatcher := mail.NewDispatcher(cfg.Mail.ServiceID, cfg.Mail.TemplateID, sender, throttle, logger)
		if !dispatcher.Configured() {
			logger.Warn("mail sender not configured, contact form will refuse to send", "provider", cfg.Mail.Provider)
		}

		srv := server.New(server.Config{
			Addr:          cfg.Addr(),
			Mode:          cfg.Mode,
			AdminUsername: cfg.Admin.Username,
			AdminPassword: cfg.Admin.Password,
			SessionIdle:   cfg.Session.MaxIdle,
		}, server.Deps{
			Sessions:   session.NewManager(section.DefaultCatalog()),
			Navigator:  section.NewNavigator(scroller(cfg.Scroll)),
			Projects:   projects,
			Skills:     skills,
			Dispatcher: dispatcher,
			Recorder:   visits.NewRecorder(store, logger),
			Metrics:    m,
			Logger:     logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting folio", "version", Version, "content", cfg.Content.Provider, "mail", cfg.Mail.Provider)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
