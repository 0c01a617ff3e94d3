package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/db"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/section"
)

// contentFetcher picks where projects and skills come from. The CMS is
// always fronted by the SQLite cache so a CMS outage serves the last copy.
func contentFetcher(cfg config.ContentConfig, d *db.DB, logger *log.Logger) (content.Fetcher, error) {
	switch cfg.Provider {
	case "sanity":
		client := content.NewSanityClient(cfg.ProjectID, cfg.Dataset, cfg.APIVersion, cfg.Timeout)
		return content.NewCache(d, client, logger), nil
	case "yaml":
		return &content.FileSource{Path: cfg.File}, nil
	case "sqlite":
		return content.NewCache(d, nil, logger), nil
	}
	return nil, fmt.Errorf("unknown content provider %q", cfg.Provider)
}

func mailSender(cfg config.MailConfig) (mail.Sender, error) {
	switch cfg.Provider {
	case "emailjs":
		return mail.NewEmailJSSender(cfg.PublicKey, cfg.PrivateKey), nil
	case "smtp":
		s := cfg.SMTP
		return mail.NewSMTPSender(s.Host, s.Port, s.User, s.Pass, s.To), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

func scroller(cfg config.ScrollConfig) section.Scroller {
	if cfg.Mode == "window" {
		return section.WindowScroller{}
	}
	return section.ContainerScroller{ElementID: cfg.Container}
}
