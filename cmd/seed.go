package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/db"
	"github.com/Zachkp/folio/internal/logging"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy projects and skills from a YAML file into the content cache",
	Long: `Seed loads a content YAML file and stores its answers in the SQLite
content cache, so the site can run with content.provider=sqlite or fall
back to this copy when the CMS is unreachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		out, closer := logging.Output(cfg.LogFile)
		if closer != nil {
			defer closer.Close()
		}
		logger := logging.New(out, cfg.LogLevel, cfg.Mode)

		path := seedFile
		if path == "" {
			path = cfg.Content.File
		}
		doc, err := (&content.FileSource{Path: path}).Load()
		if err != nil {
			return err
		}

		store, err := db.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		if err := content.NewCache(store, nil, logger).Seed(cmd.Context(), doc); err != nil {
			return fmt.Errorf("seeding cache: %w", err)
		}
		logger.Info("content seeded", "db", store.Path(), "projects", len(doc.Projects), "skill_groups", len(doc.Skills))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "content file (defaults to content.file from config)")
	rootCmd.AddCommand(seedCmd)
}
