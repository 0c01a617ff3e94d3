package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Personal portfolio site",
	Long: `folio serves a single-page portfolio: a scroll-animated hero, a theme
toggle, projects and skills pulled from a CMS or a local file, and a
contact form that mails the owner.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "folio.yaml", "config file path")
}
