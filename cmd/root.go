package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "remediz",
	Short: "Remediation video sequencer",
	Long: "Remediz plays a learner's remediation videos in prerequisite order, " +
		"gates them by release month and checks each one with a short quiz.",
	SilenceUsage: true,
	RunE:         runPlay,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides REMEDIZ_DB env var)")
	pf.String("catalog", "", "Catalog file (.json/.yaml) or API base URL")
	pf.String("level", "", "Learner level, e.g. 5e or \"2nde C\"")
	pf.String("track", "", "Lycée series, e.g. C or F3")
	pf.String("subject", "", "Subject to play")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
