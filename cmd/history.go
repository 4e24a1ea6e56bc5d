package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/notify"
	"github.com/abhisek/remediz/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded viewing events",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		run, _ := cmd.Flags().GetString("run")
		kind, _ := cmd.Flags().GetString("kind")
		switch kind {
		case "", notify.KindViewing, notify.KindFinished:
		default:
			return fmt.Errorf("--kind must be %s or %s", notify.KindViewing, notify.KindFinished)
		}

		rows, err := rt.store.TelemetryRepo().QueryNotifications(cmd.Context(), store.QueryOpts{
			Limit: limit,
			RunID: run,
			Kind:  kind,
		})
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}

		fmt.Printf("%-16s  %-8s  %-11s  %-10s  %-30s  %s\n", "Time", "Run", "Kind", "Level", "Title", "Next")
		fmt.Println(strings.Repeat("─", 100))
		for _, n := range rows {
			fmt.Printf("%-16s  %-8s  %-11s  %-10s  %-30s  %s\n",
				n.Timestamp.Local().Format("2006-01-02 15:04"), shortID(n.RunID), n.Kind, n.Level,
				clip(n.Title, 30), n.NextTitle)
		}
		fmt.Printf("\n%d events\n", len(rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 50, "Maximum number of events")
	historyCmd.Flags().String("run", "", "Only events from this run id")
	historyCmd.Flags().String("kind", "", "Only events of this kind (remediation or videofinish)")
}

// shortID trims a run id for display.
func shortID(id string) string {
	return id[:min(len(id), 8)]
}
