package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/queue"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Print the learning queue for a level and subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		sel, err := rt.requireSelection()
		if err != nil {
			return err
		}
		src, err := rt.source()
		if err != nil {
			return err
		}
		videos, err := catalog.FetchAll(cmd.Context(), src, sel.Level)
		if err != nil {
			return err
		}

		q, err := queue.Build(catalog.Select(videos, sel), sel.Level)
		if err != nil {
			var cycle *queue.CycleError
			if errors.As(err, &cycle) {
				return fmt.Errorf("cannot order %s: %w", sel.Subject, err)
			}
			return err
		}

		month := gate.MonthName(time.Now())
		if m, _ := cmd.Flags().GetString("month"); m != "" {
			month = m
		}
		g := gate.New(sel.Level)

		fmt.Printf("%4s  %-20s  %-10s  %-30s  %s\n", "#", "ID", "Level", "Notions", "State")
		fmt.Println(strings.Repeat("─", 90))
		for i, v := range q.Videos() {
			state := "open"
			if !g.IsUnlocked(v, nil, month) {
				state = "locked until " + g.UnlockHint(v)
			}
			fmt.Printf("%4d  %-20s  %-10s  %-30s  %s\n",
				i+1, clip(v.ID, 20), v.Level, clip(strings.Join(v.Skills, ", "), 30), state)
		}
		fmt.Printf("\n%d videos for %s %s (month: %s)\n", q.Len(), sel.Level, sel.Subject, month)
		return nil
	},
}

func init() {
	queueCmd.Flags().String("month", "", "Month used for release gating (default: current month)")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
