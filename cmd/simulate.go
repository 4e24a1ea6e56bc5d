package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/fold"
	"github.com/abhisek/remediz/internal/gate"
	"github.com/abhisek/remediz/internal/progression"
	"github.com/abhisek/remediz/internal/queue"
	"github.com/abhisek/remediz/internal/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted learner through the queue on a virtual clock",
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
		opts, err := simulateOptions(cmd)
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
			return err
		}

		var tel progression.Telemetry
		if record, _ := cmd.Flags().GetBool("record"); record {
			d := rt.telemetry("sim-" + uuid.NewString())
			defer rt.flush(d)
			tel = d
		}

		res := simulate.Run(q, gate.New(sel.Level), tel, rt.cfg.Progression(), opts, rt.log)
		printSimulation(res, q)
		return nil
	},
}

func init() {
	f := simulateCmd.Flags()
	f.Float64("accuracy", 0.8, "Probability of answering correctly")
	f.Int64("seed", 1, "Random seed")
	f.String("month", "", "Start month, e.g. octobre (default: current month)")
	f.Duration("watch", 4*time.Minute, "Time spent watching each video")
	f.Duration("think", 8*time.Second, "Time before each answer")
	f.Duration("limit", 12*time.Hour, "Virtual time limit")
	f.Bool("record", false, "Record telemetry to the history")
}

func simulateOptions(cmd *cobra.Command) (simulate.Options, error) {
	opts := simulate.DefaultOptions()
	f := cmd.Flags()
	opts.Accuracy, _ = f.GetFloat64("accuracy")
	opts.Seed, _ = f.GetInt64("seed")
	opts.WatchTime, _ = f.GetDuration("watch")
	opts.ThinkTime, _ = f.GetDuration("think")
	opts.Limit, _ = f.GetDuration("limit")
	if opts.Accuracy < 0 || opts.Accuracy > 1 {
		return opts, fmt.Errorf("--accuracy must be between 0 and 1, got %v", opts.Accuracy)
	}

	if name, _ := f.GetString("month"); name != "" {
		start, err := monthStart(name, time.Now())
		if err != nil {
			return opts, err
		}
		opts.Start = start
	}
	return opts, nil
}

// monthStart returns 9:00 on the 1st of the named month in now's year.
func monthStart(name string, now time.Time) (time.Time, error) {
	for m := time.January; m <= time.December; m++ {
		t := time.Date(now.Year(), m, 1, 9, 0, 0, 0, now.Location())
		if fold.Equal(gate.MonthName(t), name) {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown month %q", name)
}

func printSimulation(res simulate.Result, q *queue.Queue) {
	for _, s := range res.Steps {
		fmt.Printf("%10s  %-14s → %-14s  #%-3d %s\n",
			s.At.Round(time.Second), s.From, s.To, s.Index+1, s.VideoID)
	}
	fmt.Println(strings.Repeat("─", 70))
	fmt.Printf("final: %s   completed: %d/%d   answers: %d (%d correct)   elapsed: %s\n",
		res.Final, len(res.Completed), q.Len(), res.Answers, res.Correct, res.Elapsed.Round(time.Second))
}
