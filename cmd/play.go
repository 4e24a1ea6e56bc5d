package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/app"
	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/screen"
	"github.com/abhisek/remediz/internal/screens/history"
	"github.com/abhisek/remediz/internal/screens/player"
	"github.com/abhisek/remediz/internal/screens/selection"
	"github.com/abhisek/remediz/internal/screens/welcome"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the video player",
	Long: "Open the video player. With --level and --subject the player starts " +
		"directly; otherwise a selection screen asks for them.",
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := rt.source()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	tel := rt.telemetry(runID)
	defer rt.flush(tel)
	log := rt.log.With("run", runID)
	log.Info("player starting", "source", src.Name())

	newPlayer := func(learner level.Level, subject string, videos []catalog.Video) screen.Screen {
		return player.New(player.Deps{
			Videos:    videos,
			Learner:   learner,
			Subject:   subject,
			Telemetry: tel,
			Config:    rt.cfg.Progression(),
			Log:       log,
		})
	}

	var root screen.Screen
	if sel, err := rt.requireSelection(); err == nil {
		// A failed fetch leaves the player with an empty queue.
		videos := catalog.Load(cmd.Context(), src, sel, log)
		root = newPlayer(sel.Level, sel.Subject, videos)
	} else {
		root = welcome.New(func() screen.Screen {
			return selection.New(selection.Deps{
				Load: func(ctx context.Context, learner level.Level) ([]catalog.Video, error) {
					return catalog.FetchAll(ctx, src, learner)
				},
				Player:  newPlayer,
				History: func() screen.Screen { return history.New(rt.store.TelemetryRepo()) },
				Level:   rt.cfg.Learner.Level,
				Log:     log,
			})
		})
	}

	return app.Run(root)
}
