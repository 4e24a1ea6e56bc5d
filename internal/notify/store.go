package notify

import (
	"context"

	"github.com/abhisek/remediz/internal/store"
)

// Recorder persists notifications.
type Recorder interface {
	AppendNotification(ctx context.Context, n store.Notification) error
}

// StoreSink appends events to the local telemetry log.
type StoreSink struct {
	repo  Recorder
	runID string
}

// NewStoreSink creates a StoreSink tagging every row with runID.
func NewStoreSink(repo Recorder, runID string) *StoreSink {
	return &StoreSink{repo: repo, runID: runID}
}

func (s *StoreSink) Viewing(ctx context.Context, ev ViewingEvent) error {
	return s.repo.AppendNotification(ctx, store.Notification{
		RunID:      s.runID,
		Kind:       KindViewing,
		Level:      ev.Level,
		Title:      ev.Title,
		NextTitle:  ev.NextTitle,
		StartMonth: ev.StartMonth,
	})
}

func (s *StoreSink) Finished(ctx context.Context, ev FinishedEvent) error {
	return s.repo.AppendNotification(ctx, store.Notification{
		RunID:     s.runID,
		Kind:      KindFinished,
		Title:     ev.Title,
		NextTitle: ev.NextTitle,
	})
}
