// Package notify delivers best-effort viewing telemetry.
package notify

import (
	"context"
	"errors"
)

// Event kinds, as recorded in the local store.
const (
	KindViewing  = "remediation"
	KindFinished = "videofinish"
)

// ViewingEvent reports that the learner is on a remediation video.
type ViewingEvent struct {
	Level      string
	Title      string
	NextTitle  string // empty when there is no next video
	StartMonth string
}

// FinishedEvent reports the video/next-video pair when a video ends or the
// focus changes.
type FinishedEvent struct {
	Title     string
	NextTitle string
}

// Sink delivers events. Implementations may block; callers that must not
// stall go through a Dispatcher.
type Sink interface {
	Viewing(ctx context.Context, ev ViewingEvent) error
	Finished(ctx context.Context, ev FinishedEvent) error
}

// Multi fans an event out to several sinks, returning their joined errors.
type Multi []Sink

func (m Multi) Viewing(ctx context.Context, ev ViewingEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Viewing(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Finished(ctx context.Context, ev FinishedEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Finished(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a Sink that drops every event.
type Discard struct{}

func (Discard) Viewing(context.Context, ViewingEvent) error   { return nil }
func (Discard) Finished(context.Context, FinishedEvent) error { return nil }
