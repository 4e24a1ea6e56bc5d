package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/store"
)

func TestHTTPSink_Payloads(t *testing.T) {
	var (
		mu   sync.Mutex
		got  = map[string]map[string]any{}
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got[r.URL.Path] = body
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, "secret", time.Second)
	ctx := context.Background()
	require.NoError(t, sink.Viewing(ctx, ViewingEvent{Level: "6e", Title: "V1", NextTitle: "V2", StartMonth: "mars"}))
	require.NoError(t, sink.Finished(ctx, FinishedEvent{Title: "V2"}))

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, map[string]any{
		"niveau": "6e", "video_titre": "V1", "next_video_titre": "V2", "start_month": "mars",
	}, got[viewingPath])

	finished := got[finishedPath]
	assert.Equal(t, "V2", finished["video_titre"])
	v, present := finished["next_video_titre"]
	assert.True(t, present)
	assert.Nil(t, v, "missing next title is sent as null")
}

func TestHTTPSink_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, "", time.Second).Finished(context.Background(), FinishedEvent{Title: "x"})
	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusUnauthorized, derr.StatusCode)
	assert.Equal(t, finishedPath, derr.Path)
}

type fakeRecorder struct {
	rows []store.Notification
	err  error
}

func (f *fakeRecorder) AppendNotification(_ context.Context, n store.Notification) error {
	f.rows = append(f.rows, n)
	return f.err
}

func TestStoreSink(t *testing.T) {
	rec := &fakeRecorder{}
	sink := NewStoreSink(rec, "run-7")
	ctx := context.Background()

	require.NoError(t, sink.Viewing(ctx, ViewingEvent{Level: "5e", Title: "A", NextTitle: "B", StartMonth: "avril"}))
	require.NoError(t, sink.Finished(ctx, FinishedEvent{Title: "A", NextTitle: "B"}))

	require.Len(t, rec.rows, 2)
	assert.Equal(t, store.Notification{RunID: "run-7", Kind: KindViewing, Level: "5e", Title: "A", NextTitle: "B", StartMonth: "avril"}, rec.rows[0])
	assert.Equal(t, KindFinished, rec.rows[1].Kind)
}

func TestMulti_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &fakeRecorder{}
	bad := &fakeRecorder{err: boom}
	m := Multi{NewStoreSink(ok, "r"), NewStoreSink(bad, "r")}

	err := m.Viewing(context.Background(), ViewingEvent{Title: "x"})
	require.ErrorIs(t, err, boom)
	assert.Len(t, ok.rows, 1, "healthy sink still receives the event")
	assert.Len(t, bad.rows, 1)
}

// blockingSink holds every delivery until release is closed.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	titles  []string
}

func (b *blockingSink) Viewing(ctx context.Context, ev ViewingEvent) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	b.titles = append(b.titles, ev.Title)
	b.mu.Unlock()
	return nil
}

func (b *blockingSink) Finished(ctx context.Context, ev FinishedEvent) error {
	return errors.New("endpoint down")
}

func TestDispatcher_DropsWhenFullAndWaitsOnClose(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(sink, 1, time.Second, logger.Nop())

	d.Viewing(ViewingEvent{Title: "first"})
	d.Viewing(ViewingEvent{Title: "dropped"})
	close(sink.release)

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, []string{"first"}, sink.titles)

	d.Viewing(ViewingEvent{Title: "after close"})
	assert.Equal(t, []string{"first"}, sink.titles)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	d := NewDispatcher(&blockingSink{release: make(chan struct{})}, 4, time.Second, logger.Nop())
	d.Finished(FinishedEvent{Title: "x"})
	d.Finished(FinishedEvent{Title: "y"})
	assert.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_CloseTimeout(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(sink, 1, time.Minute, logger.Nop())
	d.Viewing(ViewingEvent{Title: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, sink.titles, "stuck delivery is cancelled")
}
