package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	Kind   string    // exact kind ("" = any)
	RunID  string    // exact run ("" = any)
}

// Notification is one recorded telemetry event.
type Notification struct {
	Sequence   int64
	RunID      string
	Kind       string
	Level      string
	Title      string
	NextTitle  string
	StartMonth string
	Timestamp  time.Time
}

// TelemetryRepo records and lists telemetry events.
type TelemetryRepo interface {
	// AppendNotification records an event. Sequence and a zero Timestamp
	// are filled in.
	AppendNotification(ctx context.Context, n Notification) error

	// QueryNotifications returns events newest first.
	QueryNotifications(ctx context.Context, opts QueryOpts) ([]Notification, error)
}

// CatalogCache keeps the last successful catalog fetch per key.
type CatalogCache interface {
	SaveCatalog(ctx context.Context, key string, payload []byte) error

	// LoadCatalog returns a nil payload when key has no entry.
	LoadCatalog(ctx context.Context, key string) ([]byte, time.Time, error)

	// Prune deletes all but the keep most recently saved entries.
	Prune(ctx context.Context, keep int) error
}
