package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const telemetryTable = "telemetry_events"

// telemetryRepo implements TelemetryRepo with the ent SQL builders.
type telemetryRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *telemetryRepo) AppendNotification(ctx context.Context, n Notification) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(telemetryTable).
		Columns("sequence", "run_id", "kind", "level", "title", "next_title", "start_month", "created_at").
		Values(seqNum, n.RunID, n.Kind, n.Level, n.Title, n.NextTitle, n.StartMonth, n.Timestamp.UnixNano()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

func (r *telemetryRepo) QueryNotifications(ctx context.Context, opts QueryOpts) ([]Notification, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("sequence", "run_id", "kind", "level", "title", "next_title", "start_month", "created_at").
		From(entsql.Table(telemetryTable))

	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.From.UnixNano()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", opts.To.UnixNano()))
	}
	if opts.Kind != "" {
		sel.Where(entsql.EQ("kind", opts.Kind))
	}
	if opts.RunID != "" {
		sel.Where(entsql.EQ("run_id", opts.RunID))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n       Notification
			created int64
		)
		if err := rows.Scan(&n.Sequence, &n.RunID, &n.Kind, &n.Level, &n.Title, &n.NextTitle, &n.StartMonth, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Timestamp = time.Unix(0, created)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
