package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const catalogCacheTable = "catalog_cache"

// catalogCache implements CatalogCache with the ent SQL builders.
type catalogCache struct {
	drv *entsql.Driver
}

func (c *catalogCache) SaveCatalog(ctx context.Context, key string, payload []byte) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(catalogCacheTable).
		Columns("cache_key", "payload", "saved_at").
		Values(key, payload, time.Now().UnixNano()).
		OnConflict(entsql.ConflictColumns("cache_key"), entsql.ResolveWithNewValues()).
		Query()
	if err := c.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save catalog %q: %w", key, err)
	}
	return nil
}

func (c *catalogCache) LoadCatalog(ctx context.Context, key string) ([]byte, time.Time, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("payload", "saved_at").
		From(entsql.Table(catalogCacheTable)).
		Where(entsql.EQ("cache_key", key)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := c.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, time.Time{}, fmt.Errorf("query catalog %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, time.Time{}, fmt.Errorf("query catalog %q: %w", key, err)
		}
		return nil, time.Time{}, nil
	}
	var (
		payload []byte
		savedAt int64
	)
	if err := rows.Scan(&payload, &savedAt); err != nil {
		return nil, time.Time{}, fmt.Errorf("scan catalog %q: %w", key, err)
	}
	return payload, time.Unix(0, savedAt), nil
}

func (c *catalogCache) Prune(ctx context.Context, keep int) error {
	// Find the saved_at of the first entry past keep.
	query, args := entsql.Dialect(dialect.SQLite).
		Select("saved_at").
		From(entsql.Table(catalogCacheTable)).
		OrderBy(entsql.Desc("saved_at")).
		Limit(1).
		Offset(keep).
		Query()

	var rows entsql.Rows
	if err := c.drv.Query(ctx, query, args, &rows); err != nil {
		return fmt.Errorf("query catalogs for prune: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return fmt.Errorf("scan prune threshold: %w", err)
		}
	}
	rows.Close()
	if !found {
		return nil // fewer than keep entries exist
	}

	query, args = entsql.Dialect(dialect.SQLite).
		Delete(catalogCacheTable).
		Where(entsql.LTE("saved_at", threshold)).
		Query()
	if err := c.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("prune catalogs: %w", err)
	}
	return nil
}
