package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/logger"
)

// Cache persists the last successful fetch per key.
type Cache interface {
	SaveCatalog(ctx context.Context, key string, payload []byte) error

	// LoadCatalog returns a nil payload when nothing is cached for key.
	LoadCatalog(ctx context.Context, key string) ([]byte, time.Time, error)
}

// CachedSource is a decorator that records successful fetches and serves
// the cached copy when the upstream fails.
type CachedSource struct {
	inner Source
	cache Cache
	log   *logger.Logger
}

// WithCache wraps a Source with a fallback cache.
func WithCache(s Source, c Cache, log *logger.Logger) Source {
	return &CachedSource{inner: s, cache: c, log: log}
}

func (c *CachedSource) Fetch(ctx context.Context, learner level.Level) ([]Video, error) {
	key := c.key(learner)

	videos, err := c.inner.Fetch(ctx, learner)
	if err == nil {
		payload, mErr := json.Marshal(videos)
		if mErr == nil {
			mErr = c.cache.SaveCatalog(ctx, key, payload)
		}
		if mErr != nil {
			// Caching is best effort.
			c.log.Warn("catalog cache write failed", "key", key, "error", mErr)
		}
		return videos, nil
	}

	payload, savedAt, cErr := c.cache.LoadCatalog(ctx, key)
	if cErr != nil || payload == nil {
		if cErr != nil {
			c.log.Warn("catalog cache read failed", "key", key, "error", cErr)
		}
		return nil, err
	}

	var cached []Video
	if uErr := json.Unmarshal(payload, &cached); uErr != nil {
		c.log.Warn("catalog cache entry corrupt", "key", key, "error", uErr)
		return nil, fmt.Errorf("%w (cache unusable: %v)", err, uErr)
	}

	c.log.Warn("serving cached catalog",
		"key", key,
		"saved_at", savedAt.Format(time.RFC3339),
		"upstream_error", err,
	)
	return normalize(cached), nil
}

func (c *CachedSource) Name() string {
	return c.inner.Name()
}

func (c *CachedSource) key(learner level.Level) string {
	return c.inner.Name() + "#" + string(learner.Stage)
}
