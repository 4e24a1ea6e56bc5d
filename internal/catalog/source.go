package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/logger"
)

// Source fetches the raw video records available to a learner level.
type Source interface {
	Fetch(ctx context.Context, learner level.Level) ([]Video, error)

	// Name identifies the source in logs and cache keys.
	Name() string
}

// FileSource reads a catalog document from a YAML or JSON file.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(ctx context.Context, _ level.Level) ([]Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	return Decode(data, formatFor(s.Path))
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// formatFor picks the document format from the file extension.
func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load fetches the catalog and applies the learner's selection. A fetch
// failure is logged and yields an empty catalog.
func Load(ctx context.Context, src Source, sel Selection, log *logger.Logger) []Video {
	videos, err := src.Fetch(ctx, sel.Level)
	if err != nil {
		log.Error("catalog fetch failed", "source", src.Name(), "level", sel.Level.String(), "error", err)
		return nil
	}
	selected := Select(videos, sel)
	log.Info("catalog loaded",
		"source", src.Name(),
		"level", sel.Level.String(),
		"subject", sel.Subject,
		"fetched", len(videos),
		"selected", len(selected),
	)
	return selected
}

// FetchAll fetches the raw records for commands that report a failure
// instead of falling back to an empty catalog.
func FetchAll(ctx context.Context, src Source, learner level.Level) ([]Video, error) {
	videos, err := src.Fetch(ctx, learner)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return videos, nil
}
