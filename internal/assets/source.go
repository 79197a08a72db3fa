package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// IndexFile is served for the bare /assets/ path.
const IndexFile = "index.html"

// ErrAssetNotFound is returned when no source holds the requested asset.
var ErrAssetNotFound = errors.New("asset not found")

// ErrAssetTooLarge is returned when an asset exceeds the size a source will load.
var ErrAssetTooLarge = errors.New("asset too large")

// Asset is a static file ready to be served.
type Asset struct {
	Name    string
	Body    []byte
	ModTime time.Time
}

// Source looks up static assets by slash-separated name.
type Source interface {
	Open(ctx context.Context, name string) (*Asset, error)
}

// cleanName normalises name and rejects anything that escapes the root.
func cleanName(name string) (string, error) {
	if name == "" || strings.HasSuffix(name, "/") {
		name += IndexFile
	}
	cleaned := path.Clean("/" + name)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(name, "\x00") {
		return "", fmt.Errorf("%w: %q", ErrAssetNotFound, name)
	}
	return cleaned, nil
}

// dirSource implements Source on a local directory.
type dirSource struct {
	dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string) Source {
	return &dirSource{dir: dir}
}

func (s *dirSource) Open(ctx context.Context, name string) (*Asset, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, cleaned)
		}
		return nil, fmt.Errorf("failed to stat asset %s: %w", cleaned, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrAssetNotFound, cleaned)
	}

	body, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", cleaned, err)
	}

	return &Asset{Name: cleaned, Body: body, ModTime: info.ModTime()}, nil
}

// fallbackSource tries primary first, then falls back to the local source.
type fallbackSource struct {
	primary  Source
	fallback Source
	logger   zerolog.Logger
}

// NewFallbackSource creates a source that tries primary first and falls back
// on any error. A nil primary uses only the fallback.
func NewFallbackSource(primary, fallback Source, logger zerolog.Logger) Source {
	return &fallbackSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "fallback-assets").Logger(),
	}
}

func (s *fallbackSource) Open(ctx context.Context, name string) (*Asset, error) {
	if s.primary != nil {
		asset, err := s.primary.Open(ctx, name)
		if err == nil {
			return asset, nil
		}

		s.logger.Warn().
			Err(err).
			Str("asset", name).
			Msg("primary asset source failed, falling back to local directory")
	}

	return s.fallback.Open(ctx, name)
}
