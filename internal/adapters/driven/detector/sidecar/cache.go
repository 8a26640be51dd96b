package sidecar

import (
	"context"
	"errors"
	"os"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.Detector = (*Cache)(nil)

// Cache wraps a detector and keeps its results as detections files.
// Images that already have one are not sent to the wrapped detector.
type Cache struct {
	inner  driven.Detector
	reader *Detector
}

// NewCache wraps inner.
func NewCache(inner driven.Detector) *Cache {
	return &Cache{inner: inner, reader: New()}
}

// Name identifies the detector in logs.
func (c *Cache) Name() string { return c.inner.Name() + "+sidecar" }

// Close closes the wrapped detector.
func (c *Cache) Close() error { return c.inner.Close() }

// Detect returns the cached result for path, or runs the wrapped detector
// and writes its result next to the image.
func (c *Cache) Detect(ctx context.Context, path string) (*domain.RawAnalysis, error) {
	if _, err := os.Stat(Path(path)); err == nil {
		raw, err := c.reader.Detect(ctx, path)
		if err == nil {
			logger.Debug("%s: using cached detections", path)
			return raw, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Warn("%s: ignoring unreadable detections file: %v", path, err)
	}

	raw, err := c.inner.Detect(ctx, path)
	if err != nil {
		return nil, err
	}

	cached := *raw
	cached.Path = path
	if err := Write(&cached); err != nil {
		logger.Warn("%s: %v", path, err)
	}
	return raw, nil
}
