package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
)

// ResourceCleaner removes the local resource directory (bootstrap scripts,
// portable application archives). Everything in it is recreated on demand.
type ResourceCleaner struct {
	fs     domain.FileSystemManager
	dir    string
	logger *zap.Logger
}

// NewResourceCleaner creates a cleaner for dir.
func NewResourceCleaner(fs domain.FileSystemManager, dir string, logger *zap.Logger) *ResourceCleaner {
	return &ResourceCleaner{fs: fs, dir: dir, logger: logger}
}

// Clear deletes the resource directory. It reports false when there was nothing to delete.
func (c *ResourceCleaner) Clear() (bool, error) {
	if !c.fs.Exists(c.dir) {
		c.logger.Info("resource directory already deleted", zap.String("dir", c.dir))
		return false, nil
	}
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return false, fmt.Errorf("clear resource directory %s: %w", c.dir, err)
	}
	c.logger.Info("cleared resource directory", zap.String("dir", c.dir))
	return true, nil
}
