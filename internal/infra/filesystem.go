package infra

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/devin-dcc/devin/internal/domain"
)

// FileSystemManagerImpl implements domain.FileSystemManager on top of afero.
type FileSystemManagerImpl struct {
	fs      afero.Fs
	homeDir string
}

// NewFileSystemManager creates a filesystem manager for the real OS filesystem.
// Home expansion is left to go-homedir.
func NewFileSystemManager() domain.FileSystemManager {
	return &FileSystemManagerImpl{fs: afero.NewOsFs()}
}

// NewFileSystemManagerWithFs creates a filesystem manager with a custom fs and home (for testing).
func NewFileSystemManagerWithFs(fs afero.Fs, home string) domain.FileSystemManager {
	return &FileSystemManagerImpl{fs: fs, homeDir: home}
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	_, err := fm.fs.Stat(fm.ExpandHome(path))
	return err == nil
}

// ExpandHome expands ~ to the user's home directory.
func (fm *FileSystemManagerImpl) ExpandHome(path string) string {
	if fm.homeDir == "" {
		if expanded, err := homedir.Expand(path); err == nil {
			return expanded
		}
		return path
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(fm.homeDir, path[2:])
	}
	if path == "~" {
		return fm.homeDir
	}
	return path
}

// MkdirTemp creates a new directory under the OS temp dir.
func (fm *FileSystemManagerImpl) MkdirTemp(pattern string) (string, error) {
	return afero.TempDir(fm.fs, os.TempDir(), pattern)
}

// RemoveAll removes a file or directory recursively.
func (fm *FileSystemManagerImpl) RemoveAll(path string) error {
	return fm.fs.RemoveAll(fm.ExpandHome(path))
}

// SubDirs returns names of directories directly under path, sorted.
// A missing or unreadable path yields no entries.
func (fm *FileSystemManagerImpl) SubDirs(path string) []string {
	entries, err := afero.ReadDir(fm.fs, fm.ExpandHome(path))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
