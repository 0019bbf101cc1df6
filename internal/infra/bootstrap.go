package infra

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
)

//go:embed scripts
var bootstrapScripts embed.FS

const scriptsRoot = "scripts"

// ScriptInstallerImpl writes the embedded bootstrap scripts to disk so the
// launched application can run them.
type ScriptInstallerImpl struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewScriptInstaller creates an installer that materializes scripts under dir.
func NewScriptInstaller(fs afero.Fs, dir string, logger *zap.Logger) *ScriptInstallerImpl {
	return &ScriptInstallerImpl{fs: fs, dir: dir, logger: logger}
}

// Install writes every script that is missing or differs from the embedded copy
// and returns the scripts root directory.
func (si *ScriptInstallerImpl) Install() (string, error) {
	written := 0
	err := fs.WalkDir(bootstrapScripts, scriptsRoot, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		want, err := bootstrapScripts.ReadFile(name)
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(scriptsRoot, filepath.FromSlash(name))
		target := filepath.Join(si.dir, rel)

		if have, err := afero.ReadFile(si.fs, target); err == nil && bytes.Equal(have, want) {
			return nil
		}

		if err := si.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(si.fs, target, want, 0o644); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("install bootstrap scripts to %s: %w", si.dir, err)
	}

	if written > 0 {
		si.logger.Debug("bootstrap scripts updated",
			zap.String("dir", si.dir),
			zap.Int("files", written))
	}
	return si.dir, nil
}

// Ensure ScriptInstallerImpl implements domain.ScriptInstaller.
var _ domain.ScriptInstaller = (*ScriptInstallerImpl)(nil)
