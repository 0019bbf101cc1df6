package infra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
)

// probeScript prints the purelib site-packages dir and major.minor, one per line.
const probeScript = `import sys, sysconfig
print(sysconfig.get_paths()["purelib"])
print("%d.%d" % sys.version_info[:2])`

// PythonProbeImpl implements domain.PythonProbe by asking the interpreter itself.
type PythonProbeImpl struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, exe string, args ...string) ([]byte, error)
	goos     string
	logger   *zap.Logger
}

// NewPythonProbe creates a probe for the caller's active interpreter.
func NewPythonProbe(logger *zap.Logger) *PythonProbeImpl {
	return &PythonProbeImpl{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		run:      runOutput,
		goos:     runtime.GOOS,
		logger:   logger,
	}
}

func runOutput(ctx context.Context, exe string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Interpreter returns the path of the active interpreter: the virtualenv's
// python when VIRTUAL_ENV is set, else python3 or python on PATH.
func (pp *PythonProbeImpl) Interpreter() (string, error) {
	if venv := pp.getenv("VIRTUAL_ENV"); venv != "" {
		if pp.goos == "windows" {
			return filepath.Join(venv, "Scripts", "python.exe"), nil
		}
		return filepath.Join(venv, "bin", "python"), nil
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := pp.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found on PATH")
}

// Probe runs the interpreter to report its site-packages dir and version.
func (pp *PythonProbeImpl) Probe(ctx context.Context) (*domain.PythonInfo, error) {
	exe, err := pp.Interpreter()
	if err != nil {
		return nil, err
	}

	out, err := pp.run(ctx, exe, "-c", probeScript)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", exe, err)
	}

	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(string(out), "\r\n", "\n")), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("probe %s: unexpected output %q", exe, string(out))
	}

	info := &domain.PythonInfo{
		Executable:   exe,
		SitePackages: strings.TrimSpace(lines[0]),
		Version:      strings.TrimSpace(lines[1]),
	}
	pp.logger.Debug("probed python",
		zap.String("executable", info.Executable),
		zap.String("version", info.Version),
		zap.String("site_packages", info.SitePackages))
	return info, nil
}

// Ensure PythonProbeImpl implements domain.PythonProbe.
var _ domain.PythonProbe = (*PythonProbeImpl)(nil)
