// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// EnvReportPath names the variable the fake executable writes its report to.
const EnvReportPath = "FAKE_DCC_REPORT"

// EnvExitCode names the variable holding the fake executable's exit code.
const EnvExitCode = "FAKE_DCC_EXIT"

// fakeExecutable records its working directory, arguments and environment,
// then exits with $FAKE_DCC_EXIT.
const fakeExecutable = `#!/bin/sh
{
  echo "cwd=$(pwd -P)"
  for a in "$@"; do echo "arg=$a"; done
  env | sed 's/^/env=/'
} > "$FAKE_DCC_REPORT"
exit "${FAKE_DCC_EXIT:-0}"
`

// FakeInstall creates a directory tree mimicking a DCC installation.
type FakeInstall struct {
	// Root is the install root, e.g. <parent>/maya2024.
	Root string
	// Executable is the path relative to Root, slash separated.
	Executable string
	// SitePackages are bundled site-package dirs relative to Root.
	SitePackages []string
}

// NewFakeInstall creates a new fake install generator under parent/name.
func NewFakeInstall(parent, name, executable string, sitePackages ...string) *FakeInstall {
	return &FakeInstall{
		Root:         filepath.Join(parent, name),
		Executable:   executable,
		SitePackages: sitePackages,
	}
}

// Create writes the executable script and bundled site-package dirs.
func (f *FakeInstall) Create() error {
	exe := f.ExecutablePath()
	if err := os.MkdirAll(filepath.Dir(exe), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(exe, []byte(fakeExecutable), 0755); err != nil {
		return err
	}
	for _, sp := range f.SitePackages {
		if err := os.MkdirAll(filepath.Join(f.Root, filepath.FromSlash(sp)), 0755); err != nil {
			return err
		}
	}
	return nil
}

// ExecutablePath returns the absolute path of the fake executable.
func (f *FakeInstall) ExecutablePath() string {
	return filepath.Join(f.Root, filepath.FromSlash(f.Executable))
}

// Report is what one run of the fake executable recorded.
type Report struct {
	Dir  string
	Args []string
	Env  map[string]string
}

// ReadReport parses the file written by the fake executable.
func ReadReport(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := &Report{Env: make(map[string]string)}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		kind, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch kind {
		case "cwd":
			r.Dir = value
		case "arg":
			r.Args = append(r.Args, value)
		case "env":
			if k, v, ok := strings.Cut(value, "="); ok {
				r.Env[k] = v
			}
		}
	}
	return r, scanner.Err()
}
