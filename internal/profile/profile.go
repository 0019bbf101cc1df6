// Package profile holds the per-application constants for every supported DCC.
// Each application (Maya, MotionBuilder, Blender) has its own profile file
// defining install layout, executables, variables and startup behaviour.
package profile

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/devin-dcc/devin/internal/domain"
)

// Placeholders expanded in FixedEnv values and location directories.
const (
	PlaceholderRoot     = "{root}"
	PlaceholderVersion  = "{version}"
	PlaceholderScripts  = "{scripts}"
	PlaceholderResource = "{resource}"
)

// WorkDirMode selects the child's working directory.
type WorkDirMode int

const (
	// WorkDirCaller keeps the caller's current directory.
	WorkDirCaller WorkDirMode = iota
	// WorkDirInstallParent uses the parent of the install root.
	WorkDirInstallParent
)

func (m WorkDirMode) String() string {
	if m == WorkDirInstallParent {
		return "install-parent"
	}
	return "cwd"
}

// PathCategory names a user-extendable search path list.
type PathCategory string

const (
	CategoryPython  PathCategory = "python"
	CategoryPlugin  PathCategory = "plugin"
	CategoryModule  PathCategory = "module"
	CategoryStartup PathCategory = "startup"
)

// Categories is the composition order of path lists.
var Categories = []PathCategory{CategoryPython, CategoryPlugin, CategoryModule, CategoryStartup}

// Location is a default install parent directory. Children whose name matches
// Pattern are install roots; the first submatch is the version token.
type Location struct {
	Dir     string
	Pattern *regexp.Regexp
}

// RegistryLocation is a Windows registry key whose subkeys are version tokens.
// The install root is read from Key\<version>\SubPath, value Value.
type RegistryLocation struct {
	Key     string
	SubPath string
	Value   string
}

// EnvVar is a fixed variable set for every launch of the kind.
type EnvVar struct {
	Name  string
	Value string
}

// PathList describes how a path category maps onto an environment variable.
type PathList struct {
	Var string
	// Prepend places new entries before the inherited value.
	Prepend bool
	// Bootstrap is a directory relative to the scripts root, placed first.
	Bootstrap string
}

// Profile is the immutable record of per-kind constants.
type Profile struct {
	Kind domain.ApplicationKind
	Name string

	// Executables maps GOOS to the executable path relative to the install root (slash separated).
	Executables map[string]string
	Locations   map[string][]Location
	Registry    []RegistryLocation
	LocationEnv string

	// BundledGlobs maps GOOS to globs, relative to the root, of site-package dirs shipped with the application.
	BundledGlobs map[string][]string

	SitePathVar         string
	FixedEnv            []EnvVar
	PathLists           map[PathCategory]PathList
	ConfigDirVar        string
	SystemScriptsVar    string
	SystemExtensionsVar string
	StartupArgs         []string
	WorkDir             WorkDirMode

	// PythonVersions maps a release (major, or major.minor) to its embedded Python major.minor.
	PythonVersions map[string]string
	// ReleaseDepth is how many leading components name a release line.
	// Zero means the whole version.
	ReleaseDepth int

	// Addons enables session addons discovered from system scripts and extensions.
	Addons bool
}

// Executable returns the relative executable path for goos.
func (p *Profile) Executable(goos string) (string, bool) {
	exe, ok := p.Executables[goos]
	return exe, ok
}

// ExecutableIn returns the absolute executable path under root.
func (p *Profile) ExecutableIn(root, goos string) (string, bool) {
	exe, ok := p.Executable(goos)
	if !ok {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(exe)), true
}

// LocationsFor returns default install locations for goos.
func (p *Profile) LocationsFor(goos string) []Location {
	return p.Locations[goos]
}

// VersionFromPath derives the version token from an install root's base name.
func (p *Profile) VersionFromPath(root, goos string) (string, bool) {
	base := filepath.Base(filepath.Clean(root))
	for _, loc := range p.LocationsFor(goos) {
		if m := loc.Pattern.FindStringSubmatch(base); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}

// RootFromExecutable walks up from an executable to the install root,
// one level per component of the kind's relative executable path.
func (p *Profile) RootFromExecutable(exePath, goos string) string {
	root := filepath.Clean(exePath)
	exe, ok := p.Executable(goos)
	if !ok {
		return filepath.Dir(root)
	}
	for range strings.Split(path.Clean(exe), "/") {
		root = filepath.Dir(root)
	}
	return root
}

// RequiredPython returns the embedded Python version for an application version.
// Lookup is by full token, then major.minor, then major.
func (p *Profile) RequiredPython(v domain.Version) (string, bool) {
	if py, ok := p.PythonVersions[v.String()]; ok {
		return py, true
	}
	parts := v.Components()
	if len(parts) >= 2 {
		if py, ok := p.PythonVersions[joinParts(parts[:2])]; ok {
			return py, true
		}
	}
	if len(parts) >= 1 {
		if py, ok := p.PythonVersions[joinParts(parts[:1])]; ok {
			return py, true
		}
	}
	return "", false
}

// Release returns the release line of v: its first ReleaseDepth components,
// or the raw token when the profile has no depth or v is not deeper.
func (p *Profile) Release(v domain.Version) string {
	parts := v.Components()
	if p.ReleaseDepth == 0 || len(parts) <= p.ReleaseDepth {
		return v.String()
	}
	return joinParts(parts[:p.ReleaseDepth])
}

// Supports reports whether the kind has a variable for category.
func (p *Profile) Supports(c PathCategory) bool {
	_, ok := p.PathLists[c]
	return ok
}

func joinParts(parts []uint64) string {
	s := make([]string, len(parts))
	for i, n := range parts {
		s[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(s, ".")
}
