// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture.
package domain

// ApplicationKind identifies a supported DCC application.
type ApplicationKind string

const (
	KindMaya          ApplicationKind = "maya"
	KindMayapy        ApplicationKind = "mayapy"
	KindMotionBuilder ApplicationKind = "mobu"
	KindMobupy        ApplicationKind = "mobupy"
	KindBlender       ApplicationKind = "blender"
)

func (k ApplicationKind) String() string {
	return string(k)
}

// DiscoverySource records where an installed variant was found.
type DiscoverySource string

const (
	SourceEnv      DiscoverySource = "env"
	SourceConfig   DiscoverySource = "config"
	SourceDefault  DiscoverySource = "default"
	SourceRegistry DiscoverySource = "registry"
	SourceOverride DiscoverySource = "override"
)

// InstalledVariant is one concrete installation of a DCC application on the host.
// Produced fresh by the install index on every invocation and never mutated afterwards.
type InstalledVariant struct {
	Kind           ApplicationKind
	Version        Version
	Release        string // release line an exact request may name, e.g. "4.2" for 4.2.10
	ExecutablePath string
	RootPath       string
	BundledPaths   []string // site-package dirs shipped with the application, derived from RootPath
	Source         DiscoverySource
}

// LaunchOptions is the already-merged configuration consumed by the launch pipeline.
type LaunchOptions struct {
	IncludePrefixSite bool
	PrefixSite        string // site-packages of the caller's interpreter, filled by the session
	SitePaths         []string
	PythonPaths       []string
	PluginPaths       []string
	ModulePaths       []string
	StartupPaths      []string
	EnvOverrides      map[string]string
	ScriptsDir        string // bootstrap scripts root; empty disables bootstrap variables
	ConfigDir         string // temp user config dir; empty keeps the user's own config
	SystemScripts     string
	SystemExtensions  string
	LogLevel          string
	LaunchID          string
}

// LaunchCommand is the fully prepared child process invocation.
// WorkingDirectory empty means the caller's current directory.
type LaunchCommand struct {
	ExecutablePath   string
	Args             []string
	WorkingDirectory string
	Environment      *LaunchEnvironment
}

// LaunchResult is the outcome of a child process that was started successfully.
type LaunchResult struct {
	ExitCode  int
	Signalled bool
	Signal    string
}

// LaunchRequest is a single user request handled by the launch session.
type LaunchRequest struct {
	Kind          ApplicationKind
	Spec          VersionSpec
	Executable    string // skips discovery when set
	Passthrough   []string
	TempConfigDir bool
	Options       LaunchOptions
}

// PythonInfo describes the caller's active Python interpreter.
type PythonInfo struct {
	Executable   string
	Version      string // major.minor
	SitePackages string
}
