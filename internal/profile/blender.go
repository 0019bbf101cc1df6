package profile

import (
	"regexp"

	"github.com/devin-dcc/devin/internal/domain"
)

var blenderPythonVersions = map[string]string{
	"3.6": "3.10",
	"4.0": "3.10",
	"4.1": "3.11",
	"4.2": "3.11",
	"4.3": "3.11",
	"4.4": "3.11",
	"4.5": "3.11",
}

// Portable archives extract to e.g. blender-4.2.3-linux-x64. The full version
// orders installs; its major.minor release line answers exact requests.
var blenderArchivePattern = regexp.MustCompile(`(?i)^blender-(\d+\.\d+(?:\.\d+)*)(?:-.*)?$`)

// NewBlenderProfile returns the Blender profile.
func NewBlenderProfile() *Profile {
	return &Profile{
		Kind: domain.KindBlender,
		Name: "Blender",
		Executables: map[string]string{
			"linux":   "blender",
			"windows": "blender.exe",
		},
		Locations: map[string][]Location{
			"linux": {
				{Dir: "/opt", Pattern: blenderArchivePattern},
				{Dir: PlaceholderResource + "/blender", Pattern: blenderArchivePattern},
			},
			"windows": {
				{Dir: "C:/Program Files/Blender Foundation", Pattern: regexp.MustCompile(`^Blender (\d+\.\d+)$`)},
				{Dir: PlaceholderResource + "/blender", Pattern: blenderArchivePattern},
			},
		},
		BundledGlobs: map[string][]string{
			"linux":   {"*/python/lib/python3*/site-packages"},
			"windows": {"*/python/lib/site-packages"},
		},
		SitePathVar: "BLENDER_SITE_PATH",
		FixedEnv: []EnvVar{
			// startup/bootstrap.py lives here and is run by Blender on startup
			{Name: "BLENDER_USER_SCRIPTS", Value: PlaceholderScripts + "/blender"},
		},
		PathLists: map[PathCategory]PathList{
			CategoryPython: {Var: "PYTHONPATH", Prepend: true},
		},
		ConfigDirVar:        "BLENDER_USER_CONFIG",
		SystemScriptsVar:    "BLENDER_SYSTEM_SCRIPTS",
		SystemExtensionsVar: "BLENDER_SYSTEM_EXTENSIONS",
		// Blender ignores PYTHONPATH without it.
		StartupArgs:    []string{"--python-use-system-env"},
		WorkDir:        WorkDirCaller,
		PythonVersions: blenderPythonVersions,
		ReleaseDepth:   2,
		Addons:         true,
	}
}
