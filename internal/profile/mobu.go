package profile

import (
	"regexp"

	"github.com/devin-dcc/devin/internal/domain"
)

var mobuPythonVersions = map[string]string{
	"2022": "3.7",
	"2023": "3.7",
	"2024": "3.10",
	"2025": "3.11",
	"2026": "3.11",
}

// NewMotionBuilderProfile returns the profile for the MotionBuilder GUI.
// MotionBuilder resolves its config relative to the working directory, so it
// runs from the parent of the install root.
func NewMotionBuilderProfile() *Profile {
	p := mobuBase()
	p.Kind = domain.KindMotionBuilder
	p.Name = "MotionBuilder"
	p.Executables = map[string]string{
		"linux":   "bin/linux_64/motionbuilder",
		"windows": "bin/x64/motionbuilder.exe",
	}
	p.PathLists[CategoryPlugin] = PathList{Var: "MOTIONBUILDER_PLUGIN_PATH"}
	p.PathLists[CategoryModule] = PathList{Var: "MOTIONBUILDER_MODULE_PATH"}
	p.PathLists[CategoryStartup] = PathList{Var: "MOTIONBUILDER_PYTHON_STARTUP", Bootstrap: "mobu/startup"}
	return p
}

// NewMobupyProfile returns the profile for MotionBuilder's standalone interpreter.
func NewMobupyProfile() *Profile {
	p := mobuBase()
	p.Kind = domain.KindMobupy
	p.Name = "mobupy"
	p.Executables = map[string]string{
		"linux":   "bin/linux_64/mobupy",
		"windows": "bin/x64/mobupy.exe",
	}
	p.FixedEnv = append(p.FixedEnv, EnvVar{
		Name:  "PYTHONSTARTUP",
		Value: PlaceholderScripts + "/mobu/startup/bootstrap.py",
	})
	return p
}

func mobuBase() *Profile {
	return &Profile{
		Locations: map[string][]Location{
			"linux": {
				{Dir: "/usr/autodesk", Pattern: regexp.MustCompile(`^MotionBuilder(\d+(?:\.\d+)*)$`)},
			},
			"windows": {
				{Dir: "C:/Program Files/Autodesk", Pattern: regexp.MustCompile(`^MotionBuilder (\d+(?:\.\d+)*)$`)},
			},
		},
		Registry: []RegistryLocation{
			{Key: `SOFTWARE\Autodesk\MotionBuilder`, Value: "InstallPath"},
		},
		BundledGlobs: map[string][]string{
			"linux":   {"bin/linux_64/python/lib/python3*/site-packages"},
			"windows": {"bin/x64/python/lib/site-packages"},
		},
		SitePathVar: "MOTIONBUILDER_SITE_PATH",
		PathLists: map[PathCategory]PathList{
			CategoryPython: {Var: "PYTHONPATH", Prepend: true},
		},
		ConfigDirVar:   "MB_CONFIG_DIR",
		WorkDir:        WorkDirInstallParent,
		PythonVersions: mobuPythonVersions,
	}
}
