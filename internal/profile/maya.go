package profile

import (
	"regexp"

	"github.com/devin-dcc/devin/internal/domain"
)

// mayaPythonVersions maps Maya releases to their embedded Python.
var mayaPythonVersions = map[string]string{
	"2022": "3.7",
	"2023": "3.9",
	"2024": "3.10",
	"2025": "3.11",
	"2026": "3.11",
}

// NewMayaProfile returns the profile for the Maya GUI.
func NewMayaProfile() *Profile {
	p := mayaBase()
	p.Kind = domain.KindMaya
	p.Name = "Maya"
	p.Executables = map[string]string{
		"linux":   "bin/maya",
		"windows": "bin/maya.exe",
	}
	return p
}

// NewMayapyProfile returns the profile for Maya's standalone interpreter.
func NewMayapyProfile() *Profile {
	p := mayaBase()
	p.Kind = domain.KindMayapy
	p.Name = "mayapy"
	p.Executables = map[string]string{
		"linux":   "bin/mayapy",
		"windows": "bin/mayapy.exe",
	}
	return p
}

func mayaBase() *Profile {
	return &Profile{
		Locations: map[string][]Location{
			"linux": {
				{Dir: "/usr/autodesk", Pattern: regexp.MustCompile(`^maya(\d+(?:\.\d+)*)$`)},
			},
			"windows": {
				{Dir: "C:/Program Files/Autodesk", Pattern: regexp.MustCompile(`^Maya(\d+(?:\.\d+)*)$`)},
			},
		},
		Registry: []RegistryLocation{
			{Key: `SOFTWARE\Autodesk\Maya`, SubPath: `Setup\InstallPath`, Value: "MAYA_INSTALL_LOCATION"},
		},
		LocationEnv: "MAYA_LOCATION",
		BundledGlobs: map[string][]string{
			"linux":   {"lib/python3*/site-packages"},
			"windows": {"Python/Lib/site-packages"},
		},
		SitePathVar: "MAYA_SITE_PATH",
		FixedEnv: []EnvVar{
			{Name: "MAYA_LOCATION", Value: PlaceholderRoot},
		},
		PathLists: map[PathCategory]PathList{
			// userSetup.py is picked up from sys.path
			CategoryPython: {Var: "PYTHONPATH", Prepend: true, Bootstrap: "maya/startup"},
			CategoryPlugin: {Var: "MAYA_PLUG_IN_PATH"},
			CategoryModule: {Var: "MAYA_MODULE_PATH"},
		},
		ConfigDirVar:   "MAYA_APP_DIR",
		WorkDir:        WorkDirCaller,
		PythonVersions: mayaPythonVersions,
	}
}
