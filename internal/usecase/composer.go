package usecase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

// Common variables set for every launch.
const (
	EnvLogLevel   = "DEVIN_LOG_LEVEL"
	EnvDCC        = "DEVIN_DCC"
	EnvDCCVersion = "DEVIN_DCC_VERSION"
	EnvLaunchID   = "DEVIN_LAUNCH_ID"
)

// Composer derives the child environment. It is pure: the same inputs always
// give the same ordered result and the base environment is never modified.
type Composer struct {
	sep string
}

// NewComposer creates a composer using the OS path-list separator.
func NewComposer() *Composer {
	return &Composer{sep: string(os.PathListSeparator)}
}

// NewComposerWithSeparator creates a composer with a custom list separator (for testing).
func NewComposerWithSeparator(sep string) *Composer {
	return &Composer{sep: sep}
}

// Compose builds the launch environment in fixed steps:
//
//  1. copy of base
//  2. common variables
//  3. the profile's fixed variables and system dirs
//  4. option path lists
//  5. configured overrides
//  6. the site search-path variable
//  7. the config-dir variable
func (c *Composer) Compose(base *domain.LaunchEnvironment, p *profile.Profile, v domain.InstalledVariant, opts domain.LaunchOptions) *domain.LaunchEnvironment {
	var env *domain.LaunchEnvironment
	if base != nil {
		env = base.Clone()
	} else {
		env = domain.NewLaunchEnvironment()
	}

	env.Set("PYTHONUNBUFFERED", "1")
	env.Set("PYDEVD_DISABLE_FILE_VALIDATION", "1")
	if opts.LogLevel != "" {
		env.Set(EnvLogLevel, opts.LogLevel)
	}
	env.Set(EnvDCC, string(p.Kind))
	env.Set(EnvDCCVersion, v.Version.String())
	if opts.LaunchID != "" {
		env.Set(EnvLaunchID, opts.LaunchID)
	}

	for _, fv := range p.FixedEnv {
		if strings.Contains(fv.Value, profile.PlaceholderScripts) && opts.ScriptsDir == "" {
			continue
		}
		env.Set(fv.Name, expandPlaceholders(fv.Value, v, opts.ScriptsDir))
	}
	if p.SystemScriptsVar != "" && opts.SystemScripts != "" {
		env.Set(p.SystemScriptsVar, opts.SystemScripts)
	}
	if p.SystemExtensionsVar != "" && opts.SystemExtensions != "" {
		env.Set(p.SystemExtensionsVar, opts.SystemExtensions)
	}

	for _, cat := range profile.Categories {
		pl, ok := p.PathLists[cat]
		if !ok {
			continue
		}
		var entries []string
		if pl.Bootstrap != "" && opts.ScriptsDir != "" {
			entries = append(entries, filepath.Join(opts.ScriptsDir, filepath.FromSlash(pl.Bootstrap)))
		}
		entries = append(entries, optionPaths(opts, cat)...)
		if len(entries) == 0 {
			continue
		}
		existing := c.split(env.Lookup(pl.Var))
		if pl.Prepend {
			env.Set(pl.Var, c.join(entries, existing))
		} else {
			env.Set(pl.Var, c.join(existing, entries))
		}
	}

	keys := make([]string, 0, len(opts.EnvOverrides))
	for k := range opts.EnvOverrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env.Set(k, opts.EnvOverrides[k])
	}

	if p.SitePathVar != "" {
		var site []string
		site = append(site, v.BundledPaths...)
		if opts.IncludePrefixSite && opts.PrefixSite != "" {
			site = append(site, opts.PrefixSite)
		}
		site = append(site, opts.SitePaths...)
		if joined := c.join(c.split(env.Lookup(p.SitePathVar)), site); joined != "" {
			env.Set(p.SitePathVar, joined)
		}
	}

	if p.ConfigDirVar != "" && opts.ConfigDir != "" {
		env.Set(p.ConfigDirVar, opts.ConfigDir)
	}

	return env
}

func optionPaths(opts domain.LaunchOptions, cat profile.PathCategory) []string {
	switch cat {
	case profile.CategoryPython:
		return opts.PythonPaths
	case profile.CategoryPlugin:
		return opts.PluginPaths
	case profile.CategoryModule:
		return opts.ModulePaths
	case profile.CategoryStartup:
		return opts.StartupPaths
	}
	return nil
}

func expandPlaceholders(value string, v domain.InstalledVariant, scripts string) string {
	r := strings.NewReplacer(
		profile.PlaceholderRoot, v.RootPath,
		profile.PlaceholderVersion, v.Version.String(),
		profile.PlaceholderScripts, scripts,
	)
	return filepath.FromSlash(r.Replace(value))
}

func (c *Composer) split(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(value, c.sep) {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// join concatenates lists, dropping empty and repeated segments.
func (c *Composer) join(lists ...[]string) string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, s := range l {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return strings.Join(out, c.sep)
}
