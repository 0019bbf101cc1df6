// Package config loads devin's layered configuration with viper:
// defaults, then a YAML file, then DEVIN_* environment variables, then CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/logging"
)

// EnvConfigPath names the variable that points at an explicit config file.
const EnvConfigPath = "DEVIN_CONFIG"

// EnvPrefix is the prefix of environment overrides, e.g. DEVIN_KINDS_MAYA_VERSION.
const EnvPrefix = "DEVIN"

// Kinds whose settings live under kinds.<kind>.
var Kinds = []domain.ApplicationKind{
	domain.KindMaya,
	domain.KindMayapy,
	domain.KindMotionBuilder,
	domain.KindMobupy,
	domain.KindBlender,
}

// KindConfig holds per-application settings.
type KindConfig struct {
	Version          string   `mapstructure:"version" yaml:"version"`
	Executable       string   `mapstructure:"executable" yaml:"executable"`
	InstallRoots     []string `mapstructure:"install_roots" yaml:"install_roots"`
	PythonPaths      []string `mapstructure:"python_paths" yaml:"python_paths"`
	PluginPaths      []string `mapstructure:"plugin_paths" yaml:"plugin_paths"`
	ModulePaths      []string `mapstructure:"module_paths" yaml:"module_paths"`
	StartupPaths     []string `mapstructure:"startup_paths" yaml:"startup_paths"`
	SystemScripts    string   `mapstructure:"system_scripts" yaml:"system_scripts"`
	SystemExtensions string   `mapstructure:"system_extensions" yaml:"system_extensions"`
}

// LaunchConfig holds settings shared by every launch.
type LaunchConfig struct {
	IncludePrefixSite bool     `mapstructure:"include_prefix_site" yaml:"include_prefix_site"`
	TempConfigDir     bool     `mapstructure:"temp_config_dir" yaml:"temp_config_dir"`
	SitePaths         []string `mapstructure:"site_paths" yaml:"site_paths"`
	// Env entries are KEY=VALUE; a list keeps variable names case-sensitive.
	Env []string `mapstructure:"env" yaml:"env"`
}

// EnvOverrides parses Env into a map. Later entries win.
func (lc LaunchConfig) EnvOverrides() (map[string]string, error) {
	out := make(map[string]string, len(lc.Env))
	for _, kv := range lc.Env {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("launch.env entry %q: want KEY=VALUE", kv)
		}
		out[key] = value
	}
	return out, nil
}

// Config holds the entire devin configuration.
type Config struct {
	ResourceDir string                `mapstructure:"resource_dir" yaml:"resource_dir"`
	Log         logging.Config        `mapstructure:"log" yaml:"log"`
	Launch      LaunchConfig          `mapstructure:"launch" yaml:"launch"`
	Kinds       map[string]KindConfig `mapstructure:"kinds" yaml:"kinds"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

// Kind returns the settings for kind, empty when not configured.
func (c *Config) Kind(kind domain.ApplicationKind) KindConfig {
	return c.Kinds[string(kind)]
}

// LaunchOptions derives the launch pipeline options for kind.
func (c *Config) LaunchOptions(kind domain.ApplicationKind) (domain.LaunchOptions, error) {
	env, err := c.Launch.EnvOverrides()
	if err != nil {
		return domain.LaunchOptions{}, err
	}
	k := c.Kind(kind)
	return domain.LaunchOptions{
		IncludePrefixSite: c.Launch.IncludePrefixSite,
		SitePaths:         c.Launch.SitePaths,
		PythonPaths:       k.PythonPaths,
		PluginPaths:       k.PluginPaths,
		ModulePaths:       k.ModulePaths,
		StartupPaths:      k.StartupPaths,
		EnvOverrides:      env,
		SystemScripts:     k.SystemScripts,
		SystemExtensions:  k.SystemExtensions,
		LogLevel:          logging.PythonLevel(c.Log.Level),
	}, nil
}

// ScriptsDir is where bootstrap scripts are materialized.
func (c *Config) ScriptsDir() string {
	return filepath.Join(c.ResourceDir, "scripts")
}

// Loader wraps a viper instance. Flags are bound per command before Load.
type Loader struct {
	v      *viper.Viper
	getenv func(string) string
	// home overrides the user's home directory; empty defers to go-homedir.
	home string
}

// NewLoader creates a loader with defaults and environment binding set up.
func NewLoader() *Loader {
	return newLoader(os.Getenv, "")
}

func newLoader(getenv func(string) string, home string) *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, getenv: getenv, home: home}
}

func setDefaults(v *viper.Viper) {
	lc := logging.DefaultConfig()
	v.SetDefault("resource_dir", "~/devin-dcc/resource")
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.to_stderr", lc.ToStderr)
	v.SetDefault("log.to_file", lc.ToFile)
	v.SetDefault("log.file", lc.FilePath)
	v.SetDefault("log.max_size", lc.MaxSizeMB)
	v.SetDefault("log.max_age", lc.MaxAge)
	v.SetDefault("log.max_backups", lc.MaxBackups)
	v.SetDefault("log.compress", lc.Compress)

	v.SetDefault("launch.include_prefix_site", false)
	v.SetDefault("launch.temp_config_dir", false)
	v.SetDefault("launch.site_paths", []string{})
	v.SetDefault("launch.env", []string{})

	// every kind key needs a default for AutomaticEnv to see it
	for _, k := range Kinds {
		prefix := "kinds." + string(k) + "."
		v.SetDefault(prefix+"version", "")
		v.SetDefault(prefix+"executable", "")
		v.SetDefault(prefix+"install_roots", []string{})
		v.SetDefault(prefix+"python_paths", []string{})
		v.SetDefault(prefix+"plugin_paths", []string{})
		v.SetDefault(prefix+"module_paths", []string{})
		v.SetDefault(prefix+"startup_paths", []string{})
		v.SetDefault(prefix+"system_scripts", "")
		v.SetDefault(prefix+"system_extensions", "")
	}
}

// BindFlag binds a config key to a command flag. Only changed flags override.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Set forces a value, above every other layer.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// ResolveConfigPath returns the config file to read. It checks, in order:
// 1. $DEVIN_CONFIG if set (must exist)
// 2. ~/devin-dcc/config.yaml
// 3. /etc/devin/config.yaml
// An empty result means no file; defaults apply.
func (l *Loader) ResolveConfigPath() (string, error) {
	if env := l.getenv(EnvConfigPath); env != "" {
		path := l.expand(env)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfigPath, env, err)
		}
		return path, nil
	}
	if home := l.homeDir(); home != "" {
		userPath := filepath.Join(home, "devin-dcc", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}
	systemPath := filepath.Join("/etc/devin", "config.yaml")
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}
	return "", nil
}

// Load reads the config file, if any, and returns the merged configuration.
func (l *Loader) Load() (*Config, error) {
	path, err := l.ResolveConfigPath()
	if err != nil {
		return nil, err
	}

	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	cfg.File = path

	if err := cfg.normalize(l.expand); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) homeDir() string {
	if l.home != "" {
		return l.home
	}
	home, _ := homedir.Dir()
	return home
}

// expand resolves a leading ~. Paths it cannot expand, such as ~user, are
// returned unchanged.
func (l *Loader) expand(path string) string {
	if l.home == "" {
		if expanded, err := homedir.Expand(path); err == nil {
			return expanded
		}
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(l.home, path[1:])
	}
	return path
}

// normalize expands ~ in every path setting and validates values.
func (c *Config) normalize(expand func(string) string) error {
	c.ResourceDir = expand(c.ResourceDir)
	if c.ResourceDir == "" {
		return errors.New("resource_dir must not be empty")
	}
	c.Log.FilePath = expand(c.Log.FilePath)
	c.Launch.SitePaths = expandAll(expand, c.Launch.SitePaths)
	if _, err := c.Launch.EnvOverrides(); err != nil {
		return err
	}

	for name, k := range c.Kinds {
		k.Executable = expand(k.Executable)
		k.InstallRoots = expandAll(expand, k.InstallRoots)
		k.PythonPaths = expandAll(expand, k.PythonPaths)
		k.PluginPaths = expandAll(expand, k.PluginPaths)
		k.ModulePaths = expandAll(expand, k.ModulePaths)
		k.StartupPaths = expandAll(expand, k.StartupPaths)
		k.SystemScripts = expand(k.SystemScripts)
		k.SystemExtensions = expand(k.SystemExtensions)
		c.Kinds[name] = k
	}
	return nil
}

func expandAll(expand func(string) string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, expand(p))
		}
	}
	return out
}
