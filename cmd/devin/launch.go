package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/config"
	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/infra"
	"github.com/devin-dcc/devin/internal/logging"
	"github.com/devin-dcc/devin/internal/profile"
	"github.com/devin-dcc/devin/internal/usecase"
)

// kindFlag maps a launch flag onto its config key. Keys containing %s are per kind.
type kindFlag struct {
	name string
	key  string
}

var launchFlags = []kindFlag{
	{name: "version", key: "kinds.%s.version"},
	{name: "executable", key: "kinds.%s.executable"},
	{name: "include-prefix-site", key: "launch.include_prefix_site"},
	{name: "temp-config-dir", key: "launch.temp_config_dir"},
	{name: "site-path", key: "launch.site_paths"},
	{name: "env", key: "launch.env"},
	{name: "python-path", key: "kinds.%s.python_paths"},
	{name: "plugin-path", key: "kinds.%s.plugin_paths"},
	{name: "module-path", key: "kinds.%s.module_paths"},
	{name: "python-startup", key: "kinds.%s.startup_paths"},
	{name: "system-scripts", key: "kinds.%s.system_scripts"},
	{name: "system-extensions", key: "kinds.%s.system_extensions"},
}

func newLaunchCmd(profiles *profile.Registry, p *profile.Profile) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(p.Kind) + " [flags] [-- args...]",
		Short: "Launch " + p.Name,
		Long: fmt.Sprintf(`Launches %s. Without --version the highest discovered version is used.
--version accepts an exact version, "latest" (or "*"), a prefix such as 2024.*
or a range such as ">=2024 <2026", "~4.2" or "2023 || 2025".`, p.Name),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, profiles, p, args)
		},
	}
	// everything after the first positional argument belongs to the application
	cmd.Flags().SetInterspersed(false)

	f := cmd.Flags()
	f.StringP("version", "v", "", "Version to launch: exact, latest or *, prefix like 2024.*, or range like \">=2024 <2026\"")
	f.StringP("executable", "e", "", "Launch this executable instead of a discovered one")
	f.Bool("include-prefix-site", false, "Add the active Python's site-packages")
	f.Bool("temp-config-dir", false, "Use an empty temporary user config dir, deleted on exit")
	f.StringArray("site-path", nil, "Extra site dir (repeatable)")
	f.StringArray("env", nil, "Extra environment variable KEY=VALUE (repeatable)")
	f.StringArray("python-path", nil, "Extra PYTHONPATH entry (repeatable)")
	if p.Supports(profile.CategoryPlugin) {
		f.StringArray("plugin-path", nil, "Extra plugin dir (repeatable)")
	}
	if p.Supports(profile.CategoryModule) {
		f.StringArray("module-path", nil, "Extra module dir (repeatable)")
	}
	if p.Supports(profile.CategoryStartup) {
		f.StringArray("python-startup", nil, "Extra python startup dir (repeatable)")
	}
	if p.SystemScriptsVar != "" {
		f.String("system-scripts", "", "System scripts dir, its addons are enabled")
	}
	if p.SystemExtensionsVar != "" {
		f.String("system-extensions", "", "System extensions dir, its extensions are enabled")
	}
	return cmd
}

// bindLaunchFlags binds every flag defined on cmd to its config key.
func bindLaunchFlags(cmd *cobra.Command, kind domain.ApplicationKind) func(*config.Loader) error {
	return func(l *config.Loader) error {
		for _, lf := range launchFlags {
			flag := cmd.Flags().Lookup(lf.name)
			if flag == nil {
				continue
			}
			key := lf.key
			if strings.Contains(key, "%s") {
				key = fmt.Sprintf(key, kind)
			}
			if err := l.BindFlag(key, flag); err != nil {
				return err
			}
		}
		return nil
	}
}

func runLaunch(cmd *cobra.Command, profiles *profile.Registry, p *profile.Profile, args []string) error {
	cfg, err := loadConfig(cmd, bindLaunchFlags(cmd, p.Kind))
	if err != nil {
		return &usageError{err}
	}

	logger := logging.New(cfg.Log, os.Stderr)
	defer func() { _ = logger.Sync() }()

	kc := cfg.Kind(p.Kind)
	spec, err := domain.ParseVersionSpec(kc.Version)
	if err != nil {
		return &usageError{err}
	}

	opts, err := cfg.LaunchOptions(p.Kind)
	if err != nil {
		return &usageError{err}
	}
	opts.LaunchID = uuid.NewString()

	req := domain.LaunchRequest{
		Kind:          p.Kind,
		Spec:          spec,
		Executable:    kc.Executable,
		Passthrough:   args,
		TempConfigDir: cfg.Launch.TempConfigDir,
		Options:       opts,
	}

	logger.Debug("launch requested",
		zap.String("kind", string(p.Kind)),
		zap.String("spec", spec.String()),
		zap.String("launch_id", opts.LaunchID),
		zap.String("config", cfg.File))

	svc := newLaunchService(profiles, cfg, logger)
	result, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if result.Signalled {
		logger.Info("application terminated by signal",
			zap.String("signal", result.Signal),
			zap.Int("exit_code", result.ExitCode))
	} else {
		logger.Debug("application exited", zap.Int("exit_code", result.ExitCode))
	}

	if result.ExitCode != 0 {
		return &childExit{code: result.ExitCode}
	}
	return nil
}

func newInstallIndex(profiles *profile.Registry, cfg *config.Config, logger *zap.Logger) *infra.InstallIndexImpl {
	opts := []infra.IndexOption{infra.WithResourceDir(cfg.ResourceDir)}
	for _, kind := range config.Kinds {
		if roots := cfg.Kind(kind).InstallRoots; len(roots) > 0 {
			opts = append(opts, infra.WithInstallRoots(kind, roots))
		}
	}
	return infra.NewInstallIndex(profiles, logger, opts...)
}

func newLaunchService(profiles *profile.Registry, cfg *config.Config, logger *zap.Logger) *usecase.LaunchService {
	return usecase.NewLaunchService(
		profiles,
		newInstallIndex(profiles, cfg, logger),
		infra.NewPythonProbe(logger),
		infra.NewScriptInstaller(afero.NewOsFs(), cfg.ScriptsDir(), logger),
		infra.NewFileSystemManager(),
		infra.NewProcessLauncher(infra.NewProcessTree(), logger),
		logger,
	)
}
