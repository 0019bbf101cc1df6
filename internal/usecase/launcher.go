package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

// CustomVersionLabel is the version of an explicitly given executable
// when no exact version was requested.
const CustomVersionLabel = "custom"

// LaunchService implements domain.Launcher. It runs the pipeline
// install index -> resolver -> composer -> builder -> process launcher.
type LaunchService struct {
	profiles *profile.Registry
	index    domain.InstallIndex
	probe    domain.PythonProbe
	scripts  domain.ScriptInstaller
	fs       domain.FileSystemManager
	launcher domain.ProcessLauncher
	resolver *Resolver
	composer *Composer
	baseEnv  func() []string
	goos     string
	logger   *zap.Logger
}

// NewLaunchService creates a new launch session runner.
func NewLaunchService(
	profiles *profile.Registry,
	index domain.InstallIndex,
	probe domain.PythonProbe,
	scripts domain.ScriptInstaller,
	fs domain.FileSystemManager,
	launcher domain.ProcessLauncher,
	logger *zap.Logger,
) *LaunchService {
	return &LaunchService{
		profiles: profiles,
		index:    index,
		probe:    probe,
		scripts:  scripts,
		fs:       fs,
		launcher: launcher,
		resolver: NewResolver(logger),
		composer: NewComposer(),
		baseEnv:  os.Environ,
		goos:     runtime.GOOS,
		logger:   logger,
	}
}

// Run prepares the command for req, launches it and waits for it to exit.
// The child's exit status is returned in LaunchResult; errors are only
// returned when nothing was launched.
func (s *LaunchService) Run(ctx context.Context, req domain.LaunchRequest) (domain.LaunchResult, error) {
	cmd, cleanup, err := s.Prepare(ctx, req)
	if err != nil {
		return domain.LaunchResult{}, err
	}
	defer cleanup()

	return s.launcher.Launch(ctx, cmd)
}

// Prepare resolves, composes and builds the command without launching it.
// The returned cleanup must be called once the child has exited.
func (s *LaunchService) Prepare(ctx context.Context, req domain.LaunchRequest) (domain.LaunchCommand, func(), error) {
	noop := func() {}

	p, ok := s.profiles.Get(req.Kind)
	if !ok {
		return domain.LaunchCommand{}, noop, fmt.Errorf("unknown application kind: %s", req.Kind)
	}

	variant, err := s.variant(ctx, p, req)
	if err != nil {
		return domain.LaunchCommand{}, noop, err
	}

	opts := req.Options
	if opts.IncludePrefixSite {
		if err := s.checkPython(ctx, p, variant, &opts); err != nil {
			return domain.LaunchCommand{}, noop, err
		}
	}

	if s.scripts != nil {
		dir, err := s.scripts.Install()
		if err != nil {
			s.logger.Warn("bootstrap scripts unavailable, site paths will not be added at startup",
				zap.Error(err))
		} else {
			opts.ScriptsDir = dir
		}
	}

	cleanup := noop
	if req.TempConfigDir {
		dir, err := s.fs.MkdirTemp("devin-" + string(p.Kind) + "-config-")
		if err != nil {
			return domain.LaunchCommand{}, noop, fmt.Errorf("create temp config dir: %w", err)
		}
		s.logger.Info("created temp config dir", zap.String("dir", dir))
		opts.ConfigDir = dir
		cleanup = func() {
			if err := s.fs.RemoveAll(dir); err != nil {
				s.logger.Warn("failed to delete temp config dir", zap.String("dir", dir), zap.Error(err))
				return
			}
			s.logger.Info("deleted temp config dir", zap.String("dir", dir))
		}
	}

	env := s.composer.Compose(domain.EnvironmentFrom(s.baseEnv()), p, variant, opts)

	var sessionArgs []string
	if p.Addons {
		if addons := s.systemAddons(opts); len(addons) > 0 {
			sessionArgs = append(sessionArgs, "--addons", strings.Join(addons, ","))
		}
	}

	cmd := Build(p, variant, sessionArgs, req.Passthrough, env)

	s.logger.Debug("prepared launch",
		zap.String("kind", string(p.Kind)),
		zap.String("version", variant.Version.String()),
		zap.String("executable", cmd.ExecutablePath),
		zap.Strings("args", cmd.Args),
		zap.String("source", string(variant.Source)))

	return cmd, cleanup, nil
}

// ListVariants returns every discovered variant of kind.
func (s *LaunchService) ListVariants(ctx context.Context, kind domain.ApplicationKind) ([]domain.InstalledVariant, error) {
	return s.index.ListInstalled(ctx, kind)
}

func (s *LaunchService) variant(ctx context.Context, p *profile.Profile, req domain.LaunchRequest) (domain.InstalledVariant, error) {
	if req.Executable != "" {
		return s.overrideVariant(p, req)
	}

	candidates, err := s.index.ListInstalled(ctx, p.Kind)
	if err != nil {
		return domain.InstalledVariant{}, err
	}
	return s.resolver.Resolve(p.Kind, req.Spec, candidates)
}

// overrideVariant skips discovery for an explicitly given executable.
func (s *LaunchService) overrideVariant(p *profile.Profile, req domain.LaunchRequest) (domain.InstalledVariant, error) {
	exe := s.fs.ExpandHome(req.Executable)
	if abs, err := filepath.Abs(exe); err == nil {
		exe = abs
	}
	if !s.fs.Exists(exe) {
		return domain.InstalledVariant{}, &domain.SpawnFailedError{Path: exe, Err: os.ErrNotExist}
	}

	label := CustomVersionLabel
	if req.Spec.Mode == domain.SpecExact {
		label = req.Spec.Token
	}

	s.logger.Debug("using provided executable", zap.String("executable", exe))
	return domain.InstalledVariant{
		Kind:           p.Kind,
		Version:        domain.CustomVersion(label),
		ExecutablePath: exe,
		RootPath:       p.RootFromExecutable(exe, s.goos),
		Source:         domain.SourceOverride,
	}, nil
}

// checkPython resolves the caller's site-packages and refuses to mix it
// into an application embedding a different Python.
func (s *LaunchService) checkPython(ctx context.Context, p *profile.Profile, v domain.InstalledVariant, opts *domain.LaunchOptions) error {
	info, err := s.probe.Probe(ctx)
	if err != nil {
		return fmt.Errorf("include prefix site: %w", err)
	}

	if required, ok := p.RequiredPython(v.Version); ok && required != info.Version {
		return &domain.IncompatiblePythonError{
			Kind:     p.Kind,
			Version:  v.Version.String(),
			Required: required,
			Current:  info.Version,
		}
	}

	opts.PrefixSite = info.SitePackages
	return nil
}

// systemAddons lists legacy addons under <scripts>/addons and extensions
// under <extensions>/system, which Blender names bl_ext.system.<name>.
func (s *LaunchService) systemAddons(opts domain.LaunchOptions) []string {
	var addons []string
	if opts.SystemScripts != "" {
		addons = append(addons, s.fs.SubDirs(filepath.Join(opts.SystemScripts, "addons"))...)
	}
	if opts.SystemExtensions != "" {
		for _, name := range s.fs.SubDirs(filepath.Join(opts.SystemExtensions, "system")) {
			addons = append(addons, "bl_ext.system."+name)
		}
	}
	return addons
}

// Ensure LaunchService implements domain.Launcher.
var _ domain.Launcher = (*LaunchService)(nil)
