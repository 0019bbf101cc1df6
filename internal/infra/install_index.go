package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

// RegistryRoot is an install root read from the Windows registry.
type RegistryRoot struct {
	Version string
	Path    string
}

// RegistryReader lists install roots recorded under a registry location.
// A missing key is not an error.
type RegistryReader interface {
	Roots(loc profile.RegistryLocation) ([]RegistryRoot, error)
}

// InstallIndexImpl implements domain.InstallIndex by scanning the host.
type InstallIndexImpl struct {
	profiles    *profile.Registry
	fs          afero.Fs
	goos        string
	getenv      func(string) string
	registry    RegistryReader
	resourceDir string
	roots       map[domain.ApplicationKind][]string
	logger      *zap.Logger
}

// IndexOption configures an InstallIndexImpl.
type IndexOption func(*InstallIndexImpl)

// WithFs sets the filesystem to scan (tests use afero.NewMemMapFs).
func WithFs(fs afero.Fs) IndexOption {
	return func(ix *InstallIndexImpl) { ix.fs = fs }
}

// WithGOOS overrides the target OS layout.
func WithGOOS(goos string) IndexOption {
	return func(ix *InstallIndexImpl) { ix.goos = goos }
}

// WithGetenv overrides environment lookup.
func WithGetenv(getenv func(string) string) IndexOption {
	return func(ix *InstallIndexImpl) { ix.getenv = getenv }
}

// WithRegistry sets the registry reader. nil disables registry discovery.
func WithRegistry(r RegistryReader) IndexOption {
	return func(ix *InstallIndexImpl) { ix.registry = r }
}

// WithResourceDir sets the directory that replaces {resource} in locations.
func WithResourceDir(dir string) IndexOption {
	return func(ix *InstallIndexImpl) { ix.resourceDir = dir }
}

// WithInstallRoots adds user-configured roots for kind. A root may be an
// install itself or a parent directory holding installs.
func WithInstallRoots(kind domain.ApplicationKind, roots []string) IndexOption {
	return func(ix *InstallIndexImpl) {
		ix.roots[kind] = append(ix.roots[kind], roots...)
	}
}

// NewInstallIndex creates an install index over the real host.
func NewInstallIndex(profiles *profile.Registry, logger *zap.Logger, opts ...IndexOption) *InstallIndexImpl {
	ix := &InstallIndexImpl{
		profiles: profiles,
		fs:       afero.NewOsFs(),
		goos:     runtime.GOOS,
		getenv:   os.Getenv,
		registry: newSystemRegistry(),
		roots:    make(map[domain.ApplicationKind][]string),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// ListInstalled returns variants of kind in discovery order:
// location env var, configured roots, default directories, registry.
func (ix *InstallIndexImpl) ListInstalled(ctx context.Context, kind domain.ApplicationKind) ([]domain.InstalledVariant, error) {
	p, ok := ix.profiles.Get(kind)
	if !ok {
		return nil, fmt.Errorf("unknown application kind: %s", kind)
	}
	if _, ok := p.Executable(ix.goos); !ok {
		ix.logger.Debug("kind not supported on this OS",
			zap.String("kind", kind.String()),
			zap.String("os", ix.goos))
		return nil, nil
	}

	s := &scan{ix: ix, p: p, seen: make(map[string]bool)}

	if p.LocationEnv != "" {
		if root := ix.getenv(p.LocationEnv); root != "" {
			s.addRoot(root, domain.SourceEnv, "")
		}
	}

	for _, root := range ix.roots[kind] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.addConfigured(ix.expand(root))
	}

	for _, loc := range p.LocationsFor(ix.goos) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := ix.expandLocation(loc.Dir)
		if dir == "" {
			continue
		}
		s.scanParent(dir, []profile.Location{loc}, domain.SourceDefault)
	}

	if ix.registry != nil {
		for _, loc := range p.Registry {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			roots, err := ix.registry.Roots(loc)
			if err != nil {
				s.fail(domain.SourceRegistry, loc.Key, err)
				continue
			}
			for _, r := range roots {
				s.addRoot(r.Path, domain.SourceRegistry, r.Version)
			}
		}
	}

	if len(s.variants) == 0 && len(s.errs) > 0 {
		return nil, &domain.NoInstallationFoundError{Kind: kind, Cause: errors.Join(s.errs...)}
	}
	for _, err := range s.errs {
		ix.logger.Warn("install source unreadable", zap.Error(err))
	}

	ix.logger.Debug("discovered installs",
		zap.String("kind", kind.String()),
		zap.Int("count", len(s.variants)))

	return s.variants, nil
}

func (ix *InstallIndexImpl) expand(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		return expanded
	}
	return path
}

func (ix *InstallIndexImpl) expandLocation(dir string) string {
	if strings.Contains(dir, profile.PlaceholderResource) {
		if ix.resourceDir == "" {
			return ""
		}
		dir = strings.ReplaceAll(dir, profile.PlaceholderResource, ix.resourceDir)
	}
	return filepath.FromSlash(ix.expand(dir))
}

// scan accumulates the result of one ListInstalled call.
type scan struct {
	ix       *InstallIndexImpl
	p        *profile.Profile
	seen     map[string]bool
	variants []domain.InstalledVariant
	errs     []error
}

func (s *scan) fail(src domain.DiscoverySource, path string, err error) {
	s.errs = append(s.errs, &domain.DiscoveryError{
		Kind:   s.p.Kind,
		Source: src,
		Path:   path,
		Err:    err,
	})
}

func (s *scan) key(root string) string {
	if s.ix.goos == "windows" {
		return strings.ToLower(filepath.ToSlash(root))
	}
	return root
}

// addConfigured treats root as an install when the executable is directly
// under it, otherwise as a parent directory to scan.
func (s *scan) addConfigured(root string) {
	exe, _ := s.p.ExecutableIn(root, s.ix.goos)
	if s.isFile(exe) {
		s.addRoot(root, domain.SourceConfig, "")
		return
	}
	s.scanParent(root, s.p.LocationsFor(s.ix.goos), domain.SourceConfig)
}

func (s *scan) scanParent(dir string, locs []profile.Location, src domain.DiscoverySource) {
	entries, err := afero.ReadDir(s.ix.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		s.fail(src, dir, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, loc := range locs {
			if m := loc.Pattern.FindStringSubmatch(e.Name()); len(m) > 1 {
				s.addRoot(filepath.Join(dir, e.Name()), src, m[1])
				break
			}
		}
	}
}

func (s *scan) addRoot(root string, src domain.DiscoverySource, token string) {
	root = filepath.Clean(root)
	k := s.key(root)
	if s.seen[k] {
		s.ix.logger.Debug("duplicate install root",
			zap.String("root", root),
			zap.String("source", string(src)))
		return
	}

	exe, _ := s.p.ExecutableIn(root, s.ix.goos)
	if !s.isFile(exe) {
		s.ix.logger.Debug("install root has no executable",
			zap.String("root", root),
			zap.String("executable", exe))
		return
	}
	s.seen[k] = true

	if token == "" {
		if t, ok := s.p.VersionFromPath(root, s.ix.goos); ok {
			token = t
		} else {
			token = filepath.Base(root)
		}
	}

	version := domain.CustomVersion(token)
	s.variants = append(s.variants, domain.InstalledVariant{
		Kind:           s.p.Kind,
		Version:        version,
		Release:        s.p.Release(version),
		ExecutablePath: exe,
		RootPath:       root,
		BundledPaths:   s.bundled(root),
		Source:         src,
	})
}

func (s *scan) isFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := s.ix.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *scan) bundled(root string) []string {
	var out []string
	for _, g := range s.p.BundledGlobs[s.ix.goos] {
		matches, err := afero.Glob(s.ix.fs, filepath.Join(root, filepath.FromSlash(g)))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, err := s.ix.fs.Stat(m); err == nil && info.IsDir() {
				out = append(out, m)
			}
		}
	}
	return out
}

// Ensure InstallIndexImpl implements domain.InstallIndex.
var _ domain.InstallIndex = (*InstallIndexImpl)(nil)
