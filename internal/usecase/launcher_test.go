package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

// mockInstallIndex implements domain.InstallIndex for testing
type mockInstallIndex struct {
	variants map[domain.ApplicationKind][]domain.InstalledVariant
	err      error
	calls    int
}

func (m *mockInstallIndex) ListInstalled(_ context.Context, kind domain.ApplicationKind) ([]domain.InstalledVariant, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.variants[kind], nil
}

// mockPythonProbe implements domain.PythonProbe for testing
type mockPythonProbe struct {
	info  *domain.PythonInfo
	err   error
	calls int
}

func (m *mockPythonProbe) Probe(context.Context) (*domain.PythonInfo, error) {
	m.calls++
	return m.info, m.err
}

// mockScriptInstaller implements domain.ScriptInstaller for testing
type mockScriptInstaller struct {
	dir string
	err error
}

func (m *mockScriptInstaller) Install() (string, error) {
	return m.dir, m.err
}

// mockFileSystemManager implements domain.FileSystemManager for testing
type mockFileSystemManager struct {
	existingPaths map[string]bool
	subDirs       map[string][]string
	tempDir       string
	mkdirErr      error
	removed       []string
}

func (m *mockFileSystemManager) Exists(path string) bool {
	return m.existingPaths[path]
}

func (m *mockFileSystemManager) ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return "/home/testuser/" + path[2:]
	}
	return path
}

func (m *mockFileSystemManager) MkdirTemp(pattern string) (string, error) {
	if m.mkdirErr != nil {
		return "", m.mkdirErr
	}
	return m.tempDir, nil
}

func (m *mockFileSystemManager) RemoveAll(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

func (m *mockFileSystemManager) SubDirs(path string) []string {
	return m.subDirs[path]
}

// mockProcessLauncher implements domain.ProcessLauncher for testing
type mockProcessLauncher struct {
	result   domain.LaunchResult
	err      error
	launched []domain.LaunchCommand
	onLaunch func()
}

func (m *mockProcessLauncher) Launch(_ context.Context, cmd domain.LaunchCommand) (domain.LaunchResult, error) {
	m.launched = append(m.launched, cmd)
	if m.onLaunch != nil {
		m.onLaunch()
	}
	return m.result, m.err
}

type serviceFixture struct {
	index    *mockInstallIndex
	probe    *mockPythonProbe
	scripts  *mockScriptInstaller
	fs       *mockFileSystemManager
	launcher *mockProcessLauncher
	svc      *LaunchService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		index: &mockInstallIndex{variants: map[domain.ApplicationKind][]domain.InstalledVariant{
			domain.KindMaya: {
				variant(domain.KindMaya, "2024", "/usr/autodesk/maya2024"),
				variant(domain.KindMaya, "2025", "/usr/autodesk/maya2025"),
			},
			domain.KindBlender: {
				variant(domain.KindBlender, "4.2", "/opt/blender-4.2"),
			},
		}},
		probe: &mockPythonProbe{info: &domain.PythonInfo{
			Executable:   "/venv/bin/python",
			Version:      "3.11",
			SitePackages: "/venv/lib/python3.11/site-packages",
		}},
		scripts:  &mockScriptInstaller{dir: "/res/scripts"},
		fs:       &mockFileSystemManager{tempDir: "/tmp/devin-maya-config-1"},
		launcher: &mockProcessLauncher{},
	}
	f.svc = NewLaunchService(profile.NewRegistry(), f.index, f.probe, f.scripts, f.fs, f.launcher, zap.NewNop())
	f.svc.composer = NewComposerWithSeparator(":")
	f.svc.baseEnv = func() []string { return []string{"HOME=/home/testuser"} }
	f.svc.goos = "linux"
	return f
}

func TestLaunchService_RunLatest(t *testing.T) {
	f := newServiceFixture()
	f.launcher.result = domain.LaunchResult{ExitCode: 3}

	res, err := f.svc.Run(context.Background(), domain.LaunchRequest{
		Kind:        domain.KindMaya,
		Passthrough: []string{"-file", "scene.ma"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	require.Len(t, f.launcher.launched, 1)
	cmd := f.launcher.launched[0]
	assert.Equal(t, "/usr/autodesk/maya2025/bin/maya", cmd.ExecutablePath)
	assert.Equal(t, []string{"-file", "scene.ma"}, cmd.Args)
	assert.Equal(t, "2025", cmd.Environment.Lookup(EnvDCCVersion))
	assert.Equal(t, "/home/testuser", cmd.Environment.Lookup("HOME"))
	assert.Contains(t, cmd.Environment.Lookup("PYTHONPATH"), filepath.FromSlash("/res/scripts/maya/startup"))
	assert.Zero(t, f.probe.calls, "python is only probed for prefix site")
}

func TestLaunchService_ErrorsStopBeforeLaunch(t *testing.T) {
	t.Run("no installation", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{Kind: domain.KindMobupy})
		assert.ErrorIs(t, err, domain.ErrNoInstallationFound)
		assert.Empty(t, f.launcher.launched)
	})

	t.Run("version not found", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{
			Kind: domain.KindMaya,
			Spec: domain.ExactSpec("2023"),
		})
		assert.ErrorIs(t, err, domain.ErrVersionNotFound)
		assert.Empty(t, f.launcher.launched)
	})

	t.Run("discovery failure", func(t *testing.T) {
		f := newServiceFixture()
		f.index.err = &domain.NoInstallationFoundError{Kind: domain.KindMaya, Cause: errors.New("denied")}
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{Kind: domain.KindMaya})
		assert.ErrorIs(t, err, domain.ErrNoInstallationFound)
	})

	t.Run("spawn failure passes through", func(t *testing.T) {
		f := newServiceFixture()
		f.launcher.err = &domain.SpawnFailedError{Path: "/x", Err: errors.New("exec format error")}
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{Kind: domain.KindMaya})
		assert.ErrorIs(t, err, domain.ErrSpawnFailed)
	})
}

func TestLaunchService_IncludePrefixSite(t *testing.T) {
	t.Run("compatible python adds site-packages", func(t *testing.T) {
		f := newServiceFixture()
		cmd, _, err := f.svc.Prepare(context.Background(), domain.LaunchRequest{
			Kind:    domain.KindMaya,
			Spec:    domain.ExactSpec("2025"),
			Options: domain.LaunchOptions{IncludePrefixSite: true},
		})
		require.NoError(t, err)
		assert.Equal(t, "/venv/lib/python3.11/site-packages", cmd.Environment.Lookup("MAYA_SITE_PATH"))
	})

	t.Run("incompatible python fails before launch", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{
			Kind:    domain.KindMaya,
			Spec:    domain.ExactSpec("2024"),
			Options: domain.LaunchOptions{IncludePrefixSite: true},
		})
		require.ErrorIs(t, err, domain.ErrIncompatiblePython)

		var ip *domain.IncompatiblePythonError
		require.ErrorAs(t, err, &ip)
		assert.Equal(t, "3.10", ip.Required)
		assert.Equal(t, "3.11", ip.Current)
		assert.Empty(t, f.launcher.launched)
	})

	t.Run("probe failure", func(t *testing.T) {
		f := newServiceFixture()
		f.probe.err = errors.New("no python")
		_, err := f.svc.Run(context.Background(), domain.LaunchRequest{
			Kind:    domain.KindMaya,
			Options: domain.LaunchOptions{IncludePrefixSite: true},
		})
		assert.Error(t, err)
	})
}

func TestLaunchService_ExecutableOverride(t *testing.T) {
	f := newServiceFixture()
	f.fs.existingPaths = map[string]bool{"/home/testuser/apps/maya/bin/maya": true}

	cmd, _, err := f.svc.Prepare(context.Background(), domain.LaunchRequest{
		Kind:       domain.KindMaya,
		Executable: "~/apps/maya/bin/maya",
	})
	require.NoError(t, err)

	assert.Zero(t, f.index.calls, "discovery is skipped")
	assert.Equal(t, "/home/testuser/apps/maya/bin/maya", cmd.ExecutablePath)
	assert.Equal(t, CustomVersionLabel, cmd.Environment.Lookup(EnvDCCVersion))
	assert.Equal(t, filepath.FromSlash("/home/testuser/apps/maya"), cmd.Environment.Lookup("MAYA_LOCATION"))

	cmd, _, err = f.svc.Prepare(context.Background(), domain.LaunchRequest{
		Kind:       domain.KindMaya,
		Spec:       domain.ExactSpec("2026"),
		Executable: "/home/testuser/apps/maya/bin/maya",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026", cmd.Environment.Lookup(EnvDCCVersion))

	_, _, err = f.svc.Prepare(context.Background(), domain.LaunchRequest{
		Kind:       domain.KindMaya,
		Executable: "/nowhere/maya",
	})
	assert.ErrorIs(t, err, domain.ErrSpawnFailed)
}

func TestLaunchService_TempConfigDir(t *testing.T) {
	f := newServiceFixture()
	f.launcher.onLaunch = func() {
		assert.Empty(t, f.fs.removed, "temp dir must outlive the child")
	}

	_, err := f.svc.Run(context.Background(), domain.LaunchRequest{
		Kind:          domain.KindMaya,
		TempConfigDir: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/devin-maya-config-1", f.launcher.launched[0].Environment.Lookup("MAYA_APP_DIR"))
	assert.Equal(t, []string{"/tmp/devin-maya-config-1"}, f.fs.removed)

	f = newServiceFixture()
	f.fs.mkdirErr = errors.New("read-only")
	_, err = f.svc.Run(context.Background(), domain.LaunchRequest{Kind: domain.KindMaya, TempConfigDir: true})
	assert.Error(t, err)
	assert.Empty(t, f.launcher.launched)
}

func TestLaunchService_BlenderAddons(t *testing.T) {
	f := newServiceFixture()
	f.fs.subDirs = map[string][]string{
		filepath.Join("/studio/scripts", "addons"):     {"node_wrangler_plus"},
		filepath.Join("/studio/extensions", "system"): {"rig_tools", "exporter"},
	}

	cmd, _, err := f.svc.Prepare(context.Background(), domain.LaunchRequest{
		Kind: domain.KindBlender,
		Options: domain.LaunchOptions{
			SystemScripts:    "/studio/scripts",
			SystemExtensions: "/studio/extensions",
		},
		Passthrough: []string{"-b"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"--python-use-system-env",
		"--addons", "node_wrangler_plus,bl_ext.system.rig_tools,bl_ext.system.exporter",
		"-b",
	}, cmd.Args)
	assert.Equal(t, "/studio/scripts", cmd.Environment.Lookup("BLENDER_SYSTEM_SCRIPTS"))
}

func TestLaunchService_ScriptsFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture()
	f.scripts.err = errors.New("disk full")

	cmd, _, err := f.svc.Prepare(context.Background(), domain.LaunchRequest{Kind: domain.KindMaya})
	require.NoError(t, err)
	_, ok := cmd.Environment.Get("PYTHONPATH")
	assert.False(t, ok)
}

func TestLaunchService_ListVariants(t *testing.T) {
	f := newServiceFixture()
	got, err := f.svc.ListVariants(context.Background(), domain.KindMaya)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResourceCleaner_Clear(t *testing.T) {
	fs := &mockFileSystemManager{existingPaths: map[string]bool{"/home/testuser/devin-dcc/resource": true}}
	c := NewResourceCleaner(fs, "/home/testuser/devin-dcc/resource", zap.NewNop())

	cleared, err := c.Clear()
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, []string{"/home/testuser/devin-dcc/resource"}, fs.removed)

	fs.existingPaths = nil
	cleared, err = c.Clear()
	require.NoError(t, err)
	assert.False(t, cleared)
}
