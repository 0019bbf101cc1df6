//go:build integration && linux

package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/infra"
	"github.com/devin-dcc/devin/internal/profile"
	"github.com/devin-dcc/devin/internal/usecase"
	"github.com/devin-dcc/devin/test/fixtures"
)

var _ = Describe("Launch pipeline", func() {
	var (
		tmpDir      string
		appsDir     string
		resourceDir string
		reportPath  string
		stdout      bytes.Buffer
		profiles    *profile.Registry
	)

	newService := func(kind domain.ApplicationKind) *usecase.LaunchService {
		logger := zap.NewNop()
		index := infra.NewInstallIndex(profiles, logger,
			infra.WithGOOS("linux"),
			infra.WithGetenv(func(string) string { return "" }),
			infra.WithRegistry(nil),
			infra.WithResourceDir(resourceDir),
			infra.WithInstallRoots(kind, []string{appsDir}),
		)
		return usecase.NewLaunchService(
			profiles,
			index,
			infra.NewPythonProbe(logger),
			infra.NewScriptInstaller(afero.NewOsFs(), filepath.Join(resourceDir, "scripts"), logger),
			infra.NewFileSystemManager(),
			infra.NewProcessLauncher(infra.NewProcessTree(), logger, infra.WithStdio(nil, &stdout, &stdout)),
			logger,
		)
	}

	install := func(name, exe string, sitePackages ...string) *fixtures.FakeInstall {
		fake := fixtures.NewFakeInstall(appsDir, name, exe, sitePackages...)
		Expect(fake.Create()).To(Succeed())
		return fake
	}

	options := func(extra map[string]string) domain.LaunchOptions {
		env := map[string]string{fixtures.EnvReportPath: reportPath}
		for k, v := range extra {
			env[k] = v
		}
		return domain.LaunchOptions{EnvOverrides: env, LogLevel: "INFO", LaunchID: "integration"}
	}

	spec := func(s string) domain.VersionSpec {
		vs, err := domain.ParseVersionSpec(s)
		Expect(err).NotTo(HaveOccurred())
		return vs
	}

	realPath := func(p string) string {
		resolved, err := filepath.EvalSymlinks(p)
		Expect(err).NotTo(HaveOccurred())
		return resolved
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "devin-integration-*")
		Expect(err).NotTo(HaveOccurred())

		appsDir = filepath.Join(tmpDir, "apps")
		resourceDir = filepath.Join(tmpDir, "resource")
		reportPath = filepath.Join(tmpDir, "report.txt")
		Expect(os.MkdirAll(appsDir, 0755)).To(Succeed())

		stdout.Reset()
		profiles = profile.NewRegistry()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Maya", func() {
		var maya2023, maya2025 *fixtures.FakeInstall

		BeforeEach(func() {
			maya2023 = install("maya2023", "bin/maya", "lib/python3.9/site-packages")
			maya2025 = install("maya2025", "bin/maya", "lib/python3.11/site-packages")
		})

		Context("when no version is requested", func() {
			It("should launch the highest version with the composed environment", func() {
				siteDir := filepath.Join(tmpDir, "site")
				pluginDir := filepath.Join(tmpDir, "plugins")
				opts := options(nil)
				opts.SitePaths = []string{siteDir}
				opts.PluginPaths = []string{pluginDir}

				result, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:        domain.KindMaya,
					Passthrough: []string{"-batch", "-file", "scene file.ma"},
					Options:     opts,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.ExitCode).To(Equal(0))

				report, err := fixtures.ReadReport(reportPath)
				Expect(err).NotTo(HaveOccurred())

				Expect(report.Args).To(Equal([]string{"-batch", "-file", "scene file.ma"}))
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC", "maya"))
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC_VERSION", "2025"))
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_LAUNCH_ID", "integration"))
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_LOG_LEVEL", "INFO"))
				Expect(report.Env).To(HaveKeyWithValue("MAYA_LOCATION", maya2025.Root))
				Expect(report.Env["PYTHONPATH"]).To(HavePrefix(filepath.Join(resourceDir, "scripts", "maya", "startup")))
				Expect(report.Env["MAYA_PLUG_IN_PATH"]).To(ContainSubstring(pluginDir))
				Expect(report.Env["MAYA_SITE_PATH"]).To(ContainSubstring(filepath.Join(maya2025.Root, "lib/python3.11/site-packages")))
				Expect(report.Env["MAYA_SITE_PATH"]).To(HaveSuffix(siteDir))
				Expect(report.Env).NotTo(HaveKey("MAYA_APP_DIR"))

				wd, err := os.Getwd()
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Dir).To(Equal(realPath(wd)))

				_, err = os.Stat(filepath.Join(resourceDir, "scripts", "maya", "startup", "userSetup.py"))
				Expect(err).NotTo(HaveOccurred())
			})
		})

		Context("when a version prefix is requested", func() {
			It("should launch the matching version", func() {
				_, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:    domain.KindMaya,
					Spec:    spec("2023.*"),
					Options: options(nil),
				})
				Expect(err).NotTo(HaveOccurred())

				report, err := fixtures.ReadReport(reportPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC_VERSION", "2023"))
				Expect(report.Env).To(HaveKeyWithValue("MAYA_LOCATION", maya2023.Root))
			})
		})

		Context("when the requested version is not installed", func() {
			It("should fail without launching anything", func() {
				_, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:    domain.KindMaya,
					Spec:    spec("2030"),
					Options: options(nil),
				})

				var notFound *domain.VersionNotFoundError
				Expect(err).To(BeAssignableToTypeOf(notFound))
				Expect(err.Error()).To(ContainSubstring("2023, 2025"))

				_, statErr := os.Stat(reportPath)
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})

		Context("when the application exits non-zero", func() {
			It("should return its exit code as the result", func() {
				result, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:    domain.KindMaya,
					Options: options(map[string]string{fixtures.EnvExitCode: "7"}),
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.ExitCode).To(Equal(7))
				Expect(result.Signalled).To(BeFalse())
			})
		})

		Context("when a temp config dir is requested", func() {
			It("should point MAYA_APP_DIR at it and delete it afterwards", func() {
				_, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:          domain.KindMaya,
					TempConfigDir: true,
					Options:       options(nil),
				})
				Expect(err).NotTo(HaveOccurred())

				report, err := fixtures.ReadReport(reportPath)
				Expect(err).NotTo(HaveOccurred())
				configDir := report.Env["MAYA_APP_DIR"]
				Expect(configDir).NotTo(BeEmpty())

				_, statErr := os.Stat(configDir)
				Expect(os.IsNotExist(statErr)).To(BeTrue())
			})
		})

		Context("when an executable is given", func() {
			It("should skip discovery and use the requested version label", func() {
				_, err := newService(domain.KindMaya).Run(context.Background(), domain.LaunchRequest{
					Kind:       domain.KindMaya,
					Spec:       spec("2099"),
					Executable: maya2023.ExecutablePath(),
					Options:    options(nil),
				})
				Expect(err).NotTo(HaveOccurred())

				report, err := fixtures.ReadReport(reportPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC_VERSION", "2099"))
				Expect(report.Env).To(HaveKeyWithValue("MAYA_LOCATION", maya2023.Root))
			})
		})
	})

	Describe("mayapy", func() {
		Context("when nothing is installed", func() {
			It("should report no installation", func() {
				_, err := newService(domain.KindMayapy).Run(context.Background(), domain.LaunchRequest{
					Kind:    domain.KindMayapy,
					Options: options(nil),
				})
				Expect(err).To(MatchError(domain.ErrNoInstallationFound))
			})
		})
	})

	Describe("MotionBuilder", func() {
		It("should start in the parent of the install root", func() {
			install("MotionBuilder2025", "bin/linux_64/motionbuilder")

			_, err := newService(domain.KindMotionBuilder).Run(context.Background(), domain.LaunchRequest{
				Kind:    domain.KindMotionBuilder,
				Options: options(nil),
			})
			Expect(err).NotTo(HaveOccurred())

			report, err := fixtures.ReadReport(reportPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Dir).To(Equal(realPath(appsDir)))
			Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC_VERSION", "2025"))
			Expect(report.Env["MOTIONBUILDER_PYTHON_STARTUP"]).To(HavePrefix(filepath.Join(resourceDir, "scripts", "mobu", "startup")))
		})
	})

	Describe("Blender", func() {
		It("should enable system addons and the bundled site-packages", func() {
			blender := install("blender-4.1.1-linux-x64", "blender", "4.1/python/lib/python3.11/site-packages")
			systemScripts := filepath.Join(tmpDir, "blender-system")
			Expect(os.MkdirAll(filepath.Join(systemScripts, "addons", "studio_tools"), 0755)).To(Succeed())

			opts := options(nil)
			opts.SystemScripts = systemScripts

			_, err := newService(domain.KindBlender).Run(context.Background(), domain.LaunchRequest{
				Kind:        domain.KindBlender,
				Passthrough: []string{"--background"},
				Options:     opts,
			})
			Expect(err).NotTo(HaveOccurred())

			report, err := fixtures.ReadReport(reportPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Args).To(Equal([]string{"--python-use-system-env", "--addons", "studio_tools", "--background"}))
			Expect(report.Env).To(HaveKeyWithValue("DEVIN_DCC_VERSION", "4.1.1"))
			Expect(report.Env).To(HaveKeyWithValue("BLENDER_SYSTEM_SCRIPTS", systemScripts))
			Expect(report.Env).To(HaveKeyWithValue("BLENDER_USER_SCRIPTS", filepath.Join(resourceDir, "scripts", "blender")))
			Expect(report.Env["BLENDER_SITE_PATH"]).To(ContainSubstring(filepath.Join(blender.Root, "4.1/python/lib/python3.11/site-packages")))
		})
	})
})
