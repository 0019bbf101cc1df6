package usecase

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

func TestBuild_ArgsOrder(t *testing.T) {
	v := domain.InstalledVariant{
		Kind:           domain.KindBlender,
		ExecutablePath: "/opt/blender-4.2/blender",
		RootPath:       "/opt/blender-4.2",
	}
	env := domain.NewLaunchEnvironment()

	cmd := Build(profile.NewBlenderProfile(), v,
		[]string{"--addons", "a,b"},
		[]string{"-b", "--", "--my flag"},
		env)

	assert.Equal(t, "/opt/blender-4.2/blender", cmd.ExecutablePath)
	assert.Equal(t, []string{"--python-use-system-env", "--addons", "a,b", "-b", "--", "--my flag"}, cmd.Args)
	assert.Empty(t, cmd.WorkingDirectory)
	assert.Same(t, env, cmd.Environment)
}

func TestBuild_WorkingDirectory(t *testing.T) {
	maya := domain.InstalledVariant{ExecutablePath: "/usr/autodesk/maya2025/bin/maya", RootPath: "/usr/autodesk/maya2025"}
	cmd := Build(profile.NewMayaProfile(), maya, nil, nil, nil)
	assert.Empty(t, cmd.WorkingDirectory)
	assert.Empty(t, cmd.Args)

	root := filepath.FromSlash("/usr/autodesk/MotionBuilder2025")
	mobu := domain.InstalledVariant{RootPath: root}
	cmd = Build(profile.NewMotionBuilderProfile(), mobu, nil, []string{"-batch"}, nil)
	assert.Equal(t, filepath.FromSlash("/usr/autodesk"), cmd.WorkingDirectory)
	assert.Equal(t, []string{"-batch"}, cmd.Args)

	cmd = Build(profile.NewMobupyProfile(), mobu, nil, nil, nil)
	assert.Equal(t, filepath.FromSlash("/usr/autodesk"), cmd.WorkingDirectory)
}
