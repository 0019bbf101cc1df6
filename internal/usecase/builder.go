package usecase

import (
	"path/filepath"

	"github.com/devin-dcc/devin/internal/domain"
	"github.com/devin-dcc/devin/internal/profile"
)

// Build assembles the final command. Arguments are the profile's startup
// flags, then session arguments, then the user's passthrough arguments verbatim.
func Build(p *profile.Profile, v domain.InstalledVariant, sessionArgs, passthrough []string, env *domain.LaunchEnvironment) domain.LaunchCommand {
	args := make([]string, 0, len(p.StartupArgs)+len(sessionArgs)+len(passthrough))
	args = append(args, p.StartupArgs...)
	args = append(args, sessionArgs...)
	args = append(args, passthrough...)

	var dir string
	if p.WorkDir == profile.WorkDirInstallParent {
		dir = filepath.Dir(v.RootPath)
	}

	return domain.LaunchCommand{
		ExecutablePath:   v.ExecutablePath,
		Args:             args,
		WorkingDirectory: dir,
		Environment:      env,
	}
}
