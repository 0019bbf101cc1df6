// Package usecase contains application business logic.
package usecase

import (
	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
)

// Resolver selects one installed variant for a version request.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a version resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve picks the variant matching spec.
//
// Unspecified and latest select the numerically highest version. Exact
// compares raw tokens or the variant's release line, so "2025" does not match
// "2025.1" but "4.2" matches Blender 4.2.10. Prefix and range select the
// highest version satisfying the spec. Among equal versions the first
// candidate in discovery order wins.
func (r *Resolver) Resolve(kind domain.ApplicationKind, spec domain.VersionSpec, candidates []domain.InstalledVariant) (domain.InstalledVariant, error) {
	if len(candidates) == 0 {
		return domain.InstalledVariant{}, &domain.NoInstallationFoundError{Kind: kind}
	}

	matches := func(c domain.InstalledVariant) bool { return spec.Matches(c.Version) }
	if spec.Mode == domain.SpecExact {
		matches = func(c domain.InstalledVariant) bool {
			return c.Version.String() == spec.Token || c.Release == spec.Token
		}
	}

	best := -1
	for i, c := range candidates {
		if !matches(c) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch cmp := c.Version.Compare(candidates[best].Version); {
		case cmp > 0:
			best = i
		case cmp == 0:
			r.logger.Warn("equal versions installed, keeping the first discovered",
				zap.String("kind", kind.String()),
				zap.String("version", c.Version.String()),
				zap.String("kept", candidates[best].RootPath),
				zap.String("ignored", c.RootPath))
		}
	}
	if best < 0 {
		return domain.InstalledVariant{}, r.notFound(kind, spec, candidates)
	}

	r.logger.Debug("resolved version",
		zap.String("kind", kind.String()),
		zap.String("spec", spec.String()),
		zap.String("version", candidates[best].Version.String()),
		zap.String("root", candidates[best].RootPath))
	return candidates[best], nil
}

func (r *Resolver) notFound(kind domain.ApplicationKind, spec domain.VersionSpec, candidates []domain.InstalledVariant) error {
	available := make([]string, 0, len(candidates))
	for _, c := range candidates {
		available = append(available, c.Version.String())
	}
	return &domain.VersionNotFoundError{Kind: kind, Spec: spec, Available: available}
}
