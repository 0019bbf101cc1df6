package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a structured application version such as "2024", "2025.1" or "4.2".
// The raw token is kept for exact matching; comparison is numeric per component.
type Version struct {
	raw   string
	head  *semver.Version // first three components, nil for custom versions
	parts []uint64
}

// ParseVersion parses a dotted numeric version token.
func ParseVersion(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Version{}, fmt.Errorf("empty version")
	}

	fields := strings.Split(raw, ".")
	parts := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not numeric", raw, f)
		}
		parts = append(parts, n)
	}

	headFields := fields
	if len(headFields) > 3 {
		headFields = headFields[:3]
	}
	head, err := semver.NewVersion(strings.Join(trimZeros(headFields), "."))
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", raw, err)
	}

	return Version{raw: raw, head: head, parts: parts}, nil
}

// CustomVersion wraps a label that is not a numeric version (for example
// "custom" for an executable given explicitly). It compares as zero.
func CustomVersion(label string) Version {
	if v, err := ParseVersion(label); err == nil {
		return v
	}
	return Version{raw: label}
}

// trimZeros drops leading zeros so that "2024.01" parses like "2024.1".
func trimZeros(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		t := strings.TrimLeft(f, "0")
		if t == "" {
			t = "0"
		}
		out[i] = t
	}
	return out
}

// String returns the raw token.
func (v Version) String() string {
	return v.raw
}

// Components returns a copy of the numeric components.
func (v Version) Components() []uint64 {
	return append([]uint64(nil), v.parts...)
}

// Compare returns -1, 0 or 1. Missing components compare as 0, so "2024" equals "2024.0".
func (v Version) Compare(o Version) int {
	if v.head != nil && o.head != nil {
		if c := v.head.Compare(o.head); c != 0 {
			return c
		}
		return compareParts(tail(v.parts), tail(o.parts))
	}
	return compareParts(v.parts, o.parts)
}

func tail(parts []uint64) []uint64 {
	if len(parts) <= 3 {
		return nil
	}
	return parts[3:]
}

func compareParts(a, b []uint64) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var x, y uint64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// HasPrefix reports whether the leading components of v equal those of prefix.
func (v Version) HasPrefix(prefix Version) bool {
	if len(prefix.parts) == 0 {
		return false
	}
	for i, p := range prefix.parts {
		var c uint64
		if i < len(v.parts) {
			c = v.parts[i]
		}
		if c != p {
			return false
		}
	}
	return true
}

// SpecMode is the selection mode of a VersionSpec.
type SpecMode int

const (
	SpecUnspecified SpecMode = iota
	SpecLatest
	SpecExact
	SpecPrefix
	SpecRange
)

func (m SpecMode) String() string {
	switch m {
	case SpecLatest:
		return "latest"
	case SpecExact:
		return "exact"
	case SpecPrefix:
		return "prefix"
	case SpecRange:
		return "range"
	default:
		return "unspecified"
	}
}

// VersionSpec is the user's version request.
type VersionSpec struct {
	Mode  SpecMode
	Token string

	prefix Version
	// constraint is nil for prefixes deeper than three components, which
	// fall back to HasPrefix.
	constraint *semver.Constraints
}

// ParseVersionSpec interprets the --version argument.
//
//	""             -> unspecified (highest installed)
//	"latest", "*"  -> latest (same selection as unspecified)
//	"2024.*"       -> prefix, highest 2024.x
//	">=2024 <2026" -> range, highest version satisfying the constraint
//	"2025.1"       -> exact, raw token equality
func ParseVersionSpec(s string) (VersionSpec, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return VersionSpec{Mode: SpecUnspecified}, nil
	case strings.EqualFold(s, "latest"):
		return VersionSpec{Mode: SpecLatest, Token: "latest"}, nil
	case isRange(s):
		c, err := semver.NewConstraint(s)
		if err != nil {
			return VersionSpec{}, fmt.Errorf("invalid version range %q: %w", s, err)
		}
		return VersionSpec{Mode: SpecRange, Token: s, constraint: c}, nil
	case strings.HasSuffix(s, "*"):
		p := strings.TrimSuffix(strings.TrimSuffix(s, "*"), ".")
		if p == "" {
			return VersionSpec{Mode: SpecLatest, Token: s}, nil
		}
		pv, err := ParseVersion(p)
		if err != nil {
			return VersionSpec{}, fmt.Errorf("invalid version pattern %q: %w", s, err)
		}
		spec := VersionSpec{Mode: SpecPrefix, Token: s, prefix: pv}
		if c := prefixConstraint(pv); c != "" {
			if spec.constraint, err = semver.NewConstraint(c); err != nil {
				return VersionSpec{}, fmt.Errorf("invalid version pattern %q: %w", s, err)
			}
		}
		return spec, nil
	default:
		return VersionSpec{Mode: SpecExact, Token: s}, nil
	}
}

// prefixConstraint turns "2024" into "2024.x" and "4.2.1" into "=4.2.1".
// Deeper prefixes return "".
func prefixConstraint(p Version) string {
	fields := make([]string, len(p.parts))
	for i, n := range p.parts {
		fields[i] = strconv.FormatUint(n, 10)
	}
	switch {
	case len(fields) < 3:
		return strings.Join(fields, ".") + ".x"
	case len(fields) == 3:
		return "=" + strings.Join(fields, ".")
	default:
		return ""
	}
}

// isRange reports whether s uses comparison operators or range syntax.
func isRange(s string) bool {
	if strings.ContainsAny(s[:1], "<>=~^!") {
		return true
	}
	return strings.Contains(s, "||") || strings.Contains(s, ",") || strings.ContainsAny(s, " \t")
}

// ExactSpec is a shorthand for an exact request.
func ExactSpec(token string) VersionSpec {
	return VersionSpec{Mode: SpecExact, Token: token}
}

// Prefix returns the parsed prefix for SpecPrefix specs.
func (s VersionSpec) Prefix() Version {
	return s.prefix
}

// Matches reports whether v satisfies an exact, prefix or range spec.
// Unspecified and latest specs match every version. Prefix and range specs
// are checked against the first three components only and never match a
// custom version.
func (s VersionSpec) Matches(v Version) bool {
	switch s.Mode {
	case SpecExact:
		return v.String() == s.Token
	case SpecPrefix:
		if s.constraint == nil {
			return v.HasPrefix(s.prefix)
		}
		return v.head != nil && s.constraint.Check(v.head)
	case SpecRange:
		return v.head != nil && s.constraint.Check(v.head)
	default:
		return true
	}
}

func (s VersionSpec) String() string {
	if s.Mode == SpecUnspecified {
		return "latest"
	}
	return s.Token
}
