//go:build windows

package infra

import (
	"errors"
	"sort"

	"golang.org/x/sys/windows/registry"

	"github.com/devin-dcc/devin/internal/profile"
)

// WindowsRegistry reads install roots from HKEY_LOCAL_MACHINE.
type WindowsRegistry struct{}

func newSystemRegistry() RegistryReader {
	return WindowsRegistry{}
}

// Roots enumerates version subkeys of loc.Key and reads loc.Value from each.
func (WindowsRegistry) Roots(loc profile.RegistryLocation) ([]RegistryRoot, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, loc.Key, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer k.Close()

	versions, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(versions)

	var roots []RegistryRoot
	for _, v := range versions {
		path := loc.Key + `\` + v
		if loc.SubPath != "" {
			path += `\` + loc.SubPath
		}
		sub, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		dir, _, err := sub.GetStringValue(loc.Value)
		sub.Close()
		if err != nil || dir == "" {
			continue
		}
		roots = append(roots, RegistryRoot{Version: v, Path: dir})
	}
	return roots, nil
}
