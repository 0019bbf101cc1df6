//go:build !windows

package infra

// The registry only exists on Windows.
func newSystemRegistry() RegistryReader {
	return nil
}
