//go:build !windows

package fs

// IsHiddenSystem reports whether the path carries both the DOS hidden and
// system attributes. Non-Windows filesystems do not expose DOS attributes, so
// nothing is filtered here.
func IsHiddenSystem(string) bool {
	return false
}
