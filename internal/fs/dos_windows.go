//go:build windows

package fs

import "golang.org/x/sys/windows"

// IsHiddenSystem reports whether the path carries both the DOS hidden and
// system attributes, e.g. `System Volume Information` or `$RECYCLE.BIN`.
// The generator silently skips child directories with both attributes to
// avoid access-denied errors on Windows filesystems; such regular files are
// still hashed.
func IsHiddenSystem(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	const hiddenSystem = windows.FILE_ATTRIBUTE_HIDDEN | windows.FILE_ATTRIBUTE_SYSTEM
	return attrs&hiddenSystem == hiddenSystem
}
