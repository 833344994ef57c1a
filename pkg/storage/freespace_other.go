//go:build !linux && !darwin

package storage

// FreeSpace is not reported on this platform.
func FreeSpace(dir string) (int64, bool) {
	return 0, false
}
