//go:build linux

package apps

import "syscall"

// RealDiskSpace reports available bytes at path using the OS's statfs,
// the low-level filesystem helper spec.md §1 names as assumed external;
// this is the concrete default wired by cmd/ for a standalone deployment.
func RealDiskSpace(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil //nolint:unconvert
}
