//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// availableBytes returns the caller's available bytes via GetDiskFreeSpaceEx.
func availableBytes(path string) (uint64, bool) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, false
	}
	var avail, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(p, &avail, &total, &free); err != nil {
		return 0, false
	}
	return avail, true
}
