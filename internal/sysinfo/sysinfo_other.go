//go:build !darwin && !linux

package sysinfo

import "fmt"

// totalSystemRAM is unsupported on this platform.
func totalSystemRAM() (uint64, error) {
	return 0, fmt.Errorf("sysinfo: unsupported platform for RAM detection")
}
