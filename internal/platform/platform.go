package platform

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// Notice is printed instead of doing anything on unsupported systems.
const Notice = "If you run this program on an OS other than linux, it will not do anything."

// Supported reports whether goos can be set up.
func Supported(goos string) bool {
	return goos == "linux"
}

// KernelRelease returns the release of the running kernel, as uname -r
// prints it.
func KernelRelease() (string, error) {
	release, err := host.KernelVersion()
	if err != nil {
		return "", fmt.Errorf("reading kernel release: %w", err)
	}
	return release, nil
}

// Info describes the host for the status command.
type Info struct {
	Hostname      string
	Platform      string
	KernelRelease string
	Arch          string
}

// HostInfo collects Info from the running system.
func HostInfo() (*Info, error) {
	hi, err := host.Info()
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}
	platform := hi.Platform
	if hi.PlatformVersion != "" {
		platform += " " + hi.PlatformVersion
	}
	return &Info{
		Hostname:      hi.Hostname,
		Platform:      platform,
		KernelRelease: hi.KernelVersion,
		Arch:          hi.KernelArch,
	}, nil
}
