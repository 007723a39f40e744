// Package wifi reports the SSID of the wireless network the host is on.
package wifi

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
)

// Sentinel SSIDs reported instead of errors.
const (
	Unavailable = "Unavailable"
	Unsupported = "Unsupported OS"
	Unknown     = "Unknown"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Detector looks up the current SSID using the platform's tooling.
type Detector struct {
	goos string
	run  Runner
}

// NewDetector creates a Detector for the running OS.
func NewDetector() *Detector {
	return &Detector{goos: runtime.GOOS, run: execRunner}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// SSID returns the connected network name. It never fails: errors and empty
// output yield Unavailable, unsupported platforms yield Unsupported.
func (d *Detector) SSID(ctx context.Context) string {
	var ssid string
	switch d.goos {
	case "linux":
		out, err := d.run(ctx, "iwgetid", "--raw")
		if err != nil {
			return Unavailable
		}
		ssid = strings.TrimSpace(string(out))
	case "windows":
		out, err := d.run(ctx, "netsh", "wlan", "show", "interfaces")
		if err != nil {
			return Unavailable
		}
		ssid = parseNetsh(string(out))
	default:
		return Unsupported
	}

	if ssid == "" {
		return Unavailable
	}
	return ssid
}

// parseNetsh picks the value of the first "SSID" line that is not "BSSID".
func parseNetsh(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "SSID") || strings.Contains(line, "BSSID") {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		return strings.TrimSpace(value)
	}
	return Unknown
}
