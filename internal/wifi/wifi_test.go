package wifi

import (
	"context"
	"errors"
	"testing"
)

func fixed(out string, err error) Runner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), err
	}
}

const netshOutput = `
There is 1 interface on the system:

    Name                   : Wi-Fi
    State                  : connected
    SSID                   : HomeNet 5G
    BSSID                  : 30:e9:8e:63:c5:74
    Network type           : Infrastructure
`

func TestDetector_SSID(t *testing.T) {
	tests := []struct {
		name string
		goos string
		run  Runner
		want string
	}{
		{name: "linux", goos: "linux", run: fixed("HomeNet\n", nil), want: "HomeNet"},
		{name: "linux not connected", goos: "linux", run: fixed("", nil), want: Unavailable},
		{name: "linux command missing", goos: "linux", run: fixed("", errors.New("exec: not found")), want: Unavailable},
		{name: "windows", goos: "windows", run: fixed(netshOutput, nil), want: "HomeNet 5G"},
		{name: "windows no ssid line", goos: "windows", run: fixed("State : disconnected\n", nil), want: Unknown},
		{name: "windows failure", goos: "windows", run: fixed("", errors.New("exit status 1")), want: Unavailable},
		{name: "darwin", goos: "darwin", run: fixed("ignored", nil), want: Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Detector{goos: tt.goos, run: tt.run}
			if got := d.SSID(context.Background()); got != tt.want {
				t.Errorf("SSID() = %q, want %q", got, tt.want)
			}
		})
	}
}
