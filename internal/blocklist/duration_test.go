package blocklist

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "45s", want: 45 * time.Second},
		{in: "30m", want: 30 * time.Minute},
		{in: "1h", want: time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "2w", want: 14 * 24 * time.Hour},
		{in: " 5m ", want: 5 * time.Minute},
		{in: "1x", wantErr: true},
		{in: "0h", wantErr: true},
		{in: "-1h", wantErr: true},
		{in: "+1h", wantErr: true},
		{in: "1.5h", wantErr: true},
		{in: "h", wantErr: true},
		{in: "10", wantErr: true},
		{in: "1H", wantErr: true},
		{in: "99999999999999999w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				var ide *InvalidDurationError
				if !errors.As(err, &ide) {
					t.Fatalf("ParseDuration(%q) error = %v, want *InvalidDurationError", tt.in, err)
				}
				if ide.Value != tt.in {
					t.Errorf("Value = %q, want %q", ide.Value, tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInvalidDurationError_Message(t *testing.T) {
	_, err := ParseDuration("1x")
	msg := err.Error()
	if !strings.Contains(msg, `"1x"`) {
		t.Errorf("message %q should name the offending value", msg)
	}
	if !strings.Contains(msg, AcceptedFormats) {
		t.Errorf("message %q should list accepted formats", msg)
	}
}
