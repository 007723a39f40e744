package blocklist

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// AcceptedFormats describes valid duration strings in error messages.
const AcceptedFormats = "a positive integer followed by s, m, h, d or w (e.g. 30m, 1h, 7d)"

// InvalidDurationError reports a duration string that cannot be parsed.
type InvalidDurationError struct {
	Value string
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration %q: use %s", e.Value, AcceptedFormats)
}

var units = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration parses strings such as "30m", "1h" or "7d".
// The magnitude must be a positive integer; units are s, m, h, d and w.
func ParseDuration(s string) (time.Duration, error) {
	v := strings.TrimSpace(s)
	if len(v) < 2 {
		return 0, &InvalidDurationError{Value: s}
	}

	unit, ok := units[v[len(v)-1]]
	if !ok {
		return 0, &InvalidDurationError{Value: s}
	}

	digits := v[:len(v)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, &InvalidDurationError{Value: s}
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, &InvalidDurationError{Value: s}
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, &InvalidDurationError{Value: s}
	}
	return time.Duration(n) * unit, nil
}
