// Package formatting converts byte sizes between machine and human forms.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatBytes renders n using base-1024 units, with the given number of
// digits after the decimal point.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[unit]
}

// ParseBytes reads a size such as "50MB" or "2 gb" into a byte count.
// Units are base-1024 and case-insensitive; a bare number means bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	value, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[split:]))
	if unit == "" {
		return int64(value), nil
	}

	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}

	return int64(value * math.Pow(1024, float64(idx))), nil
}
