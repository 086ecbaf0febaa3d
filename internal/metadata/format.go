package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FormatDuration renders seconds as "mm:ss", or "hh:mm:ss" from one hour up.
// Non-positive values render as "".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours >= 1 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// ParseDuration converts "mm:ss" or "hh:mm:ss" to seconds.
// Any other shape, or a non-numeric component, yields 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(stripFormatChars(s))
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		values[i] = n
	}

	if len(values) == 3 {
		return values[0]*3600 + values[1]*60 + values[2]
	}
	return values[0]*60 + values[1]
}

// stripFormatChars removes invisible Unicode format characters such as the
// left-to-right marks the Windows shell adds around column values.
func stripFormatChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}
